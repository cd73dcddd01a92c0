// Package service holds the clients for the external collaborators: the
// metrics warehouse (BigQuery or Postgres) and the Elasticsearch report index.
package service

import (
	"context"

	"github.com/physioai/physioai/internal/models"
)

// Warehouse is the metrics source: a single fixed projection over a named
// error table. Implementations must release any per-call resources on all
// exit paths, including query failure.
type Warehouse interface {
	QueryKeypointErrors(ctx context.Context, table string) ([]models.KeypointError, error)
	TestConnection(ctx context.Context) error
	Close() error
}
