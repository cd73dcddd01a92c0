package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/physioai/physioai/internal/models"
)

// PostgresWarehouse serves the same projection from a Postgres table. Used for
// local and dev deployments where standing up BigQuery is overkill.
type PostgresWarehouse struct {
	pool *pgxpool.Pool
}

func NewPostgresWarehouse(ctx context.Context, dsn string) (*PostgresWarehouse, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	return &PostgresWarehouse{pool: pool}, nil
}

func (w *PostgresWarehouse) Close() error {
	w.pool.Close()
	return nil
}

func (w *PostgresWarehouse) TestConnection(ctx context.Context) error {
	return w.pool.Ping(ctx)
}

// QueryKeypointErrors runs the fixed projection. The pool connection and row
// set are released on every path via rows.Close.
func (w *PostgresWarehouse) QueryKeypointErrors(ctx context.Context, table string) ([]models.KeypointError, error) {
	sql := fmt.Sprintf("SELECT keypoint_name, rmse FROM %s", pgx.Identifier{table}.Sanitize())

	rows, err := w.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.KeypointError
	for rows.Next() {
		var ke models.KeypointError
		if err := rows.Scan(&ke.Name, &ke.RMSE); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, ke)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return out, nil
}
