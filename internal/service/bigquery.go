package service

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/physioai/physioai/internal/models"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQueryWarehouse reads keypoint error tables through the BigQuery SDK.
type BigQueryWarehouse struct {
	client    *bigquery.Client
	projectID string
	location  string
}

// NewBigQueryWarehouse creates a new BigQuery client
func NewBigQueryWarehouse(ctx context.Context, projectID, credentialsFile, location string) (*BigQueryWarehouse, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("bigquery.NewClient: %w", err)
	}

	return &BigQueryWarehouse{
		client:    client,
		projectID: projectID,
		location:  location,
	}, nil
}

// Close releases the BigQuery client
func (w *BigQueryWarehouse) Close() error {
	return w.client.Close()
}

// TestConnection verifies BigQuery connectivity
func (w *BigQueryWarehouse) TestConnection(ctx context.Context) error {
	q := w.client.Query("SELECT 1")
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("job wait: %w", err)
	}
	return status.Err()
}

// QueryKeypointErrors runs the fixed projection over the named error table.
// The table identifier is backtick-quoted; everything else about the query is
// constant.
func (w *BigQueryWarehouse) QueryKeypointErrors(ctx context.Context, table string) ([]models.KeypointError, error) {
	q := w.client.Query(fmt.Sprintf("SELECT KEYPOINT_NAME, RMSE FROM `%s`", table))
	if w.location != "" {
		q.Location = w.location
	}

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("job wait: %w", err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("job read: %w", err)
	}

	var rows []models.KeypointError
	for {
		var row struct {
			KeypointName string  `bigquery:"KEYPOINT_NAME"`
			RMSE         float64 `bigquery:"RMSE"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, models.KeypointError{Name: row.KeypointName, RMSE: row.RMSE})
	}

	return rows, nil
}
