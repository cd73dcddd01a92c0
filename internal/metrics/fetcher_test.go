package metrics_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/physioai/physioai/internal/metrics"
	"github.com/physioai/physioai/internal/models"
)

type fakeWarehouse struct {
	rows []models.KeypointError
	err  error
}

func (f *fakeWarehouse) QueryKeypointErrors(ctx context.Context, table string) ([]models.KeypointError, error) {
	return f.rows, f.err
}

func (f *fakeWarehouse) TestConnection(ctx context.Context) error { return nil }
func (f *fakeWarehouse) Close() error                             { return nil }

func TestFetch_ReshapesRows(t *testing.T) {
	wh := &fakeWarehouse{rows: []models.KeypointError{
		{Name: "KNEE_ANGLE", RMSE: 5.123},
		{Name: "HIP_ABDUCTION_ANGLE", RMSE: 3.456},
		{Name: "LEFT_WRIST", RMSE: 0.0812},
	}}

	summary, err := metrics.Fetch(context.Background(), wh, "RMSE_RESULTS")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(summary.PositionalRMSE) != 1 {
		t.Fatalf("positional map size = %d, want 1", len(summary.PositionalRMSE))
	}
	if got := summary.PositionalRMSE["LEFT_WRIST"]; got != 0.0812 {
		t.Errorf("LEFT_WRIST = %v, want 0.0812", got)
	}
	if summary.KneeAngleRMSE != 5.123 {
		t.Errorf("KneeAngleRMSE = %v, want 5.123", summary.KneeAngleRMSE)
	}
	if summary.HipAbductionAngleRMSE != 3.456 {
		t.Errorf("HipAbductionAngleRMSE = %v, want 3.456", summary.HipAbductionAngleRMSE)
	}
}

func TestSummarize_ExcludesAngleRows(t *testing.T) {
	rows := []models.KeypointError{
		{Name: "KNEE_ANGLE", RMSE: 1},
		{Name: "HIP_ABDUCTION_ANGLE", RMSE: 2},
		{Name: "LEFT_ELBOW_ANGLE", RMSE: 9.9},
		{Name: "LEFT_WRIST", RMSE: 0.1},
		{Name: "RIGHT_ANKLE", RMSE: 0.2},
	}

	summary, err := metrics.Summarize(rows)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	for name := range summary.PositionalRMSE {
		if name == "KNEE_ANGLE" || name == "HIP_ABDUCTION_ANGLE" || name == "LEFT_ELBOW_ANGLE" {
			t.Errorf("angle row %q leaked into positional map", name)
		}
	}
	if len(summary.PositionalRMSE) != 2 {
		t.Errorf("positional map size = %d, want 2", len(summary.PositionalRMSE))
	}
}

func TestSummarize_MissingHipAbduction(t *testing.T) {
	rows := []models.KeypointError{
		{Name: "KNEE_ANGLE", RMSE: 5.0},
		{Name: "LEFT_WRIST", RMSE: 0.1},
	}

	_, err := metrics.Summarize(rows)
	if !errors.Is(err, metrics.ErrMetricNotFound) {
		t.Fatalf("err = %v, want ErrMetricNotFound", err)
	}
}

func TestSummarize_MissingKnee(t *testing.T) {
	rows := []models.KeypointError{
		{Name: "HIP_ABDUCTION_ANGLE", RMSE: 3.0},
	}

	_, err := metrics.Summarize(rows)
	if !errors.Is(err, metrics.ErrMetricNotFound) {
		t.Fatalf("err = %v, want ErrMetricNotFound", err)
	}
}

func TestSummarize_DuplicateNamedMetric(t *testing.T) {
	rows := []models.KeypointError{
		{Name: "KNEE_ANGLE", RMSE: 5.0},
		{Name: "KNEE_ANGLE", RMSE: 6.0},
		{Name: "HIP_ABDUCTION_ANGLE", RMSE: 3.0},
	}

	_, err := metrics.Summarize(rows)
	if !errors.Is(err, metrics.ErrAmbiguousMetric) {
		t.Fatalf("err = %v, want ErrAmbiguousMetric", err)
	}
}

func TestFetch_QueryErrorPropagates(t *testing.T) {
	queryErr := fmt.Errorf("connection refused")
	wh := &fakeWarehouse{err: queryErr}

	_, err := metrics.Fetch(context.Background(), wh, "RMSE_RESULTS")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, queryErr) {
		t.Errorf("err = %v, want wrapped %v", err, queryErr)
	}
}
