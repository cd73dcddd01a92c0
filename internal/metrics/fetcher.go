// Package metrics reshapes the warehouse's flat (KEYPOINT_NAME, RMSE) rows
// into the per-session summary the report generator consumes.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/physioai/physioai/internal/models"
	"github.com/physioai/physioai/internal/service"
)

// Keypoint names holding joint-angle errors. Any name containing angleMarker
// is excluded from the positional map; these two are extracted by exact match.
const (
	KeypointKneeAngle         = "KNEE_ANGLE"
	KeypointHipAbductionAngle = "HIP_ABDUCTION_ANGLE"

	angleMarker = "ANGLE"
)

var (
	// ErrMetricNotFound means a required named angle metric had no row.
	ErrMetricNotFound = errors.New("named metric not found")
	// ErrAmbiguousMetric means a required named angle metric had more than
	// one row. The source table is supposed to carry exactly one per session;
	// silently picking one would hide a broken upstream write.
	ErrAmbiguousMetric = errors.New("multiple rows for named metric")
)

// Fetch runs the fixed error-table projection and reshapes the rows into a
// MetricsSummary. Positional errors are every keypoint whose name does not
// mark an angle measurement; the knee and hip-abduction angle errors must
// each resolve to exactly one row.
func Fetch(ctx context.Context, wh service.Warehouse, table string) (models.MetricsSummary, error) {
	rows, err := wh.QueryKeypointErrors(ctx, table)
	if err != nil {
		return models.MetricsSummary{}, fmt.Errorf("fetch metrics from %s: %w", table, err)
	}
	return Summarize(rows)
}

// Summarize reshapes projection rows into a MetricsSummary.
func Summarize(rows []models.KeypointError) (models.MetricsSummary, error) {
	positional := make(map[string]float64)
	for _, row := range rows {
		if strings.Contains(row.Name, angleMarker) {
			continue
		}
		positional[row.Name] = row.RMSE
	}

	knee, err := namedMetric(rows, KeypointKneeAngle)
	if err != nil {
		return models.MetricsSummary{}, err
	}
	hip, err := namedMetric(rows, KeypointHipAbductionAngle)
	if err != nil {
		return models.MetricsSummary{}, err
	}

	return models.MetricsSummary{
		PositionalRMSE:        positional,
		KneeAngleRMSE:         knee,
		HipAbductionAngleRMSE: hip,
	}, nil
}

func namedMetric(rows []models.KeypointError, name string) (float64, error) {
	var value float64
	matches := 0
	for _, row := range rows {
		if row.Name == name {
			if matches == 0 {
				value = row.RMSE
			}
			matches++
		}
	}
	switch {
	case matches == 0:
		return 0, fmt.Errorf("%w: %s", ErrMetricNotFound, name)
	case matches > 1:
		return 0, fmt.Errorf("%w: %s (%d rows)", ErrAmbiguousMetric, name, matches)
	}
	return value, nil
}
