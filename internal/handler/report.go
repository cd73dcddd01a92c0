package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/physioai/physioai/internal/metrics"
	"github.com/physioai/physioai/internal/models"
	"github.com/physioai/physioai/internal/report"
	"github.com/physioai/physioai/internal/service"
	"github.com/rs/zerolog/log"
)

// ReportHandler runs the fetch-metrics → generate-report pipeline for one
// patient/session per request.
type ReportHandler struct {
	warehouse     service.Warehouse
	generator     *report.Generator
	defaultBucket string
}

func NewReportHandler(warehouse service.Warehouse, generator *report.Generator, defaultBucket string) *ReportHandler {
	return &ReportHandler{
		warehouse:     warehouse,
		generator:     generator,
		defaultBucket: defaultBucket,
	}
}

// Generate handles POST /api/v1/reports
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults(h.defaultBucket)
	if err := req.Validate(); err != nil {
		models.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()

	summary, err := metrics.Fetch(r.Context(), h.warehouse, req.MetricsTable)
	if err != nil {
		if errors.Is(err, metrics.ErrMetricNotFound) || errors.Is(err, metrics.ErrAmbiguousMetric) {
			models.WriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		models.WriteError(w, http.StatusBadGateway, "metrics fetch failed: "+err.Error())
		return
	}

	artifact, err := h.generator.Generate(r.Context(), req.Patient, summary, req.AnimationURL, req.Bucket, req.ReportPath)
	if err != nil {
		models.WriteError(w, http.StatusBadGateway, "report generation failed: "+err.Error())
		return
	}

	log.Info().
		Str("table", req.MetricsTable).
		Str("storage_uri", artifact.StorageURI).
		Dur("duration", time.Since(start)).
		Msg("report generated")

	models.WriteJSON(w, http.StatusOK, models.ReportResponse{
		Status:   "success",
		Artifact: *artifact,
	})
}
