package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/physioai/physioai/internal/models"
	"github.com/physioai/physioai/internal/service"
)

const version = "1.0.0"

// HealthHandler handles GET /health with dependency checks
type HealthHandler struct {
	warehouse service.Warehouse
	index     *service.ReportIndex
}

func NewHealthHandler(warehouse service.Warehouse, index *service.ReportIndex) *HealthHandler {
	return &HealthHandler{warehouse: warehouse, index: index}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	// Short timeout so a hung dependency doesn't block the probe
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.warehouse != nil {
		if err := h.warehouse.TestConnection(ctx); err != nil {
			checks["warehouse"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["warehouse"] = "ok"
		}
	} else {
		checks["warehouse"] = "disabled"
	}

	if h.index != nil {
		if err := h.index.TestConnection(ctx); err != nil {
			checks["elasticsearch"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["elasticsearch"] = "ok"
		}
	} else {
		checks["elasticsearch"] = "disabled"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}
