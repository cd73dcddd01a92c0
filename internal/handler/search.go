package handler

import (
	"net/http"
	"strconv"

	"github.com/physioai/physioai/internal/models"
	"github.com/physioai/physioai/internal/service"
)

const defaultSearchSize = 20

// SearchHandler serves past-report lookups from the Elasticsearch index.
type SearchHandler struct {
	index *service.ReportIndex
}

func NewSearchHandler(index *service.ReportIndex) *SearchHandler {
	return &SearchHandler{index: index}
}

// Search handles GET /api/v1/reports/search?q=&size=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	size := defaultSearchSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			models.WriteError(w, http.StatusBadRequest, "size must be an integer between 1 and 100")
			return
		}
		size = n
	}

	total, docs, err := h.index.Search(r.Context(), q, size)
	if err != nil {
		models.WriteError(w, http.StatusBadGateway, "report search failed: "+err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, models.SearchResponse{
		Status:  "success",
		Total:   total,
		Reports: docs,
	})
}
