package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ReportResponse is returned by POST /api/v1/reports
type ReportResponse struct {
	Status   string         `json:"status"`
	Artifact ReportArtifact `json:"artifact"`
}

// SearchResponse is returned by GET /api/v1/reports/search
type SearchResponse struct {
	Status  string           `json:"status"`
	Total   int64            `json:"total"`
	Reports []ReportDocument `json:"reports"`
}
