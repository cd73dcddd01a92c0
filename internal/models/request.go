package models

import "fmt"

// ReportRequest for POST /api/v1/reports
type ReportRequest struct {
	Patient      PatientInfo `json:"patient"`
	MetricsTable string      `json:"metrics_table"`
	AnimationURL string      `json:"animation_url"`
	Bucket       string      `json:"bucket,omitempty"`
	ReportPath   string      `json:"report_path,omitempty"`
}

func (r *ReportRequest) SetDefaults(defaultBucket string) {
	if r.Bucket == "" {
		r.Bucket = defaultBucket
	}
}

func (r *ReportRequest) Validate() error {
	if r.MetricsTable == "" {
		return fmt.Errorf("metrics_table is required")
	}
	if r.AnimationURL == "" {
		return fmt.Errorf("animation_url is required")
	}
	if r.Bucket == "" {
		return fmt.Errorf("bucket is required (no default bucket configured)")
	}
	if r.ReportPath == "" {
		return fmt.Errorf("report_path is required")
	}
	if r.Patient.Age <= 0 {
		return fmt.Errorf("patient.age must be positive")
	}
	return nil
}
