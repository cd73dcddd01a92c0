package models

import "time"

// KeypointError is one row of the warehouse projection: a tracked anatomical
// landmark and its root-mean-square error against the reference motion.
type KeypointError struct {
	Name string  `json:"keypoint_name"`
	RMSE float64 `json:"rmse"`
}

// MetricsSummary is the reshaped per-session view of the error table.
// PositionalRMSE holds 3D position errors keyed by keypoint name; the two
// joint-angle errors are pulled out by exact name match.
type MetricsSummary struct {
	PositionalRMSE        map[string]float64 `json:"positional_rmse"`
	KneeAngleRMSE         float64            `json:"knee_angle_rmse"`
	HipAbductionAngleRMSE float64            `json:"hip_abduction_angle_rmse"`
}

// PatientInfo carries the demographics interpolated into the prompt.
type PatientInfo struct {
	Age      int     `json:"age"`
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
}

// ReportStep is one explanation/suggestion pair of the chain-of-thought output.
type ReportStep struct {
	Explanation string `json:"explanation"`
	Suggestion  string `json:"suggestion"`
}

// ChainOfThoughtReport is the schema-constrained LLM output: ordered reasoning
// steps followed by the final report text.
type ChainOfThoughtReport struct {
	Steps       []ReportStep `json:"steps"`
	FinalReport string       `json:"final_report"`
}

// ReportArtifact is the result of one report generation: the prompt that was
// sent, the decoded report, its serialized form as uploaded, and where it went.
type ReportArtifact struct {
	Prompt     string               `json:"prompt"`
	Report     ChainOfThoughtReport `json:"report"`
	ReportJSON string               `json:"report_json"`
	StorageURI string               `json:"storage_uri"`
}

// ReportDocument is the searchable record indexed after a successful upload.
type ReportDocument struct {
	ID                    string    `json:"id"`
	StorageURI            string    `json:"storage_uri"`
	PatientAge            int       `json:"patient_age"`
	PatientHeightCM       float64   `json:"patient_height_cm"`
	PatientWeightKG       float64   `json:"patient_weight_kg"`
	KneeAngleRMSE         float64   `json:"knee_angle_rmse"`
	HipAbductionAngleRMSE float64   `json:"hip_abduction_angle_rmse"`
	FinalReport           string    `json:"final_report"`
	CreatedAt             time.Time `json:"created_at"`
}
