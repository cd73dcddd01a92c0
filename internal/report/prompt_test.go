package report_test

import (
	"strings"
	"testing"

	"github.com/physioai/physioai/internal/models"
	"github.com/physioai/physioai/internal/report"
)

func testSummary() models.MetricsSummary {
	return models.MetricsSummary{
		PositionalRMSE: map[string]float64{
			"LEFT_WRIST":  0.0812,
			"RIGHT_ANKLE": 0.25,
			"LEFT_HIP":    0.033333,
		},
		KneeAngleRMSE:         5.123,
		HipAbductionAngleRMSE: 3.456,
	}
}

func testPatient() models.PatientInfo {
	return models.PatientInfo{Age: 34, HeightCM: 178.5, WeightKG: 82}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	first := report.BuildPrompt(testPatient(), testSummary())
	// map iteration order must not leak into the prompt
	for i := 0; i < 20; i++ {
		if got := report.BuildPrompt(testPatient(), testSummary()); got != first {
			t.Fatalf("prompt differs on run %d:\n%s\n---\n%s", i, first, got)
		}
	}
}

func TestBuildPrompt_Formatting(t *testing.T) {
	prompt := report.BuildPrompt(testPatient(), testSummary())

	for _, want := range []string{
		"- Age: 34 years",
		"- Height: 178.5 cm",
		"- Weight: 82 kg",
		"LEFT_WRIST: 0.0812",
		"RIGHT_ANKLE: 0.2500",
		"LEFT_HIP: 0.0333",
		"- Knee Angle RMSE: 5.12\u00b0",
		"- Hip Abduction Angle RMSE: 3.46\u00b0",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_ReasoningSteps(t *testing.T) {
	prompt := report.BuildPrompt(testPatient(), testSummary())

	for _, want := range []string{
		"1. Identify which keypoints have the highest RMSE values",
		"2. Correlate these values with common physiotherapy movement errors.",
		"3. Provide explanations for these errors based on biomechanics.",
		"4. Suggest specific corrective actions the patient can take.",
		"5. Adjust your recommendations based on the patient's demographics.",
		"The animation is provided as an image input below.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_PositionalOrderSorted(t *testing.T) {
	prompt := report.BuildPrompt(testPatient(), testSummary())

	hip := strings.Index(prompt, "LEFT_HIP:")
	wrist := strings.Index(prompt, "LEFT_WRIST:")
	ankle := strings.Index(prompt, "RIGHT_ANKLE:")
	if hip == -1 || wrist == -1 || ankle == -1 {
		t.Fatal("positional entries missing from prompt")
	}
	if !(hip < wrist && wrist < ankle) {
		t.Errorf("positional entries not in sorted order: hip=%d wrist=%d ankle=%d", hip, wrist, ankle)
	}
}
