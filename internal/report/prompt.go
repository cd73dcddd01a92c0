package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/physioai/physioai/internal/models"
)

// SystemPrompt is the persona sent with every report generation.
const SystemPrompt = "You are an expert physiotherapist providing AI-driven motion correction insights."

const promptHeader = `You are an AI physiotherapy assistant. Your task is to analyze a patient's movement based on RMSE metrics,
patient information, and an overlay skeleton animation. Use logical reasoning and a step-by-step chain-of-thought approach to provide corrective feedback and suggestions.`

const promptAnalysis = `**Step-by-Step Analysis:**
1. Identify which keypoints have the highest RMSE values and explain their implications.
2. Correlate these values with common physiotherapy movement errors.
3. Provide explanations for these errors based on biomechanics.
4. Suggest specific corrective actions the patient can take.
5. Adjust your recommendations based on the patient's demographics.

**Feedback Report:**
Provide a detailed, structured report using the above reasoning.`

// BuildPrompt renders the reasoning prompt. Output is byte-identical for
// identical inputs: positional RMSE values are formatted to 4 decimal places
// in keypoint-name order, angle RMSE values to 2 decimal places with a degree
// unit, patient numbers interpolated without rounding.
func BuildPrompt(patient models.PatientInfo, m models.MetricsSummary) string {
	names := make([]string, 0, len(m.PositionalRMSE))
	for name := range m.PositionalRMSE {
		names = append(names, name)
	}
	sort.Strings(names)

	positional := make([]string, 0, len(names))
	for _, name := range names {
		positional = append(positional, fmt.Sprintf("%s: %.4f", name, m.PositionalRMSE[name]))
	}

	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n**Patient Information:**\n")
	fmt.Fprintf(&b, "- Age: %d years\n", patient.Age)
	fmt.Fprintf(&b, "- Height: %v cm\n", patient.HeightCM)
	fmt.Fprintf(&b, "- Weight: %v kg\n", patient.WeightKG)
	b.WriteString("\n**3D RMSE for Selected Keypoints:**\n")
	b.WriteString(strings.Join(positional, ", "))
	b.WriteString("\n\n**Angle RMSE:**\n")
	fmt.Fprintf(&b, "- Knee Angle RMSE: %.2f°\n", m.KneeAngleRMSE)
	fmt.Fprintf(&b, "- Hip Abduction Angle RMSE: %.2f°\n", m.HipAbductionAngleRMSE)
	b.WriteString("\n**Overlay Skeleton Animation:**\n")
	b.WriteString("The animation is provided as an image input below.\n\n")
	b.WriteString(promptAnalysis)
	return b.String()
}
