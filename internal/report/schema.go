package report

// SchemaName identifies the structured output contract on the inference side.
const SchemaName = "physio_feedback"

// SchemaDescription tells the model what the structured output carries.
const SchemaDescription = "Record the chain-of-thought physiotherapy feedback: ordered reasoning steps followed by the final report."

// Schema is the strict output contract enforced by the inference endpoint:
// ordered {explanation, suggestion} steps and a single final_report string,
// no additional properties.
func Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"steps": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"explanation": map[string]interface{}{"type": "string"},
						"suggestion":  map[string]interface{}{"type": "string"},
					},
					"required":             []string{"explanation", "suggestion"},
					"additionalProperties": false,
				},
			},
			"final_report": map[string]interface{}{"type": "string"},
		},
		"required":             []string{"steps", "final_report"},
		"additionalProperties": false,
	}
}
