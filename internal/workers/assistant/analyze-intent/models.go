// internal/workers/assistant/analyze-intent/models.go
package analyzeintent

import "lms-assistant/internal/nlu"

type Input struct {
	Message    string                 `json:"message"`
	AdminEmail string                 `json:"adminEmail"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

type Output struct {
	Intent     string       `json:"intent"`
	Entities   nlu.Entities `json:"entities"`
	Confidence float64      `json:"confidence"`

	// Source records which engine produced the classification:
	// "rules" for the deterministic resolver, "genai" for the fallback.
	Source string `json:"source"`
}
