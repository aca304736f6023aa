// internal/workers/assistant/bulk-enrollment/models.go
package bulkenrollment

import "lms-assistant/internal/nlu"

type Input struct {
	Intent     string       `json:"intent"`
	Entities   nlu.Entities `json:"entities"`
	AdminEmail string       `json:"adminEmail"`
}

type Output struct {
	JobID     string   `json:"jobId"`
	Status    string   `json:"status"`
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
