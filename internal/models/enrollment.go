// internal/models/enrollment.go
package models

// Enrollment ties a user to a course, learning plan or ILT session.
type Enrollment struct {
	UserID         string `json:"userId"`
	Email          string `json:"email,omitempty"`
	ResourceType   string `json:"resourceType"` // course, learning_plan, ilt_session
	ResourceID     string `json:"resourceId"`
	ResourceName   string `json:"resourceName,omitempty"`
	AssignmentType string `json:"assignmentType,omitempty"`
	StartValidity  string `json:"startValidity,omitempty"` // YYYY-MM-DD
	EndValidity    string `json:"endValidity,omitempty"`   // YYYY-MM-DD
	Status         string `json:"status,omitempty"`
	CompletionPct  int    `json:"completionPct,omitempty"`
}
