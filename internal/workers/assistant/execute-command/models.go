// internal/workers/assistant/execute-command/models.go
package executecommand

import (
	"lms-assistant/internal/jobs"
	"lms-assistant/internal/models"
	"lms-assistant/internal/nlu"
)

type Input struct {
	Intent     string       `json:"intent"`
	Entities   nlu.Entities `json:"entities"`
	AdminEmail string       `json:"adminEmail"`
	Message    string       `json:"message,omitempty"`

	// Prior carries the previous resolved command so load_more_results
	// can re-run it at the next offset.
	Prior *PriorCommand `json:"prior,omitempty"`
}

type PriorCommand struct {
	Intent   string       `json:"intent"`
	Entities nlu.Entities `json:"entities"`
}

type Output struct {
	Intent  string `json:"intent"`
	Success bool   `json:"success"`

	User         *models.User        `json:"user,omitempty"`
	Course       *models.Course      `json:"course,omitempty"`
	LearningPlan *models.LearningPlan `json:"learningPlan,omitempty"`
	Session      *models.ILTSession  `json:"session,omitempty"`
	Enrollments  []models.Enrollment `json:"enrollments,omitempty"`
	Job          *jobs.Job           `json:"job,omitempty"`
	Jobs         []jobs.Job          `json:"jobs,omitempty"`

	// NextOffset is set when an enrollment listing may have more pages.
	NextOffset *int `json:"nextOffset,omitempty"`

	Summary string `json:"summary,omitempty"`
}
