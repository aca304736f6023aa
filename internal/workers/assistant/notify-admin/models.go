// internal/workers/assistant/notify-admin/models.go
package notifyadmin

// Kind selects which notification template is rendered.
type Kind string

const (
	KindBulkJobCompleted Kind = "bulk_job_completed"
	KindCommandFailed    Kind = "command_failed"
)

type Input struct {
	Kind       Kind   `json:"kind"`
	AdminEmail string `json:"adminEmail,omitempty"`
	JobID      string `json:"jobId,omitempty"`
	Intent     string `json:"intent,omitempty"`
	Summary    string `json:"summary"`
	Detail     string `json:"detail,omitempty"`
}

type Output struct {
	Success      bool   `json:"success"`
	EmailSent    bool   `json:"emailSent"`
	TopicNotified bool   `json:"topicNotified"`
	MessageID    string `json:"messageId,omitempty"`
}
