// internal/nlu/entities.go
package nlu

// ResourceType identifies the kind of LMS object a command targets.
type ResourceType string

const (
	ResourceCourse       ResourceType = "course"
	ResourceLearningPlan ResourceType = "learning_plan"
	ResourceILTSession   ResourceType = "ilt_session"
)

// Action is the canonical operation carried by an enrollment-style command.
type Action string

const (
	ActionEnroll         Action = "enroll"
	ActionUnenroll       Action = "unenroll"
	ActionBulkEnroll     Action = "bulk_enroll"
	ActionBulkUnenroll   Action = "bulk_unenroll"
	ActionMarkAttendance Action = "mark_attendance"
)

// AssignmentType classifies enrollment priority.
type AssignmentType string

const (
	AssignmentMandatory   AssignmentType = "mandatory"
	AssignmentRequired    AssignmentType = "required"
	AssignmentRecommended AssignmentType = "recommended"
	AssignmentOptional    AssignmentType = "optional"
)

// Entities is the sparse bag of structured values extracted from a message.
// Only the fields meaningful to the matched intent are populated; everything
// else stays at its zero value and is omitted from JSON.
type Entities struct {
	Email            string         `json:"email,omitempty"`
	Emails           []string       `json:"emails,omitempty"`
	UserID           string         `json:"userId,omitempty"`
	CourseID         string         `json:"courseId,omitempty"`
	CourseName       string         `json:"courseName,omitempty"`
	LearningPlanName string         `json:"learningPlanName,omitempty"`
	SessionID        string         `json:"sessionId,omitempty"`
	SessionName      string         `json:"sessionName,omitempty"`
	SessionDate      string         `json:"sessionDate,omitempty"`
	ResourceType     ResourceType   `json:"resourceType,omitempty"`
	Action           Action         `json:"action,omitempty"`
	AssignmentType   AssignmentType `json:"assignmentType,omitempty"`
	StartValidity    string         `json:"startValidity,omitempty"`
	EndValidity      string         `json:"endValidity,omitempty"`
	TeamName         string         `json:"teamName,omitempty"`
	SearchTerm       string         `json:"searchTerm,omitempty"`
	JobID            string         `json:"jobId,omitempty"`
	Offset           *int           `json:"offset,omitempty"`
	LoadMore         bool           `json:"loadMore,omitempty"`
	IsBulk           bool           `json:"isBulk,omitempty"`
}

// IsEmpty reports whether no entity field was populated.
func (e Entities) IsEmpty() bool {
	return e.Email == "" &&
		len(e.Emails) == 0 &&
		e.UserID == "" &&
		e.CourseID == "" &&
		e.CourseName == "" &&
		e.LearningPlanName == "" &&
		e.SessionID == "" &&
		e.SessionName == "" &&
		e.SessionDate == "" &&
		e.ResourceType == "" &&
		e.Action == "" &&
		e.AssignmentType == "" &&
		e.StartValidity == "" &&
		e.EndValidity == "" &&
		e.TeamName == "" &&
		e.SearchTerm == "" &&
		e.JobID == "" &&
		e.Offset == nil &&
		!e.LoadMore &&
		!e.IsBulk
}

// Result is what Analyze returns for a single message.
type Result struct {
	Intent     string   `json:"intent"`
	Entities   Entities `json:"entities"`
	Confidence float64  `json:"confidence"`
}
