// internal/models/catalog.go
package models

// Course is a self-paced course in the catalog.
type Course struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Published   bool   `json:"published"`
}

// LearningPlan groups courses into a curriculum.
type LearningPlan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CourseIDs   []string `json:"courseIds,omitempty"`
}

// ILTSession is an instructor-led training event, distinct from self-paced
// courses.
type ILTSession struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CourseID   string `json:"courseId,omitempty"`
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Location   string `json:"location,omitempty"`
	Instructor string `json:"instructor,omitempty"`
	Capacity   int    `json:"capacity,omitempty"`
}
