// internal/models/user.go
package models

// User is a learner or admin account on the LMS platform.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Status    string `json:"status,omitempty"`
	Team      string `json:"team,omitempty"`
}
