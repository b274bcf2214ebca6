package model

import (
	"strings"
	"time"
)

// Student is a roster record. Rows are written only by the import tool;
// the portal treats the roster as read-only.
type Student struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BirthDate   string    `json:"birthDate"` // YYYY-MM-DD, doubles as the login credential
	Phone       *string   `json:"phone,omitempty"`
	CurrentBelt *string   `json:"currentBelt,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StudentProfile is the sanitized view returned to authenticated callers.
// Birth date and phone are never echoed. An unset belt stays null.
type StudentProfile struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CurrentBelt *string `json:"currentBelt"`
}

// Profile builds the sanitized view of a student.
func (s *Student) Profile() StudentProfile {
	return StudentProfile{
		ID:          s.ID,
		Name:        s.Name,
		CurrentBelt: s.CurrentBelt,
	}
}

// NormalizeStudentID canonicalizes a student id for matching and storage
// keys. Every store boundary goes through this one function so lookup
// paths cannot drift.
func NormalizeStudentID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
