package model

import "time"

// Default action/actor values for journal rows.
const (
	ActionLogin  = "login"
	ActorStudent = "student"
)

// LoginEvent is an append-only audit row. Rows are never updated or
// deleted by the service.
type LoginEvent struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"studentId"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventView is the wire shape of an event in the admin activity report.
type EventView struct {
	StudentID  string    `json:"studentId"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	RecordedAt time.Time `json:"recordedAt"`
}

// View converts a stored event to its report shape.
func (e *LoginEvent) View() EventView {
	return EventView{
		StudentID:  e.StudentID,
		Action:     e.Action,
		Actor:      e.Actor,
		RecordedAt: e.CreatedAt,
	}
}

// StudentActivitySummary aggregates a student's journal and progress for
// the admin report.
type StudentActivitySummary struct {
	StudentID            string     `json:"studentId"`
	TotalEvents          int        `json:"totalEvents"`
	LoginEvents          int        `json:"loginEvents"`
	LastEventAt          time.Time  `json:"lastEventAt"`
	LatestBelt           *string    `json:"latestBelt"`
	LatestBeltUploadedAt *time.Time `json:"latestBeltUploadedAt"`
}

// LoginEventRequest is the payload for POST /portal/login-event.
// BirthDate is required only when the action is "login"; the service
// enforces that branch.
type LoginEventRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	BirthDate string `json:"birthDate"`
}
