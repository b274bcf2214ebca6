package repository

import (
	"context"
	"errors"

	"github.com/aramartialarts/portal-backend/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// StudentStore reads roster records. The portal never writes students;
// only the import tool does.
type StudentStore interface {
	// FindByID matches the id case-insensitively.
	FindByID(ctx context.Context, id string) (*model.Student, error)
}

// ProgressStore reads and writes belt progress rows.
type ProgressStore interface {
	// ListByStudent returns rows ascending by uploaded_at.
	ListByStudent(ctx context.Context, studentID string) ([]model.BeltProgress, error)
	// Upsert inserts or atomically replaces the (student, belt) row.
	// created_at is refreshed to the write time on every call.
	Upsert(ctx context.Context, rec *model.BeltProgress) error
}

// EventStore appends and aggregates the login journal.
type EventStore interface {
	Append(ctx context.Context, ev *model.LoginEvent) error
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.LoginEvent, error)
	// SummarizeByStudent aggregates the journal per student, ordered by
	// most recent activity.
	SummarizeByStudent(ctx context.Context) ([]model.StudentActivitySummary, error)
}

// Stores bundles all stores plus transactional execution. InTx runs fn
// against tx-bound stores; every write inside fn commits or rolls back as
// one unit.
type Stores interface {
	Students() StudentStore
	Progress() ProgressStore
	Events() EventStore
	InTx(ctx context.Context, fn func(Stores) error) error
}
