package repository

import (
	"context"

	"github.com/aramartialarts/portal-backend/internal/model"
)

// EventRepository handles the append-only login journal.
type EventRepository struct {
	db DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append writes one journal row. Errors always surface to the caller;
// a lost audit row is never acceptable.
func (r *EventRepository) Append(ctx context.Context, ev *model.LoginEvent) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO login_events (student_id, action, actor, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		model.NormalizeStudentID(ev.StudentID), ev.Action, ev.Actor, ev.CreatedAt,
	).Scan(&ev.ID)
}

// ListRecent returns up to limit events, newest first. The id tie-break
// keeps ordering stable for rows sharing a timestamp.
func (r *EventRepository) ListRecent(ctx context.Context, limit int) ([]model.LoginEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, student_id, action, actor, created_at
		 FROM login_events
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.LoginEvent
	for rows.Next() {
		var ev model.LoginEvent
		if err := rows.Scan(&ev.ID, &ev.StudentID, &ev.Action, &ev.Actor, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SummarizeByStudent aggregates the journal per student: total events,
// login-action events, latest event time, and the most recently uploaded
// belt for that student, ordered by most recent activity.
func (r *EventRepository) SummarizeByStudent(ctx context.Context) ([]model.StudentActivitySummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT
		     le.student_id,
		     COUNT(*) AS total_events,
		     COUNT(*) FILTER (WHERE le.action = 'login') AS login_events,
		     MAX(le.created_at) AS last_event,
		     (SELECT bp.belt_slug FROM belt_progress bp
		      WHERE bp.student_id = le.student_id
		      ORDER BY bp.uploaded_at DESC LIMIT 1) AS latest_belt,
		     (SELECT bp.uploaded_at FROM belt_progress bp
		      WHERE bp.student_id = le.student_id
		      ORDER BY bp.uploaded_at DESC LIMIT 1) AS latest_belt_uploaded
		 FROM login_events le
		 GROUP BY le.student_id
		 ORDER BY last_event DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.StudentActivitySummary
	for rows.Next() {
		var s model.StudentActivitySummary
		if err := rows.Scan(&s.StudentID, &s.TotalEvents, &s.LoginEvents, &s.LastEventAt, &s.LatestBelt, &s.LatestBeltUploadedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
