package repository

import (
	"context"

	"github.com/aramartialarts/portal-backend/internal/model"
)

// ProgressRepository handles belt progress data access. Rows are keyed by
// (student_id, belt_slug); student ids are stored normalized.
type ProgressRepository struct {
	db DB
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(db DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListByStudent returns all progress rows for a student, ascending by
// uploaded_at. An empty slice is a valid result.
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID string) ([]model.BeltProgress, error) {
	rows, err := r.db.Query(ctx,
		`SELECT student_id, belt_slug, file_name, uploaded_at, created_at
		 FROM belt_progress
		 WHERE student_id = $1
		 ORDER BY uploaded_at ASC`,
		model.NormalizeStudentID(studentID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.BeltProgress
	for rows.Next() {
		var p model.BeltProgress
		if err := rows.Scan(&p.StudentID, &p.BeltSlug, &p.FileName, &p.UploadedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

// Upsert inserts or replaces the unique (student, belt) row in one atomic
// statement, so concurrent submissions for the same key cannot interleave.
// created_at is refreshed on every call: it records the last write time,
// not the first.
func (r *ProgressRepository) Upsert(ctx context.Context, rec *model.BeltProgress) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO belt_progress (student_id, belt_slug, file_name, uploaded_at, created_at)
		 VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		 ON CONFLICT (student_id, belt_slug) DO UPDATE
		 SET file_name = EXCLUDED.file_name,
		     uploaded_at = EXCLUDED.uploaded_at,
		     created_at = EXCLUDED.created_at
		 RETURNING created_at`,
		model.NormalizeStudentID(rec.StudentID), rec.BeltSlug, rec.FileName, rec.UploadedAt,
	).Scan(&rec.CreatedAt)
}
