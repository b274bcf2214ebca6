package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/aramartialarts/portal-backend/internal/model"
)

// StudentRepository handles roster data access.
type StudentRepository struct {
	db DB
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID retrieves a student by their opaque id, matched
// case-insensitively. Returns ErrNotFound when no row matches.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*model.Student, error) {
	s := &model.Student{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, birth_date, phone, current_belt, created_at, updated_at
		 FROM students WHERE LOWER(id) = $1`,
		model.NormalizeStudentID(id),
	).Scan(&s.ID, &s.Name, &s.BirthDate, &s.Phone, &s.CurrentBelt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// Upsert inserts or updates a roster record. Ids are stored with their
// original casing; the conflict target is the case-insensitive unique
// index so "ARA001" and "ara001" resolve to the same row. Used by the
// import tool only.
func (r *StudentRepository) Upsert(ctx context.Context, s *model.Student) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO students (id, name, birth_date, phone, current_belt)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT ((LOWER(id))) DO UPDATE
		 SET name = EXCLUDED.name,
		     birth_date = EXCLUDED.birth_date,
		     phone = EXCLUDED.phone,
		     current_belt = EXCLUDED.current_belt,
		     updated_at = CURRENT_TIMESTAMP`,
		s.ID, s.Name, s.BirthDate, s.Phone, s.CurrentBelt,
	)
	return err
}

// DeleteAll empties the roster. Used by the import tool's truncate mode.
func (r *StudentRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM students`)
	return err
}
