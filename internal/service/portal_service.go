package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/repository"
)

// Portal errors.
var (
	// ErrInvalidCredentials covers both an unknown student and a wrong
	// birth date; callers must not be able to tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBirthDateRequired is returned when a login action arrives
	// without the birth-date credential.
	ErrBirthDateRequired = errors.New("birthDate is required for login")
)

// uploadedAtFormats are tried in order when parsing a client-supplied
// timestamp. Anything unparsable degrades to the server clock; client
// clock skew and odd formats are expected in the field and must never
// reject a submission.
var uploadedAtFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoginEventInput is the journal/login operation input.
type LoginEventInput struct {
	StudentID string
	Action    string
	Actor     string
	BirthDate string
}

// ProgressSnapshot is an ordered progress listing plus its generation time.
type ProgressSnapshot struct {
	Records     []model.ProgressRecord `json:"records"`
	GeneratedAt time.Time              `json:"generatedAt"`
}

// LoginEventResult is the outcome of RecordLoginEvent. Token, Student and
// Progress are only set for a successful login action.
type LoginEventResult struct {
	RecordedAt time.Time
	Token      string
	Student    *model.StudentProfile
	Progress   *ProgressSnapshot
}

// SaveProgressResult echoes the normalized values actually stored.
type SaveProgressResult struct {
	BeltSlug   string
	UploadedAt time.Time
}

// PortalService implements the student-facing operations: the login/event
// state machine, profile read, and progress read/write.
type PortalService struct {
	stores repository.Stores
	tokens *TokenService
	log    zerolog.Logger
	now    func() time.Time
}

// NewPortalService creates a new PortalService.
func NewPortalService(stores repository.Stores, tokens *TokenService, log zerolog.Logger) *PortalService {
	return &PortalService{
		stores: stores,
		tokens: tokens,
		log:    log,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *PortalService) WithClock(now func() time.Time) *PortalService {
	s.now = now
	return s
}

// RecordLoginEvent journals a portal event and, for login actions, runs
// the credential gate and builds the full login response.
//
// Login outcomes:
//   - missing birth date: ErrBirthDateRequired, nothing journaled
//   - unknown student or birth-date mismatch: ErrInvalidCredentials,
//     nothing journaled (the journal write sits after the credential
//     gate; failed attempts are deliberately not recorded)
//   - success: progress snapshot and journal row commit in one
//     transaction, then a token is minted for the canonical stored-case
//     identity
//
// Non-login actions skip the credential gate and journal unconditionally.
func (s *PortalService) RecordLoginEvent(ctx context.Context, in LoginEventInput) (*LoginEventResult, error) {
	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action == "" {
		action = model.ActionLogin
	}
	actor := strings.ToLower(strings.TrimSpace(in.Actor))
	if actor == "" {
		actor = model.ActorStudent
	}
	now := s.now().UTC()

	if action != model.ActionLogin {
		ev := &model.LoginEvent{StudentID: in.StudentID, Action: action, Actor: actor, CreatedAt: now}
		if err := s.stores.Events().Append(ctx, ev); err != nil {
			return nil, fmt.Errorf("journal event: %w", err)
		}
		return &LoginEventResult{RecordedAt: now}, nil
	}

	if strings.TrimSpace(in.BirthDate) == "" {
		return nil, ErrBirthDateRequired
	}

	student, err := s.stores.Students().FindByID(ctx, in.StudentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	if student.BirthDate != strings.TrimSpace(in.BirthDate) {
		return nil, ErrInvalidCredentials
	}

	// Credential gate passed. Snapshot and journal commit together so a
	// failed snapshot can never leave a journaled login without data, and
	// no token is issued unless both land.
	var snapshot *ProgressSnapshot
	err = s.stores.InTx(ctx, func(tx repository.Stores) error {
		records, err := tx.Progress().ListByStudent(ctx, student.ID)
		if err != nil {
			return fmt.Errorf("progress snapshot: %w", err)
		}
		snapshot = s.buildSnapshot(records, now)

		ev := &model.LoginEvent{StudentID: student.ID, Action: action, Actor: actor, CreatedAt: now}
		if err := tx.Events().Append(ctx, ev); err != nil {
			return fmt.Errorf("journal login: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(student.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("student_id", student.ID).
		Str("actor", actor).
		Msg("portal login")

	profile := student.Profile()
	return &LoginEventResult{
		RecordedAt: now,
		Token:      token,
		Student:    &profile,
		Progress:   snapshot,
	}, nil
}

// GetProgress returns the ordered progress sequence for a student. An
// empty roster of records is a valid snapshot, not an error.
func (s *PortalService) GetProgress(ctx context.Context, studentID string) (*ProgressSnapshot, error) {
	records, err := s.stores.Progress().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return s.buildSnapshot(records, s.now().UTC()), nil
}

// GetProfile returns the sanitized profile for the given identity.
// Returns repository.ErrNotFound when the student no longer exists; the
// caller is already authenticated, so not-found is surfaced as such.
func (s *PortalService) GetProfile(ctx context.Context, studentID string) (*model.StudentProfile, error) {
	student, err := s.stores.Students().FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	profile := student.Profile()
	return &profile, nil
}

// SaveProgress upserts a (student, belt) progress row. The belt slug is
// lower-cased before storage and a malformed uploadedAt degrades to now.
func (s *PortalService) SaveProgress(ctx context.Context, in model.SaveProgressRequest) (*SaveProgressResult, error) {
	slug := strings.ToLower(strings.TrimSpace(in.BeltSlug))
	uploadedAt := s.resolveUploadedAt(in.UploadedAt)

	rec := &model.BeltProgress{
		StudentID:  in.StudentID,
		BeltSlug:   slug,
		UploadedAt: uploadedAt,
	}
	if name := strings.TrimSpace(in.FileName); name != "" {
		rec.FileName = &name
	}

	if err := s.stores.Progress().Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	return &SaveProgressResult{BeltSlug: slug, UploadedAt: uploadedAt}, nil
}

// buildSnapshot converts stored rows to their wire shape. Records is
// always non-nil so the JSON stays [] rather than null.
func (s *PortalService) buildSnapshot(records []model.BeltProgress, generatedAt time.Time) *ProgressSnapshot {
	out := make([]model.ProgressRecord, 0, len(records))
	for i := range records {
		out = append(out, records[i].Record())
	}
	return &ProgressSnapshot{Records: out, GeneratedAt: generatedAt}
}

// resolveUploadedAt parses a client timestamp leniently. Unparsable or
// empty values fall back to the server clock.
func (s *PortalService) resolveUploadedAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now().UTC()
	}
	for _, layout := range uploadedAtFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	s.log.Debug().Str("uploaded_at", raw).Msg("unparsable uploadedAt, using server time")
	return s.now().UTC()
}
