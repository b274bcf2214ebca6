package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/repository"
)

// Event limit bounds for the activity report. Non-numeric input silently
// falls back to the default rather than erroring.
const (
	DefaultActivityLimit = 200
	MaxActivityLimit     = 1000
)

// ActivityReport is the admin reporting payload.
type ActivityReport struct {
	Events      []model.EventView              `json:"events"`
	Summary     []model.StudentActivitySummary `json:"summary"`
	GeneratedAt time.Time                      `json:"generatedAt"`
}

// ReportService aggregates the journal and progress tables for admins.
type ReportService struct {
	stores repository.Stores
	log    zerolog.Logger
	now    func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(stores repository.Stores, log zerolog.Logger) *ReportService {
	return &ReportService{stores: stores, log: log, now: time.Now}
}

// Activity returns the most recent events (newest first) and the
// per-student summary. rawLimit comes straight from the query string:
// non-numeric values default to DefaultActivityLimit, numeric values are
// clamped to [1, MaxActivityLimit].
func (s *ReportService) Activity(ctx context.Context, rawLimit string) (*ActivityReport, error) {
	limit := parseActivityLimit(rawLimit)

	events, err := s.stores.Events().ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	summary, err := s.stores.Events().SummarizeByStudent(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize events: %w", err)
	}

	views := make([]model.EventView, 0, len(events))
	for i := range events {
		views = append(views, events[i].View())
	}
	if summary == nil {
		summary = []model.StudentActivitySummary{}
	}

	return &ActivityReport{
		Events:      views,
		Summary:     summary,
		GeneratedAt: s.now().UTC(),
	}, nil
}

func parseActivityLimit(raw string) int {
	if raw == "" {
		return DefaultActivityLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultActivityLimit
	}
	if n < 1 {
		return 1
	}
	if n > MaxActivityLimit {
		return MaxActivityLimit
	}
	return n
}
