package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/repository"
)

// FakeStores is an in-memory repository.Stores for tests. All access is
// serialized by one mutex, which mirrors the atomic last-write-wins
// behavior of the real upsert. Error fields inject failures per method.
type FakeStores struct {
	mu sync.Mutex

	students map[string]model.Student      // keyed by normalized id
	progress map[string]model.BeltProgress // keyed by normalized id + "|" + slug
	events   []model.LoginEvent
	nextID   int64

	FindStudentErr  error
	ListProgressErr error
	UpsertErr       error
	AppendEventErr  error
}

// NewFakeStores creates an empty FakeStores.
func NewFakeStores() *FakeStores {
	return &FakeStores{
		students: make(map[string]model.Student),
		progress: make(map[string]model.BeltProgress),
	}
}

func (f *FakeStores) Students() repository.StudentStore  { return f }
func (f *FakeStores) Progress() repository.ProgressStore { return f }
func (f *FakeStores) Events() repository.EventStore      { return f }

// InTx runs fn directly; the single mutex already serializes writers.
func (f *FakeStores) InTx(_ context.Context, fn func(repository.Stores) error) error {
	return fn(f)
}

// AddStudent seeds a roster record.
func (f *FakeStores) AddStudent(s model.Student) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.students[model.NormalizeStudentID(s.ID)] = s
}

// EventCount reports how many journal rows were appended.
func (f *FakeStores) EventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// LastEvent returns the most recently appended journal row.
func (f *FakeStores) LastEvent() *model.LoginEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	ev := f.events[len(f.events)-1]
	return &ev
}

// ProgressRow returns the stored row for a (student, belt) pair.
func (f *FakeStores) ProgressRow(studentID, slug string) (model.BeltProgress, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.progress[progressKey(studentID, slug)]
	return p, ok
}

// ProgressCount reports how many progress rows exist.
func (f *FakeStores) ProgressCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.progress)
}

func (f *FakeStores) FindByID(_ context.Context, id string) (*model.Student, error) {
	if f.FindStudentErr != nil {
		return nil, f.FindStudentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.students[model.NormalizeStudentID(id)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (f *FakeStores) ListByStudent(_ context.Context, studentID string) ([]model.BeltProgress, error) {
	if f.ListProgressErr != nil {
		return nil, f.ListProgressErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := model.NormalizeStudentID(studentID)
	var records []model.BeltProgress
	for _, p := range f.progress {
		if p.StudentID == id {
			records = append(records, p)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadedAt.Before(records[j].UploadedAt)
	})
	return records, nil
}

func (f *FakeStores) Upsert(_ context.Context, rec *model.BeltProgress) error {
	if f.UpsertErr != nil {
		return f.UpsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *rec
	stored.StudentID = model.NormalizeStudentID(rec.StudentID)
	stored.CreatedAt = time.Now().UTC()
	f.progress[progressKey(rec.StudentID, rec.BeltSlug)] = stored
	rec.CreatedAt = stored.CreatedAt
	return nil
}

func (f *FakeStores) Append(_ context.Context, ev *model.LoginEvent) error {
	if f.AppendEventErr != nil {
		return f.AppendEventErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	stored := *ev
	stored.ID = f.nextID
	stored.StudentID = model.NormalizeStudentID(ev.StudentID)
	f.events = append(f.events, stored)
	ev.ID = stored.ID
	return nil
}

func (f *FakeStores) ListRecent(_ context.Context, limit int) ([]model.LoginEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]model.LoginEvent, len(f.events))
	copy(events, f.events)
	sort.Slice(events, func(i, j int) bool {
		if events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].ID > events[j].ID
		}
		return events[i].CreatedAt.After(events[j].CreatedAt)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (f *FakeStores) SummarizeByStudent(_ context.Context) ([]model.StudentActivitySummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byStudent := make(map[string]*model.StudentActivitySummary)
	for _, ev := range f.events {
		s, ok := byStudent[ev.StudentID]
		if !ok {
			s = &model.StudentActivitySummary{StudentID: ev.StudentID}
			byStudent[ev.StudentID] = s
		}
		s.TotalEvents++
		if ev.Action == model.ActionLogin {
			s.LoginEvents++
		}
		if ev.CreatedAt.After(s.LastEventAt) {
			s.LastEventAt = ev.CreatedAt
		}
	}

	for _, p := range f.progress {
		s, ok := byStudent[p.StudentID]
		if !ok {
			continue
		}
		if s.LatestBeltUploadedAt == nil || p.UploadedAt.After(*s.LatestBeltUploadedAt) {
			slug, uploaded := p.BeltSlug, p.UploadedAt
			s.LatestBelt = &slug
			s.LatestBeltUploadedAt = &uploaded
		}
	}

	summaries := make([]model.StudentActivitySummary, 0, len(byStudent))
	for _, s := range byStudent {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastEventAt.After(summaries[j].LastEventAt)
	})
	return summaries, nil
}

func progressKey(studentID, slug string) string {
	return model.NormalizeStudentID(studentID) + "|" + slug
}
