package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/testutil"
)

func seedEvents(t *testing.T, ts *testutil.TestServer, n int) {
	t.Helper()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, ts.Stores.Append(context.Background(), &model.LoginEvent{
			StudentID: fmt.Sprintf("ara%03d", i%5),
			Action:    "login",
			Actor:     "student",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestAdminHandler_KeyGate(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		headers        map[string]string
		expectedStatus int
	}{
		{
			name:           "no key",
			path:           "/portal/admin/activity",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong header key",
			path:           "/portal/admin/activity",
			headers:        map[string]string{"X-Admin-Key": "nope"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "correct header key",
			path:           "/portal/admin/activity",
			headers:        map[string]string{"X-Admin-Key": testutil.TestAdminKey},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "correct query key",
			path:           "/portal/admin/activity?adminKey=" + testutil.TestAdminKey,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t)
			rec := ts.Do(t, http.MethodGet, tt.path, nil, tt.headers)
			assert.Equal(t, tt.expectedStatus, rec.Code)
		})
	}
}

func TestAdminHandler_ActivityReport(t *testing.T) {
	ts := testutil.NewTestServer(t)
	seedEvents(t, ts, 10)
	require.NoError(t, ts.Stores.Upsert(context.Background(), &model.BeltProgress{
		StudentID:  "ara001",
		BeltSlug:   "yellow",
		UploadedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}))

	rec := ts.Do(t, http.MethodGet, "/portal/admin/activity", nil,
		map[string]string{"X-Admin-Key": testutil.TestAdminKey})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Events []model.EventView `json:"events"`
		Summary []struct {
			StudentID   string  `json:"studentId"`
			TotalEvents int     `json:"totalEvents"`
			LoginEvents int     `json:"loginEvents"`
			LatestBelt  *string `json:"latestBelt"`
		} `json:"summary"`
		GeneratedAt time.Time `json:"generatedAt"`
	}
	testutil.DecodeJSON(t, rec, &body)

	require.Len(t, body.Events, 10)
	// Newest first.
	assert.True(t, body.Events[0].RecordedAt.After(body.Events[9].RecordedAt))
	assert.False(t, body.GeneratedAt.IsZero())

	require.Len(t, body.Summary, 5)
	for _, s := range body.Summary {
		assert.Equal(t, 2, s.TotalEvents)
		assert.Equal(t, 2, s.LoginEvents)
		if s.StudentID == "ara001" {
			require.NotNil(t, s.LatestBelt)
			assert.Equal(t, "yellow", *s.LatestBelt)
		}
	}
}

func TestAdminHandler_LimitHandling(t *testing.T) {
	ts := testutil.NewTestServer(t)
	seedEvents(t, ts, 1005)

	adminHeaders := map[string]string{"X-Admin-Key": testutil.TestAdminKey}

	tests := []struct {
		name      string
		query     string
		wantCount int
	}{
		{name: "oversized limit clamps to 1000", query: "?limit=5000", wantCount: 1000},
		{name: "non-numeric limit defaults to 200", query: "?limit=abc", wantCount: 200},
		{name: "absent limit defaults to 200", query: "", wantCount: 200},
		{name: "small limit respected", query: "?limit=3", wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.Do(t, http.MethodGet, "/portal/admin/activity"+tt.query, nil, adminHeaders)
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Events []model.EventView `json:"events"`
			}
			testutil.DecodeJSON(t, rec, &body)
			assert.Len(t, body.Events, tt.wantCount)
		})
	}
}

func TestAdminHandler_OpenWhenNoKeyConfigured(t *testing.T) {
	// Documented insecure-by-default fallback: with no key configured
	// the reporting route is open.
	cfg := testutil.TestConfig()
	cfg.AdminPortalKey = ""
	ts := testutil.NewTestServerWithConfig(t, cfg)

	rec := ts.Do(t, http.MethodGet, "/portal/admin/activity", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
