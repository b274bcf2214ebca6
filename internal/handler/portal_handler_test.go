package handler_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aramartialarts/portal-backend/internal/config"
	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/service"
	"github.com/aramartialarts/portal-backend/internal/testutil"
)

func seedStudent(ts *testutil.TestServer) {
	belt := "high-white"
	ts.Stores.AddStudent(model.Student{
		ID:          "ARA001",
		Name:        "Test Student",
		BirthDate:   "2010-05-01",
		CurrentBelt: &belt,
	})
}

func TestPortalHandler_LoginEvent(t *testing.T) {
	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkBody      func(*testing.T, map[string]any)
	}{
		{
			name: "successful login",
			request: map[string]string{
				"studentId": "ARA001",
				"action":    "login",
				"birthDate": "2010-05-01",
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["ok"])
				assert.NotEmpty(t, body["recordedAt"])
				assert.NotEmpty(t, body["token"])

				student, ok := body["student"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "ARA001", student["id"])
				assert.Equal(t, "Test Student", student["name"])
				assert.Equal(t, "high-white", student["currentBelt"])
				// The credential and contact fields never echo back.
				assert.NotContains(t, student, "birthDate")
				assert.NotContains(t, student, "phone")

				progress, ok := body["progress"].(map[string]any)
				require.True(t, ok)
				assert.NotNil(t, progress["records"])
				assert.NotEmpty(t, progress["generatedAt"])
			},
		},
		{
			name: "wrong birth date",
			request: map[string]string{
				"studentId": "ARA001",
				"action":    "login",
				"birthDate": "1999-01-01",
			},
			expectedStatus: http.StatusUnauthorized,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.NotContains(t, body, "token")
				assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
			},
		},
		{
			name: "login without birth date",
			request: map[string]string{
				"studentId": "ARA001",
				"action":    "login",
			},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body map[string]any) {
				fields, ok := body["fields"].(map[string]any)
				require.True(t, ok)
				assert.Contains(t, fields, "birthDate")
			},
		},
		{
			name:           "missing studentId",
			request:        map[string]string{"action": "login", "birthDate": "2010-05-01"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "non-login action needs no credential",
			request: map[string]string{
				"studentId": "ARA001",
				"action":    "portal-view",
				"actor":     "kiosk",
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["ok"])
				assert.NotEmpty(t, body["recordedAt"])
				assert.NotContains(t, body, "token")
				assert.NotContains(t, body, "student")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t)
			seedStudent(ts)

			rec := ts.Do(t, http.MethodPost, "/portal/login-event", tt.request, nil)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.checkBody != nil {
				var body map[string]any
				testutil.DecodeJSON(t, rec, &body)
				tt.checkBody(t, body)
			}
		})
	}
}

func TestPortalHandler_LoginReturnsOrderedProgress(t *testing.T) {
	ts := testutil.NewTestServer(t)
	seedStudent(ts)
	ctx := context.Background()

	later := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ts.Stores.Upsert(ctx, &model.BeltProgress{StudentID: "ara001", BeltSlug: "high-white", UploadedAt: later}))
	require.NoError(t, ts.Stores.Upsert(ctx, &model.BeltProgress{StudentID: "ara001", BeltSlug: "white", UploadedAt: earlier}))

	rec := ts.Do(t, http.MethodPost, "/portal/login-event", map[string]string{
		"studentId": "ARA001",
		"action":    "login",
		"birthDate": "2010-05-01",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Progress struct {
			Records []model.ProgressRecord `json:"records"`
		} `json:"progress"`
	}
	testutil.DecodeJSON(t, rec, &body)
	require.Len(t, body.Progress.Records, 2)
	assert.Equal(t, "white", body.Progress.Records[0].BeltSlug)
	assert.Equal(t, "high-white", body.Progress.Records[1].BeltSlug)
}

func TestPortalHandler_GetProgressAuthorization(t *testing.T) {
	ts := testutil.NewTestServer(t)
	seedStudent(ts)

	expiredTokens := service.NewTokenService(&config.Config{
		JWTSecret: ts.Cfg.JWTSecret,
		TokenTTL:  -time.Hour,
	})
	expired, err := expiredTokens.Issue("ARA001")
	require.NoError(t, err)

	tests := []struct {
		name           string
		path           string
		headers        map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "no token",
			path:           "/portal/progress/ARA001",
			headers:        map[string]string{},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "TOKEN_REQUIRED",
		},
		{
			name:           "malformed header",
			path:           "/portal/progress/ARA001",
			headers:        map[string]string{"Authorization": "Basic abc123"},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "TOKEN_REQUIRED",
		},
		{
			name:           "garbage token",
			path:           "/portal/progress/ARA001",
			headers:        testutil.BearerHeader("not-a-token"),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "TOKEN_INVALID",
		},
		{
			name:           "expired token",
			path:           "/portal/progress/ARA001",
			headers:        testutil.BearerHeader(expired),
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "TOKEN_EXPIRED",
		},
		{
			name:           "valid token for another student",
			path:           "/portal/progress/ARA002",
			headers:        nil, // filled below with ARA001's token
			expectedStatus: http.StatusForbidden,
			expectedCode:   "FORBIDDEN",
		},
		{
			name:           "case difference is not a mismatch",
			path:           "/portal/progress/ara001",
			headers:        nil,
			expectedStatus: http.StatusOK,
		},
	}

	token := ts.IssueToken(t, "ARA001")
	for i := range tests {
		if tests[i].headers == nil {
			tests[i].headers = testutil.BearerHeader(token)
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.Do(t, http.MethodGet, tt.path, nil, tt.headers)
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedCode != "" {
				var body map[string]any
				testutil.DecodeJSON(t, rec, &body)
				assert.Equal(t, tt.expectedCode, body["code"])
			}
		})
	}
}

func TestPortalHandler_GetProfile(t *testing.T) {
	ts := testutil.NewTestServer(t)
	ts.Stores.AddStudent(model.Student{
		ID:        "ARA002",
		Name:      "No Belt Yet",
		BirthDate: "2012-09-09",
	})

	token := ts.IssueToken(t, "ARA002")
	rec := ts.Do(t, http.MethodGet, "/portal/profile", nil, testutil.BearerHeader(token))
	require.Equal(t, http.StatusOK, rec.Code)

	// An unset belt serializes as null, not "".
	assert.Contains(t, rec.Body.String(), `"currentBelt":null`)
	assert.False(t, strings.Contains(rec.Body.String(), `"birthDate"`))
	assert.False(t, strings.Contains(rec.Body.String(), `"phone"`))

	var body struct {
		Student model.StudentProfile `json:"student"`
	}
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "ARA002", body.Student.ID)
	assert.Nil(t, body.Student.CurrentBelt)
}

func TestPortalHandler_GetProfileGone(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// Token subject no longer on the roster: authenticated, so the
	// caller sees not-found rather than an auth failure.
	token := ts.IssueToken(t, "ARA404")
	rec := ts.Do(t, http.MethodGet, "/portal/profile", nil, testutil.BearerHeader(token))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPortalHandler_SaveProgress(t *testing.T) {
	ts := testutil.NewTestServer(t)
	seedStudent(ts)
	token := ts.IssueToken(t, "ARA001")

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkBody      func(*testing.T, map[string]any)
	}{
		{
			name: "upsert echoes normalized values",
			request: map[string]string{
				"studentId":  "ARA001",
				"beltSlug":   "High-White",
				"fileName":   "form.mp4",
				"uploadedAt": "2025-03-01T10:00:00Z",
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["ok"])
				assert.Equal(t, "high-white", body["beltSlug"])
				assert.Equal(t, "2025-03-01T10:00:00Z", body["uploadedAt"])
			},
		},
		{
			name: "malformed uploadedAt still succeeds",
			request: map[string]string{
				"studentId":  "ARA001",
				"beltSlug":   "yellow",
				"uploadedAt": "next tuesday",
			},
			expectedStatus: http.StatusOK,
			checkBody: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["ok"])
				assert.NotEmpty(t, body["uploadedAt"])
			},
		},
		{
			name: "other student's id is forbidden",
			request: map[string]string{
				"studentId": "ARA002",
				"beltSlug":  "white",
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "missing beltSlug",
			request:        map[string]string{"studentId": "ARA001"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.Do(t, http.MethodPost, "/portal/progress", tt.request, testutil.BearerHeader(token))
			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.checkBody != nil {
				var body map[string]any
				testutil.DecodeJSON(t, rec, &body)
				tt.checkBody(t, body)
			}
		})
	}
}

func TestPortalHandler_StoreFailureAnswers500(t *testing.T) {
	ts := testutil.NewTestServer(t)
	seedStudent(ts)
	ts.Stores.FindStudentErr = errors.New("connection reset by peer")

	rec := ts.Do(t, http.MethodPost, "/portal/login-event", map[string]string{
		"studentId": "ARA001",
		"action":    "login",
		"birthDate": "2010-05-01",
	}, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	// A storage outage is not an auth verdict and never mints a token.
	assert.NotEqual(t, "INVALID_CREDENTIALS", body["code"])
	assert.NotContains(t, body, "token")
}
