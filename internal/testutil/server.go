package testutil

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aramartialarts/portal-backend/internal/config"
	"github.com/aramartialarts/portal-backend/internal/handler"
	"github.com/aramartialarts/portal-backend/internal/middleware"
	"github.com/aramartialarts/portal-backend/internal/router"
	"github.com/aramartialarts/portal-backend/internal/service"
	"github.com/aramartialarts/portal-backend/internal/validator"
)

// TestAdminKey is the shared admin secret used by test servers.
const TestAdminKey = "test-admin-key"

var validatorOnce sync.Once

// TestConfig returns an immutable config suitable for handler tests.
func TestConfig() *config.Config {
	return &config.Config{
		GinMode:        gin.TestMode,
		AdminPortalKey: TestAdminKey,
		JWTSecret:      "test-signing-secret",
		TokenTTL:       time.Hour,
		LoginRateLimit: 10000,
	}
}

// TestServer wires the real router, handlers and services over FakeStores.
type TestServer struct {
	Router *gin.Engine
	Stores *FakeStores
	Tokens *service.TokenService
	Cfg    *config.Config
}

// NewTestServer builds a fully wired test server with TestConfig.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	return NewTestServerWithConfig(t, TestConfig())
}

// NewTestServerWithConfig builds a fully wired test server over the
// given config.
func NewTestServerWithConfig(t *testing.T, cfg *config.Config) *TestServer {
	t.Helper()
	validatorOnce.Do(validator.Setup)

	log := zerolog.Nop()
	stores := NewFakeStores()

	tokens := service.NewTokenService(cfg)
	portal := service.NewPortalService(stores, tokens, log)
	reports := service.NewReportService(stores, log)
	chat := service.NewChatService(cfg, log)

	handlers := &router.Handlers{
		Portal: handler.NewPortalHandler(portal),
		Admin:  handler.NewAdminHandler(reports),
		Chat:   handler.NewChatHandler(chat),
	}
	limiter := middleware.NewRateLimiter(nil, log, cfg.LoginRateLimit, time.Minute)

	return &TestServer{
		Router: router.SetupRouter(cfg, tokens, limiter, handlers),
		Stores: stores,
		Tokens: tokens,
		Cfg:    cfg,
	}
}

// IssueToken mints a valid session token for the given student id.
func (ts *TestServer) IssueToken(t *testing.T, studentID string) string {
	t.Helper()
	token, err := ts.Tokens.Issue(studentID)
	require.NoError(t, err)
	return token
}

// Do performs a request against the router and returns the recorder.
// A non-nil body is JSON-encoded.
func (ts *TestServer) Do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	ts.Router.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON unmarshals a recorded response body into dst.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// BearerHeader builds an Authorization header map for a token.
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
