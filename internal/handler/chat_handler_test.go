package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aramartialarts/portal-backend/internal/testutil"
)

func newChatUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatHandler_Relay(t *testing.T) {
	upstream := newChatUpstream(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"Kick higher!"}}]}`)

	cfg := testutil.TestConfig()
	cfg.OpenAIAPIKey = "test-api-key"
	cfg.ChatModel = "gpt-3.5-turbo"
	cfg.ChatBaseURL = upstream.URL + "/v1"
	ts := testutil.NewTestServerWithConfig(t, cfg)

	rec := ts.Do(t, http.MethodPost, "/chat", map[string]string{"message": "How do I improve my side kick?"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "Kick higher!", body["response"])
}

func TestChatHandler_MissingMessage(t *testing.T) {
	ts := testutil.NewTestServer(t)

	rec := ts.Do(t, http.MethodPost, "/chat", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_UpstreamFailure(t *testing.T) {
	upstream := newChatUpstream(t, http.StatusInternalServerError,
		`{"error":{"message":"model overloaded"}}`)

	cfg := testutil.TestConfig()
	cfg.OpenAIAPIKey = "test-api-key"
	cfg.ChatBaseURL = upstream.URL + "/v1"
	ts := testutil.NewTestServerWithConfig(t, cfg)

	rec := ts.Do(t, http.MethodPost, "/chat", map[string]string{"message": "hello"}, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]any
	testutil.DecodeJSON(t, rec, &body)
	assert.Equal(t, "UPSTREAM_ERROR", body["code"])
	assert.Contains(t, body["error"], "model overloaded")
}

func TestChatHandler_NoAPIKeyConfigured(t *testing.T) {
	// TestConfig carries no API key; the relay reports the upstream as
	// unavailable rather than panicking or answering 500.
	ts := testutil.NewTestServer(t)

	rec := ts.Do(t, http.MethodPost, "/chat", map[string]string{"message": "hello"}, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
