package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/genoeg/kotori/internal/agent"
	"github.com/genoeg/kotori/internal/calendar"
	"github.com/genoeg/kotori/internal/config"
	"github.com/genoeg/kotori/internal/llm"
	"github.com/genoeg/kotori/internal/logging"
)

func testMux(t *testing.T, opts ...ServerOption) *http.ServeMux {
	t.Helper()
	s := New(config.Defaults(), logging.New(nil, "error"), opts...)
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doJSON(testMux(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestNotFound(t *testing.T) {
	rec := doJSON(testMux(t), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateLog(t *testing.T) {
	logs := &fakeLogStore{}
	mux := testMux(t, WithLogStore(logs))

	rec := doJSON(mux, http.MethodPost, "/logs", `{"content":"今日は早起きした"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, "今日は早起きした", logs.entries[0].Content)
}

func TestCreateLog_BlankContent(t *testing.T) {
	mux := testMux(t, WithLogStore(&fakeLogStore{}))

	for _, body := range []string{`{"content":""}`, `{"content":"   "}`, `{}`, `not json`} {
		rec := doJSON(mux, http.MethodPost, "/logs", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestInsights(t *testing.T) {
	logs := &fakeLogStore{}
	logs.Insert("朝ランニングした")
	logs.Insert("夜更かしした")

	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			// Entries arrive joined by the separator, oldest first.
			require.Len(t, req.Messages, 1)
			assert.Contains(t, req.Messages[0].Content, "朝ランニングした\n---\n夜更かしした")
			return &llm.CompletionResponse{Content: "運動の習慣がついてきています"}, nil
		},
	}
	mux := testMux(t, WithLogStore(logs), WithLLMClient(client))

	rec := doJSON(mux, http.MethodPost, "/insights", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "運動の習慣がついてきています", resp["insight"])
	assert.EqualValues(t, 2, resp["logCount"])
}

func TestInsights_NoLogs(t *testing.T) {
	mux := testMux(t, WithLogStore(&fakeLogStore{}), WithLLMClient(&llm.MockClient{}))

	rec := doJSON(mux, http.MethodPost, "/insights", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMilestones(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			assert.Contains(t, req.Messages[0].Content, "フルマラソン")
			return &llm.CompletionResponse{Content: "- 5km走る\n- 10km走る"}, nil
		},
	}
	mux := testMux(t, WithLLMClient(client))

	rec := doJSON(mux, http.MethodPost, "/milestones", `{"goalContent":"フルマラソンを完走する"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "5km")
}

func TestMilestones_BlankGoal(t *testing.T) {
	mux := testMux(t, WithLLMClient(&llm.MockClient{}))

	rec := doJSON(mux, http.MethodPost, "/milestones", `{"goalContent":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// echoTool records invocations for the calendar endpoint tests.
type echoTool struct {
	name    string
	outcome agent.Outcome
	gotArgs string
}

func (t *echoTool) Name() string                { return t.name }
func (t *echoTool) Description() string         { return "test" }
func (t *echoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t *echoTool) Execute(ctx context.Context, args json.RawMessage) agent.Outcome {
	t.gotArgs = string(args)
	return t.outcome
}

func TestCalendarEndpoint(t *testing.T) {
	tool := &echoTool{name: "add_to_calendar", outcome: agent.OK("登録しました")}
	registry := agent.NewRegistry()
	registry.Register(tool)
	mux := testMux(t, WithTools(registry))

	rec := doJSON(mux, http.MethodPost, "/calendar", `{"action":"add","title":"ジム","date":"2026-09-02"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	// The action key is stripped, the rest passes through as tool args.
	assert.Contains(t, tool.gotArgs, "ジム")
	assert.NotContains(t, tool.gotArgs, "action")
}

func TestCalendarEndpoint_CreateAction(t *testing.T) {
	tool := &echoTool{name: "add_to_calendar", outcome: agent.OK("登録しました")}
	registry := agent.NewRegistry()
	registry.Register(tool)
	mux := testMux(t, WithTools(registry))

	rec := doJSON(mux, http.MethodPost, "/calendar", `{"action":"create","title":"歯医者","date":"2026-09-10"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, tool.gotArgs, "歯医者")
}

func TestCalendarEndpoint_UnknownAction(t *testing.T) {
	mux := testMux(t, WithTools(agent.NewRegistry()))

	rec := doJSON(mux, http.MethodPost, "/calendar", `{"action":"explode"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarEndpoint_FailedOutcome(t *testing.T) {
	registry := agent.NewRegistry()
	registry.Register(&echoTool{name: "list_upcoming_events", outcome: agent.Outcome{Success: false, Error: "calendar not connected"}})
	mux := testMux(t, WithTools(registry))

	rec := doJSON(mux, http.MethodPost, "/calendar", `{"action":"list"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "not connected")
}

func testOAuthConfig() *oauth2.Config {
	return calendar.OAuthConfig("client-id", "client-secret", "http://localhost/auth/google/callback")
}

func TestGoogleStart(t *testing.T) {
	s := New(config.Defaults(), logging.New(nil, "error"))
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Unconfigured: link flow is off.
	rec := doJSON(mux, http.MethodGet, "/auth/google/start", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGoogleStart_Redirects(t *testing.T) {
	mux := testMux(t, WithOAuthConfig(testOAuthConfig()))

	rec := doJSON(mux, http.MethodGet, "/auth/google/start", "")
	assert.Equal(t, http.StatusFound, rec.Code)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "client_id=client-id")
	assert.Contains(t, location, "access_type=offline")
	assert.Contains(t, location, "prompt=consent")
}

func TestGoogleCallback_MissingCode(t *testing.T) {
	cfg := config.Defaults()
	s := New(cfg, logging.New(nil, "error"),
		WithOAuthConfig(testOAuthConfig()),
		WithCredentialSaver(credSaverFunc(func(provider, token string) error { return nil })),
	)
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	rec := doJSON(mux, http.MethodGet, "/auth/google/callback", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type credSaverFunc func(provider, token string) error

func (f credSaverFunc) SaveRefreshToken(provider, token string) error { return f(provider, token) }
