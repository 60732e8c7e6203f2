package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/statusline/internal/auth"
	"github.com/mattjoyce/statusline/internal/daemon"
	"github.com/mattjoyce/statusline/internal/events"
	"github.com/mattjoyce/statusline/internal/history"
	"github.com/mattjoyce/statusline/internal/statusline"
)

type fakeLines struct{ snap daemon.Snapshot }

func (f *fakeLines) Snapshot() daemon.Snapshot { return f.snap }

type fakeSessions struct {
	mu  sync.Mutex
	req statusline.Request
	set int
}

func (f *fakeSessions) Session() statusline.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req
}

func (f *fakeSessions) SetSession(req statusline.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.req = req
	f.set++
}

type fakeAttempts struct {
	rows      []history.Attempt
	err       error
	lastLimit int
}

func (f *fakeAttempts) Recent(_ context.Context, limit int) ([]history.Attempt, error) {
	f.lastLimit = limit
	return f.rows, f.err
}

type fixture struct {
	lines    *fakeLines
	sessions *fakeSessions
	attempts *fakeAttempts
	hub      *events.Hub
	handler  http.Handler
}

func newFixture(t *testing.T, tokens []auth.TokenConfig) *fixture {
	t.Helper()
	f := &fixture{
		lines:    &fakeLines{snap: daemon.Snapshot{Enabled: true}},
		sessions: &fakeSessions{},
		attempts: &fakeAttempts{},
		hub:      events.NewHub(10),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.handler = New(Config{Tokens: tokens}, f.lines, f.sessions, f.attempts, f.hub, logger).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, []auth.TokenConfig{{Token: "t", Scopes: []string{"*"}}})
	f.hub.Publish(events.TypeUpdated, nil)

	rec := f.do(t, "GET", "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, true, out["enabled"])
	assert.Equal(t, float64(1), out["last_event_id"])
}

func TestLine(t *testing.T) {
	f := newFixture(t, nil)

	out := decode(t, f.do(t, "GET", "/v1/line", "", ""))
	v, ok := out["line"]
	assert.True(t, ok)
	assert.Nil(t, v, "absent line is null")

	line := "gpt-5 | main"
	f.lines.snap = daemon.Snapshot{Enabled: true, Line: &line, Stale: true, Attempts: 3, Failures: 1}
	out = decode(t, f.do(t, "GET", "/v1/line", "", ""))
	assert.Equal(t, line, out["line"])
	assert.Equal(t, true, out["stale"])
	assert.Equal(t, float64(3), out["attempts"])
}

func TestAuth(t *testing.T) {
	f := newFixture(t, []auth.TokenConfig{
		{Token: "reader", Scopes: []string{auth.ScopeLineRead}},
		{Token: "writer", Scopes: []string{auth.ScopeSessionRW}},
	})

	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/v1/line", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, "GET", "/v1/line", "", "wrong").Code)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/v1/line", "", "reader").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "GET", "/v1/attempts", "", "reader").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, "PUT", "/v1/session", `{}`, "reader").Code)
	assert.Equal(t, http.StatusAccepted, f.do(t, "PUT", "/v1/session", `{}`, "writer").Code)
	assert.Equal(t, http.StatusOK, f.do(t, "GET", "/v1/session", "", "writer").Code)
}

func TestPutSession(t *testing.T) {
	f := newFixture(t, nil)

	body := `{"model":"gpt-5","model_provider":"openai","cwd":"/repo","task_running":true,
		"context_window_percent":42,"token_usage":{"total_token_usage":{"total_tokens":7}}}`
	rec := f.do(t, "PUT", "/v1/session", body, "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	got := f.sessions.Session()
	assert.Equal(t, 1, f.sessions.set)
	assert.Equal(t, "gpt-5", got.Model)
	assert.Equal(t, "/repo", got.Cwd)
	assert.True(t, got.TaskRunning)
	require.NotNil(t, got.ContextWindowPercent)
	assert.Equal(t, int64(42), *got.ContextWindowPercent)
	assert.Nil(t, got.ContextWindowUsedTokens)

	raw, err := json.Marshal(got.TokenUsage)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_token_usage":{"total_tokens":7}}`, string(raw))

	out := decode(t, f.do(t, "GET", "/v1/session", "", ""))
	assert.Equal(t, "openai", out["model_provider"])
	assert.Contains(t, out, "token_usage")
}

func TestPutSession_NullTokenUsage(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, http.StatusAccepted, f.do(t, "PUT", "/v1/session", `{"token_usage":null}`, "").Code)
	assert.Nil(t, f.sessions.Session().TokenUsage)
}

func TestPutSession_InvalidBody(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, "PUT", "/v1/session", `{"model":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.sessions.set)
}

func TestAttempts(t *testing.T) {
	f := newFixture(t, nil)
	line := "main"
	code := 0
	f.attempts.rows = []history.Attempt{{
		ID:        "a1",
		StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Duration:  15 * time.Millisecond,
		Status:    history.StatusUpdated,
		ExitCode:  &code,
		Line:      &line,
		Command:   []string{"render"},
	}}

	rec := f.do(t, "GET", "/v1/attempts", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultAttemptLimit, f.attempts.lastLimit)

	var resp AttemptsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, "a1", resp.Attempts[0].ID)
	assert.Equal(t, int64(15), resp.Attempts[0].DurationMs)
	assert.Equal(t, "updated", resp.Attempts[0].Status)

	f.do(t, "GET", "/v1/attempts?limit=100000", "", "")
	assert.Equal(t, maxAttemptLimit, f.attempts.lastLimit)

	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/v1/attempts?limit=0", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/v1/attempts?limit=x", "", "").Code)

	f.attempts.err = errors.New("db gone")
	assert.Equal(t, http.StatusInternalServerError, f.do(t, "GET", "/v1/attempts", "", "").Code)
}

func TestAttempts_HistoryDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(Config{}, &fakeLines{}, &fakeSessions{}, nil, events.NewHub(1), logger).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/attempts", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventSnapshot(t *testing.T) {
	f := newFixture(t, nil)

	out := decode(t, f.do(t, "GET", "/v1/events", "", ""))
	assert.Equal(t, []any{}, out["events"])

	f.hub.Publish(events.TypeRequested, nil)
	f.hub.Publish(events.TypeUpdated, map[string]string{"line": "x"})

	out = decode(t, f.do(t, "GET", "/v1/events?since=1", "", ""))
	evs := out["events"].([]any)
	require.Len(t, evs, 1)
	ev := evs[0].(map[string]any)
	assert.Equal(t, events.TypeUpdated, ev["type"])
	assert.Equal(t, map[string]any{"line": "x"}, ev["data"])

	assert.Equal(t, http.StatusBadRequest, f.do(t, "GET", "/v1/events?since=-1", "", "").Code)
}

func TestEventStream(t *testing.T) {
	f := newFixture(t, nil)
	f.hub.Publish(events.TypeRequested, nil)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/v1/events/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() map[string]string {
		fields := map[string]string{}
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return fields
			}
			if k, v, ok := strings.Cut(line, ": "); ok {
				fields[k] = v
			}
		}
	}

	first := readEvent()
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, events.TypeRequested, first["event"])

	f.hub.Publish(events.TypeUpdated, map[string]string{"line": "main"})
	second := readEvent()
	assert.Equal(t, "2", second["id"])
	assert.Equal(t, events.TypeUpdated, second["event"])
	assert.JSONEq(t, `{"line":"main"}`, second["data"])
}

func TestOpenAPI(t *testing.T) {
	f := newFixture(t, []auth.TokenConfig{{Token: "t", Scopes: []string{"*"}}})
	out := decode(t, f.do(t, "GET", "/openapi.json", "", ""))
	assert.Equal(t, "3.1.0", out["openapi"])
	assert.Contains(t, out["paths"], "/v1/line")
	assert.Contains(t, out, "components")

	open := buildOpenAPIDoc(false)
	assert.NotContains(t, open, "components")
}
