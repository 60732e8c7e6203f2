package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mattjoyce/statusline/internal/events"
	"github.com/mattjoyce/statusline/internal/statusline"
)

const (
	defaultAttemptLimit = 20
	maxAttemptLimit     = 500
	maxSessionBody      = 1 << 20
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := s.lines.Snapshot()
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Enabled:       snap.Enabled,
		InFlight:      snap.InFlight,
		LastEventID:   s.events.LastID(),
	})
}

// handleLine handles GET /v1/line. The line is null when absent.
func (s *Server) handleLine(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.lines.Snapshot())
}

// handleGetSession handles GET /v1/session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	req := s.sessions.Session()
	out := SessionPayload{
		Model:                   req.Model,
		ModelProvider:           req.ModelProvider,
		Cwd:                     req.Cwd,
		TaskRunning:             req.TaskRunning,
		ReviewMode:              req.ReviewMode,
		ContextWindowPercent:    req.ContextWindowPercent,
		ContextWindowUsedTokens: req.ContextWindowUsedTokens,
	}
	if req.TokenUsage != nil {
		b, err := json.Marshal(req.TokenUsage)
		if err != nil {
			s.logger.Error("failed to encode token usage", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to encode session")
			return
		}
		out.TokenUsage = b
	}
	respondJSON(w, http.StatusOK, out)
}

// handlePutSession handles PUT /v1/session: replace the session snapshot
// and request a render.
func (s *Server) handlePutSession(w http.ResponseWriter, r *http.Request) {
	var body SessionPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSessionBody)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := statusline.Request{
		Model:                   body.Model,
		ModelProvider:           body.ModelProvider,
		Cwd:                     body.Cwd,
		TaskRunning:             body.TaskRunning,
		ReviewMode:              body.ReviewMode,
		ContextWindowPercent:    body.ContextWindowPercent,
		ContextWindowUsedTokens: body.ContextWindowUsedTokens,
	}
	if len(body.TokenUsage) > 0 && string(body.TokenUsage) != "null" {
		req.TokenUsage = body.TokenUsage
	}
	s.sessions.SetSession(req)
	w.WriteHeader(http.StatusAccepted)
}

// handleAttempts handles GET /v1/attempts?limit=N.
func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	if s.attempts == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := defaultAttemptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAttemptLimit)
	}

	rows, err := s.attempts.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read attempts", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read attempts")
		return
	}

	resp := AttemptsResponse{Attempts: make([]AttemptResponse, 0, len(rows))}
	for _, a := range rows {
		resp.Attempts = append(resp.Attempts, AttemptResponse{
			ID:          a.ID,
			StartedAt:   a.StartedAt,
			DurationMs:  a.Duration.Milliseconds(),
			Status:      string(a.Status),
			FailureKind: a.FailureKind,
			ExitCode:    a.ExitCode,
			Line:        a.Line,
			Stderr:      a.Stderr,
			Command:     a.Command,
			PayloadHash: a.PayloadHash,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleEventSnapshot handles GET /v1/events?since=ID.
func (s *Server) handleEventSnapshot(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = n
	}
	evs := s.events.SnapshotSince(since)
	if evs == nil {
		evs = []events.Event{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": evs})
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
