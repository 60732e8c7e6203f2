package api

import "net/http"

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, buildOpenAPIDoc(len(s.config.Tokens) > 0))
}

// buildOpenAPIDoc describes the /v1 routes. Security is declared only when
// bearer tokens are configured.
func buildOpenAPIDoc(secured bool) map[string]any {
	op := func(summary, scope string, responses map[string]any) map[string]any {
		o := map[string]any{
			"summary":   summary,
			"responses": responses,
		}
		if secured {
			o["security"] = []any{map[string]any{"BearerAuth": []string{scope}}}
		}
		return o
	}
	ok := func(desc string) map[string]any {
		return map[string]any{"200": map[string]any{"description": desc}}
	}

	doc := map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "statusline",
			"version": "1.0",
		},
		"paths": map[string]any{
			"/healthz": map[string]any{
				"get": map[string]any{"summary": "Liveness", "responses": ok("Daemon is running")},
			},
			"/v1/line": map[string]any{
				"get": op("Current status line", "line:ro", ok("Snapshot; line is null when absent")),
			},
			"/v1/session": map[string]any{
				"get": op("Session snapshot used for renders", "session:ro", ok("Session")),
				"put": op("Replace the session snapshot and request a render", "session:rw", map[string]any{
					"202": map[string]any{"description": "Accepted"},
					"400": map[string]any{"description": "Bad request"},
				}),
			},
			"/v1/attempts": map[string]any{
				"get": op("Recent render attempts", "history:ro", ok("Attempts, newest first")),
			},
			"/v1/events": map[string]any{
				"get": op("Buffered events after an ID", "events:ro", ok("Events, oldest first")),
			},
			"/v1/events/stream": map[string]any{
				"get": op("Server-sent event stream", "events:ro", ok("text/event-stream")),
			},
		},
	}
	if secured {
		doc["components"] = map[string]any{
			"securitySchemes": map[string]any{
				"BearerAuth": map[string]any{"type": "http", "scheme": "bearer"},
			},
		}
	}
	return doc
}
