package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/genoeg/kotori/internal/llm"
)

// insightLogCount is how many recent entries feed the insight analysis.
const insightLogCount = 50

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// handleCreateLog records a journal entry directly, without going through
// the chat flow.
func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil {
		writeError(w, http.StatusServiceUnavailable, "log store not configured")
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	id, err := s.logs.Insert(req.Content)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to insert log")
		writeError(w, http.StatusInternalServerError, "failed to store log")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// handleInsights analyzes recent journal entries and returns observations.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.logs == nil || s.llmClient == nil {
		writeError(w, http.StatusServiceUnavailable, "insights not available")
		return
	}

	entries, err := s.logs.Recent(insightLogCount)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load logs for insights")
		writeError(w, http.StatusInternalServerError, "failed to load logs")
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusBadRequest, "no logs to analyze")
		return
	}

	// Recent returns newest first; the analysis reads the journal in the
	// order it was written.
	parts := make([]string, len(entries))
	for i, entry := range entries {
		parts[len(entries)-1-i] = entry.Content
	}
	joined := strings.Join(parts, "\n---\n")

	resp, err := s.llmClient.Complete(r.Context(), llm.CompletionRequest{
		System: "あなたはユーザーの行動記録を分析するアナリストです。記録から傾向や気づきを見つけ、簡潔な日本語でまとめてください。",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("以下は最近の記録です。傾向と気づきを教えてください。\n\n%s", joined)},
		},
		MaxTokens: s.cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("insight generation failed")
		writeError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"insight":  resp.Content,
		"logCount": len(entries),
	})
}

// handleMilestones breaks a goal into concrete milestones.
func (s *Server) handleMilestones(w http.ResponseWriter, r *http.Request) {
	if s.llmClient == nil {
		writeError(w, http.StatusServiceUnavailable, "milestones not available")
		return
	}

	var req struct {
		GoalContent string `json:"goalContent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.GoalContent) == "" {
		writeError(w, http.StatusBadRequest, "goalContent is required")
		return
	}

	resp, err := s.llmClient.Complete(r.Context(), llm.CompletionRequest{
		System: "あなたは目標達成を支援するコーチです。目標を現実的なマイルストーンに分解し、日本語で箇条書きにしてください。",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("次の目標をマイルストーンに分解してください: %s", req.GoalContent)},
		},
		MaxTokens: s.cfg.OpenAI.MaxTokens,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("milestone generation failed")
		writeError(w, http.StatusBadGateway, "generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"milestones": resp.Content})
}

// calendarActions maps direct-endpoint actions onto the agent's tools, so
// the HTTP surface and the model share one implementation.
var calendarActions = map[string]string{
	"create": "add_to_calendar",
	"add":    "add_to_calendar",
	"list":   "list_upcoming_events",
	"search": "search_calendar_event",
	"delete": "delete_calendar_event",
	"update": "update_calendar_event",
}

// handleCalendar exposes the calendar tools as a direct endpoint.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if s.tools == nil {
		writeError(w, http.StatusServiceUnavailable, "calendar not configured")
		return
	}

	var req map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var action string
	if raw, ok := req["action"]; ok {
		json.Unmarshal(raw, &action)
	}
	toolName, ok := calendarActions[action]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown action: "+action)
		return
	}

	delete(req, "action")
	args, err := json.Marshal(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid arguments")
		return
	}

	outcome := s.tools.Invoke(r.Context(), toolName, args)
	status := http.StatusOK
	if !outcome.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, outcome)
}
