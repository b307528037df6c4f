package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eaegeea/rag-chatbot/internal/core/ports"
	"github.com/eaegeea/rag-chatbot/internal/observability/metrics"
)

const serviceName = "api"

type reindexPublisher interface {
	PublishNoteReindex(ctx context.Context, noteID int) error
}

type Router struct {
	chat        ports.ChatService
	roster      ports.RosterService
	consistency ports.ConsistencyService
	publisher   reindexPublisher
	metrics     *metrics.HTTPServerMetrics
	logger      *slog.Logger
}

func NewRouter(
	chat ports.ChatService,
	roster ports.RosterService,
	consistency ports.ConsistencyService,
	publisher reindexPublisher,
	m *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		chat:        chat,
		roster:      roster,
		consistency: consistency,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/chat", rt.handleChat)
	mux.HandleFunc("/api/clients/by-user", rt.handleClientsByUser)
	mux.HandleFunc("/api/admin/drift", rt.handleDrift)
	mux.HandleFunc("/api/admin/drift/repair", rt.handleDriftRepair)
	mux.HandleFunc("/api/admin/reindex", rt.handleReindex)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		User    string `json:"user"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.User) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	start := time.Now()
	answer, err := rt.chat.Chat(r.Context(), req.User, req.Message)
	if err != nil {
		rt.writeError(r, w, "chat failed", err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordChat(serviceName, string(answer.QueryType), answer.ContextCount, time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) handleClientsByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserEmail string `json:"userEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.UserEmail) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "userEmail is required"})
		return
	}

	roster, err := rt.roster.Roster(r.Context(), req.UserEmail)
	if err != nil {
		rt.writeError(r, w, "roster lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (rt *Router) handleDrift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	findings, err := rt.consistency.DetectDrift(r.Context())
	if err != nil {
		rt.writeError(r, w, "drift detection failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"findings": findings,
		"total":    len(findings),
	})
}

func (rt *Router) handleDriftRepair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	repairs, err := rt.consistency.RepairDrift(r.Context())
	if err != nil {
		rt.writeError(r, w, "drift repair failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"repairs": repairs,
		"total":   len(repairs),
	})
}

func (rt *Router) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		NoteID int `json:"noteId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.NoteID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "noteId is required"})
		return
	}

	if err := rt.publisher.PublishNoteReindex(r.Context(), req.NoteID); err != nil {
		rt.writeError(r, w, "reindex publish failed", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"noteId": req.NoteID,
		"status": "queued",
	})
}

func (rt *Router) writeError(r *http.Request, w http.ResponseWriter, message string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status == http.StatusForbidden && rt.metrics != nil {
		rt.metrics.RecordAuthzDenied(serviceName, r.URL.Path)
	}
	if status >= 500 {
		rt.logger.Error(message,
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		// Driver and upstream detail stays in the log; clients get no
		// internals.
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
