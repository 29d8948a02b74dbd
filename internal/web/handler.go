package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nba-agent/server/internal/agent/graph/parsers"
	"github.com/nba-agent/server/internal/agent/model"
	errx "github.com/nba-agent/server/internal/core/error"
	logx "github.com/nba-agent/server/pkg/logger"
)

const maxBodyBytes = 16 * 1024

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	assistant Assistant
	timeout   time.Duration
	page      []byte
}

// NewHandler returns the routes of the chat page. A zero timeout leaves
// requests bounded only by the client.
func NewHandler(assistant Assistant, timeout time.Duration) http.Handler {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		// embedded at build time
		panic(err)
	}
	h := &handler{assistant: assistant, timeout: timeout, page: page}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /api/chat", h.chat)
	mux.HandleFunc("DELETE /api/conversations/{id}", h.reset)
	mux.HandleFunc("GET /api/examples", h.examples)
	mux.HandleFunc("GET /healthz", h.health)
	return logRequests(mux)
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(h.page)
}

func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, errx.Validation("request body must be JSON with a message field"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, errx.Validation("message is required"))
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	reply, err := h.assistant.Invoke(ctx, model.QueryInput{
		ConversationID: req.ConversationID,
		Query:          req.Message,
	})
	if err != nil {
		logx.Error().
			Str("conversation_id", req.ConversationID).
			Err(err).
			Msg("Chat request failed")
		if errors.Is(err, context.DeadlineExceeded) {
			writeError(w, errx.New(err, http.StatusGatewayTimeout, "the assistant took too long to answer"))
			return
		}
		writeError(w, err)
		return
	}
	reply.ConversationID = req.ConversationID
	writeJSON(w, http.StatusOK, reply)
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.assistant.Reset(r.Context(), id); err != nil {
		logx.Error().Str("conversation_id", id).Err(err).Msg("Reset failed")
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) examples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, parsers.Examples())
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Warn().Err(err).Msg("Encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errx.StatusOf(err), errorResponse{Error: errx.MessageOf(err)})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logx.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}
