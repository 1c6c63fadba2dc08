package api

import (
	"encoding/json"
	"net/http"

	"github.com/AdityaGirish/Chatbot101/internal/chat"
	"github.com/AdityaGirish/Chatbot101/internal/log"
)

// MaxMessageLength bounds one utterance.
const MaxMessageLength = 4096

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	sessions *sessionRegistry
	logger   log.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(sessions *sessionRegistry, logger log.Logger) *ChatHandler {
	return &ChatHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.chat)
}

// ChatRequest is the request body for one conversation turn.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// chat processes one utterance for a session. A quit turn removes the
// session after replying.
func (h *ChatHandler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "sessionId is required")
		return
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "message too long")
		return
	}

	s, ok := h.sessions.get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}

	// One turn at a time per session.
	s.mu.Lock()
	reply, err := s.conv.Handle(r.Context(), req.Message)
	s.mu.Unlock()
	if err != nil {
		h.logger.Error("chat turn failed", "session_id", s.id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to process message")
		return
	}

	if reply.Quit {
		h.sessions.remove(s.id)
		h.logger.Info("session ended", "session_id", s.id)
	}

	if reply.Messages == nil {
		reply.Messages = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, reply)
}
