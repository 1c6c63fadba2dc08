package api

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdityaGirish/Chatbot101/internal/chat"
	"github.com/AdityaGirish/Chatbot101/internal/log"
)

const (
	// sessionIdleTimeout evicts a session after this much inactivity.
	sessionIdleTimeout = 30 * time.Minute

	// sessionSweepInterval is how often idle sessions are collected.
	sessionSweepInterval = 5 * time.Minute
)

// session is one live conversation. The mutex serializes turns so a
// session sees each utterance processed to completion.
type session struct {
	id       string
	conv     *chat.Conversation
	created  time.Time
	lastUsed time.Time
	mu       sync.Mutex
}

// sessionRegistry holds live sessions in memory.
type sessionRegistry struct {
	engine *chat.Engine
	logger log.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionRegistry(engine *chat.Engine, logger log.Logger) *sessionRegistry {
	return &sessionRegistry{
		engine:   engine,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// create registers a new session and returns its ID.
func (r *sessionRegistry) create() *session {
	s := &session{
		id:       uuid.NewString(),
		conv:     r.engine.NewConversation(),
		created:  time.Now(),
		lastUsed: time.Now(),
	}

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// get returns the session with the given ID, bumping its last-used time.
func (r *sessionRegistry) get(id string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		s.lastUsed = time.Now()
	}
	return s, ok
}

// remove drops a session, e.g. after a quit turn.
func (r *sessionRegistry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// list returns session infos ordered by creation time.
func (r *sessionRegistry) list() []SessionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, SessionInfo{
			ID:        s.id,
			State:     s.conv.State().String(),
			CreatedAt: s.created,
			LastUsed:  s.lastUsed,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// sweep evicts idle sessions until the context is cancelled.
func (r *sessionRegistry) sweep(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle(time.Now())
		}
	}
}

func (r *sessionRegistry) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if now.Sub(s.lastUsed) > sessionIdleTimeout {
			delete(r.sessions, id)
			r.logger.Debug("idle session evicted", "session_id", id)
		}
	}
}

// SessionInfo is the public view of a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  time.Time `json:"lastUsed"`
}

// SessionHandler handles session endpoints.
type SessionHandler struct {
	sessions *sessionRegistry
	logger   log.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *sessionRegistry, logger log.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("POST /api/sessions", h.create)
}

func (h *SessionHandler) create(w http.ResponseWriter, _ *http.Request) {
	s := h.sessions.create()
	h.logger.Info("session created", "session_id", s.id)
	writeJSON(w, http.StatusCreated, SessionInfo{
		ID:        s.id,
		State:     s.conv.State().String(),
		CreatedAt: s.created,
		LastUsed:  s.lastUsed,
	})
}

func (h *SessionHandler) list(w http.ResponseWriter, _ *http.Request) {
	sessions := h.sessions.list()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"total":    len(sessions),
	})
}
