package api

import "net/http"

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	sessions *sessionRegistry
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(sessions *sessionRegistry) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 OK once the session registry is in place. The
// knowledge base is loaded before the server starts, so a running
// server is a ready server.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.sessions == nil {
		http.Error(w, "session registry not configured", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
