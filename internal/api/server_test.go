package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdityaGirish/Chatbot101/internal/chat"
	"github.com/AdityaGirish/Chatbot101/internal/knowledge"
	"github.com/AdityaGirish/Chatbot101/internal/log"
	"github.com/AdityaGirish/Chatbot101/internal/match"
	"github.com/AdityaGirish/Chatbot101/internal/unsplash"
)

type stubImages struct{}

func (stubImages) Search(context.Context, string) (unsplash.Photo, error) {
	return unsplash.Photo{}, unsplash.ErrNoImage
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := knowledge.NewFileStore(knowledge.Config{
		Path:   filepath.Join(t.TempDir(), "kb.json"),
		Create: true,
		Logger: log.NewNop(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Append("What is Go?", "A programming language."))

	engine, err := chat.New(chat.Config{
		Store:   store,
		Matcher: match.New(match.DefaultThreshold),
		Images:  stubImages{},
		Logger:  log.NewNop(),
	})
	require.NoError(t, err)

	srv, err := NewServer(ServerConfig{
		Engine:    engine,
		RateBurst: 100,
		Logger:    log.NewNop(),
	})
	require.NoError(t, err)
	return srv
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var info SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.NotEmpty(t, info.ID)
	return info.ID
}

func postChat(t *testing.T, h http.Handler, sessionID, message string) (*httptest.ResponseRecorder, chat.Reply) {
	t.Helper()

	body, err := json.Marshal(ChatRequest{SessionID: sessionID, Message: message})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	var reply chat.Reply
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	}
	return rec, reply
}

func TestNewServer_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := NewServer(ServerConfig{Logger: log.NewNop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine is required")
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", rec.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	id := createSession(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Sessions []SessionInfo `json:"sessions"`
		Total    int           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, id, listing.Sessions[0].ID)
	assert.Equal(t, "idle", listing.Sessions[0].State)
}

func TestChat_KnownQuestion(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	id := createSession(t, h)

	rec, reply := postChat(t, h, id, "What is Go?")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "A programming language.", reply.Messages[0].Text)
	assert.False(t, reply.Quit)
}

func TestChat_TeachFlow(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	id := createSession(t, h)

	_, reply := postChat(t, h, id, "What is a goroutine?")
	require.Len(t, reply.Messages, 2)

	rec, reply := postChat(t, h, id, "A lightweight thread.")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "Thank you, response saved!", reply.Messages[0].Text)

	_, reply = postChat(t, h, id, "What is a goroutine?")
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "A lightweight thread.", reply.Messages[0].Text)
}

func TestChat_QuitRemovesSession(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	id := createSession(t, h)

	rec, reply := postChat(t, h, id, "quit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reply.Quit)
	assert.Empty(t, reply.Messages)

	rec, _ = postChat(t, h, id, "hello again")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat_UnknownSession(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()

	rec, _ := postChat(t, h, "no-such-session", "hello")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat_BadRequests(t *testing.T) {
	t.Parallel()

	h := newTestServer(t).Handler()
	id := createSession(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{not json"))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = postChat(t, h, "", "hello")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	long := make([]byte, MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	rec, _ = postChat(t, h, id, string(long))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	srv.limiter = newRateLimiter(0, 3) // no refill, 3 tokens
	h := srv.Handler()

	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	s := srv.sessions.create()

	// Not yet idle.
	srv.sessions.evictIdle(time.Now())
	_, ok := srv.sessions.get(s.id)
	require.True(t, ok)

	// Well past the idle timeout.
	srv.sessions.evictIdle(time.Now().Add(sessionIdleTimeout + time.Hour))
	_, ok = srv.sessions.get(s.id)
	assert.False(t, ok)
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	panics := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := recoveryMiddleware(log.NewNop())(panics)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
