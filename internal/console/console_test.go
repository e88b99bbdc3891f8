package console

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nhonest/supermarket-web/internal/core/domain"
)

// fakeAPI is an in-process stand-in for the supermarket server.
type fakeAPI struct {
	t *testing.T

	mu       sync.Mutex
	password string
	role     string
	exp      func() int64
	tokens   int

	socket func(conn *websocket.Conn)

	loginCalls   atomic.Int32
	refreshCalls atomic.Int32
	failRefresh  atomic.Bool
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		t:        t,
		password: "correct-horse",
		role:     domain.RoleAdmin,
		exp:      func() int64 { return time.Now().Add(time.Hour).Unix() },
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", f.login)
	mux.HandleFunc("POST /auth/refresh-token", f.refresh)
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
	})
	upgrader := websocket.Upgrader{}
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		f.mu.Lock()
		handle := f.socket
		f.mu.Unlock()
		if handle != nil {
			handle(conn)
		}
		drain(conn)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) setExp(exp func() int64) {
	f.mu.Lock()
	f.exp = exp
	f.mu.Unlock()
}

func (f *fakeAPI) setRole(role string) {
	f.mu.Lock()
	f.role = role
	f.mu.Unlock()
}

func (f *fakeAPI) onSocket(handle func(conn *websocket.Conn)) {
	f.mu.Lock()
	f.socket = handle
	f.mu.Unlock()
}

func (f *fakeAPI) issue() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens++
	return map[string]any{
		"token": "token-" + strconv.Itoa(f.tokens),
		"user":  domain.Principal{ID: "admin-1", Email: "admin@nhonest.ug", Role: f.role, Exp: ptr(f.exp())},
	}
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	f.loginCalls.Add(1)
	var body struct{ Email, Password string }
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	ok := body.Password == f.password
	f.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, f.issue())
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)
	if r.Header.Get("Authorization") == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
		return
	}
	if f.failRefresh.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service temporarily unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, f.issue())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ptr[T any](v T) *T { return &v }

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestApp(t *testing.T, serverURL string, clk *clock) *App {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ServerURL = serverURL
	cfg.StatePath = filepath.Join(t.TempDir(), "state.json")
	app, err := NewApp(cfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	app.now = clk.Now
	return app
}
