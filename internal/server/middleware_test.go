package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HerbHall/startpage/pkg/models"
)

func okHandler(status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{"generated", ""},
		{"propagated", "page-load-42"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
			}))
			req := httptest.NewRequest("GET", "/api/v1/theme/tokens", http.NoBody)
			if tc.incoming != "" {
				req.Header.Set("X-Request-ID", tc.incoming)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q: want equal and non-empty", got, seen)
			}
			if tc.incoming != "" && got != tc.incoming {
				t.Errorf("X-Request-ID = %q, want %q", got, tc.incoming)
			}
			if tc.incoming == "" && len(got) != 32 {
				t.Errorf("generated id %q, want 32 hex chars", got)
			}
		})
	}
}

func TestLoggingMiddleware_SkipsOperationalPathsInLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := LoggingMiddleware(zap.New(core), operationalPaths)(okHandler(http.StatusOK))

	healthz := httpRequestsTotal.WithLabelValues("GET", "/healthz", "200")
	before := promtestutil.ToFloat64(healthz)

	for _, path := range []string{"/healthz", "/metrics", "/api/v1/theme/fonts"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, http.NoBody))
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d requests, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["path"]; got != "/api/v1/theme/fonts" {
		t.Errorf("logged path = %v", got)
	}
	if d := promtestutil.ToFloat64(healthz) - before; d != 1 {
		t.Errorf("/healthz counter delta = %v, want 1 (metrics still recorded)", d)
	}
}

func TestLoggingMiddleware_CollapsesIDsInMetrics(t *testing.T) {
	h := LoggingMiddleware(zap.NewNop(), nil)(okHandler(http.StatusCreated))
	c := httpRequestsTotal.WithLabelValues("PUT", "/api/v1/workspaces/{id}", "201")
	before := promtestutil.ToFloat64(c)

	for _, id := range []string{"0b7e5a8e-3f4c-4c1a-9d3e-2a1b6c7d8e9f", "5d2c1f0e-9a8b-4c7d-8e6f-1a2b3c4d5e6f"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("PUT", "/api/v1/workspaces/"+id, http.NoBody))
	}
	if d := promtestutil.ToFloat64(c) - before; d != 2 {
		t.Errorf("counter delta = %v, want 2 on one series", d)
	}
}

func TestMetricPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/v1/theme/tokens", "/api/v1/theme/tokens"},
		{"/api/v1/backgrounds/0b7e5a8e-3f4c-4c1a-9d3e-2a1b6c7d8e9f/content", "/api/v1/backgrounds/{id}/content"},
		{"/api/v1/theme/header-mode/base", "/api/v1/theme/header-mode/base"},
		{"/work", "/work"},
	}
	for _, tc := range tests {
		if got := metricPath(tc.in); got != tc.want {
			t.Errorf("metricPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSecurityHeadersMiddleware_AllowsThemeAndPush(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler(http.StatusOK)).ServeHTTP(w, httptest.NewRequest("GET", "/", http.NoBody))

	csp := w.Header().Get("Content-Security-Policy")
	for _, directive := range []string{
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: blob:",
		"connect-src 'self' ws: wss:",
	} {
		if !strings.Contains(csp, directive) {
			t.Errorf("CSP %q lacks %q", csp, directive)
		}
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestRecoveryMiddleware_WritesProblem(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("resolver exploded")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/theme/tokens", http.NoBody))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var p models.APIProblem
	if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.Type != ProblemType(http.StatusInternalServerError) || p.Instance != "/api/v1/theme/tokens" {
		t.Errorf("problem = %+v", p)
	}
	if strings.Contains(p.Detail, "exploded") {
		t.Error("panic value leaked into the response")
	}
}

func TestRecoveryMiddleware_RepanicsAbortHandler(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/ws/events", http.NoBody))
	t.Error("ErrAbortHandler was swallowed")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(1, 1, operationalPaths)(okHandler(http.StatusOK))
	do := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, http.NoBody)
		req.RemoteAddr = "127.0.0.1:5000"
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}
	before := promtestutil.ToFloat64(httpRateLimited)

	if w := do("/api/v1/theme/tokens", "203.0.113.7"); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	w := do("/api/v1/theme/tokens", "203.0.113.7")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if d := promtestutil.ToFloat64(httpRateLimited) - before; d != 1 {
		t.Errorf("rate limited delta = %v, want 1", d)
	}

	if w := do("/api/v1/theme/tokens", "198.51.100.9"); w.Code != http.StatusOK {
		t.Errorf("other client = %d, want its own bucket", w.Code)
	}
	for _, path := range operationalPaths {
		for i := 0; i < 5; i++ {
			if w := do(path, "203.0.113.7"); w.Code != http.StatusOK {
				t.Fatalf("%s request %d = %d, operational paths are not limited", path, i, w.Code)
			}
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name, remote, xff, want string
	}{
		{"remote addr", "192.168.1.100:12345", "", "192.168.1.100"},
		{"first forwarded hop", "127.0.0.1:12345", "203.0.113.50, 70.41.3.18", "203.0.113.50"},
		{"no port", "unix-socket", "", "unix-socket"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if got := clientIP(req); got != tc.want {
				t.Errorf("clientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusNotFound)
	if sw.status != http.StatusCreated {
		t.Errorf("status = %d, want 201", sw.status)
	}
}

func TestStatusWriter_HijackUnsupported(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	if _, _, err := sw.Hijack(); err == nil {
		t.Error("Hijack() on a recorder should fail")
	}
	if _, ok := sw.Unwrap().(*httptest.ResponseRecorder); !ok {
		t.Error("Unwrap() should return the wrapped writer")
	}
}

// echoSocket upgrades /ws and echoes one message.
type echoSocket struct{}

func (echoSocket) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		typ, msg, err := c.Read(r.Context())
		if err != nil {
			return
		}
		_ = c.Write(r.Context(), typ, msg)
		c.Close(websocket.StatusNormalClosure, "")
	})
}

func TestChain_WebSocketUpgradeThroughMiddleware(t *testing.T) {
	srv := New(&mockPluginSource{}, zap.NewNop(), Options{
		ExtraRoutes: []SimpleRouteRegistrar{echoSocket{}},
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	switchCounter := httpRequestsTotal.WithLabelValues("GET", "/ws", "101")
	before := promtestutil.ToFloat64(switchCounter)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial through middleware chain: %v", err)
	}
	defer c.CloseNow()

	if err := c.Write(ctx, websocket.MessageText, []byte("settings.changed")); err != nil {
		t.Fatal(err)
	}
	_, msg, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "settings.changed" {
		t.Errorf("echo = %q", msg)
	}
	c.Close(websocket.StatusNormalClosure, "")

	// The handler returns after the close handshake; the counter follows.
	deadline := time.Now().Add(2 * time.Second)
	for promtestutil.ToFloat64(switchCounter)-before < 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if d := promtestutil.ToFloat64(switchCounter) - before; d != 1 {
		t.Errorf("101 counter delta = %v, want 1", d)
	}
}
