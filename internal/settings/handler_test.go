package settings_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HerbHall/startpage/internal/settings"
	"github.com/HerbHall/startpage/internal/testutil"
	"github.com/HerbHall/startpage/pkg/tokens"
)

func setupHandlerEnv(t *testing.T) (*settings.Module, *http.ServeMux) {
	t.Helper()
	m := settings.New()
	if err := m.Init(context.Background(), testutil.NewDeps(t, "settings", nil)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/settings"+r.Path, r.Handler)
	}
	return m, mux
}

func doRequest(mux *http.ServeMux, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleGet(t *testing.T) {
	_, mux := setupHandlerEnv(t)
	w := doRequest(mux, "GET", "/api/v1/settings", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("ETag") != `"1"` {
		t.Errorf("ETag = %q", w.Header().Get("ETag"))
	}
	var doc tokens.Settings
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.SpeedDial.GlowColor != tokens.DefaultGlowColor {
		t.Errorf("glowColor = %q", doc.SpeedDial.GlowColor)
	}
}

func TestHandlePut(t *testing.T) {
	m, mux := setupHandlerEnv(t)

	w := doRequest(mux, "PUT", "/api/v1/settings", `{"theme":{"colors":{"primary":"#222222"}}}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if got := m.Store().Current().Theme.Colors.Primary; got != "#222222" {
		t.Errorf("stored primary = %q", got)
	}
	if w.Header().Get("ETag") != `"2"` {
		t.Errorf("ETag = %q", w.Header().Get("ETag"))
	}
}

func TestHandlePut_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		header map[string]string
		want   int
	}{
		{"malformed", `{"theme":`, nil, http.StatusBadRequest},
		{"invalid color", `{"theme":{"colors":{"accent":"purple"}}}`, nil, http.StatusBadRequest},
		{"stale if-match", `{}`, map[string]string{"If-Match": `"99"`}, http.StatusPreconditionFailed},
		{"too large", `{"theme":{"font":"` + strings.Repeat("x", 2<<20) + `"}}`, nil, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mux := setupHandlerEnv(t)
			w := doRequest(mux, "PUT", "/api/v1/settings", tt.body, tt.header)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestHandleExportImport(t *testing.T) {
	m, mux := setupHandlerEnv(t)
	_, err := m.Store().Update(context.Background(), func(s *tokens.Settings) {
		s.Appearance.FontPreset = "orbitron"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	w := doRequest(mux, "GET", "/api/v1/settings/export?format=yaml", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/yaml" {
		t.Errorf("Content-Type = %q", ct)
	}
	exported := w.Body.String()
	if !strings.Contains(exported, "fontPreset: orbitron") {
		t.Fatalf("export missing preset:\n%s", exported)
	}

	// Reset, then restore from the export.
	m.Store().Save(context.Background(), tokens.DefaultSettings())
	w = doRequest(mux, "POST", "/api/v1/settings/import?format=yaml", exported, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d, body = %s", w.Code, w.Body)
	}
	if got := m.Store().Current().Appearance.FontPreset; got != "orbitron" {
		t.Errorf("FontPreset after import = %q", got)
	}
}

func TestHandleExport_BadFormat(t *testing.T) {
	_, mux := setupHandlerEnv(t)
	w := doRequest(mux, "GET", "/api/v1/settings/export?format=ini", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	w = doRequest(mux, "POST", "/api/v1/settings/import", `{"appearance":{"fontPreset":"comic"}}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("import unknown preset status = %d", w.Code)
	}
}
