// Package testutil holds fixtures shared by module tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/startpage/internal/config"
	"github.com/HerbHall/startpage/internal/event"
	"github.com/HerbHall/startpage/internal/store"
	"github.com/HerbHall/startpage/pkg/plugin"
	"github.com/HerbHall/startpage/pkg/tokens"
)

// NewStore opens a fresh SQLite database under t.TempDir.
func NewStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// NewDeps returns dependencies backed by a fresh store and bus. Pass a
// resolver when the module under test looks up other modules.
func NewDeps(t *testing.T, name string, plugins plugin.PluginResolver) plugin.Dependencies {
	t.Helper()
	return plugin.Dependencies{
		Config:  config.New(nil),
		Logger:  zap.NewNop().Named(name),
		Store:   NewStore(t),
		Bus:     event.NewBus(zap.NewNop()),
		Plugins: plugins,
	}
}

// Resolver is a map-backed plugin.PluginResolver.
type Resolver map[string]plugin.Plugin

// Resolve implements plugin.PluginResolver.
func (r Resolver) Resolve(name string) (plugin.Plugin, bool) {
	p, ok := r[name]
	return p, ok
}

// NewSettings returns default settings with workspace theming enabled and
// every "match workspace" switch on. Override fields with opts.
func NewSettings(opts ...func(*tokens.Settings)) tokens.Settings {
	s := tokens.DefaultSettings()
	s.Appearance.MatchWorkspaceFonts = true
	s.Appearance.MatchWorkspaceTextColor = true
	s.Appearance.MatchWorkspaceAccentColor = true
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithWorkspaceColors sets text, accent and glow overrides for id.
func WithWorkspaceColors(id, text, accent, glow string) func(*tokens.Settings) {
	return func(s *tokens.Settings) {
		s.SpeedDial.WorkspaceTextColors = setKey(s.SpeedDial.WorkspaceTextColors, id, text)
		s.SpeedDial.WorkspaceAccentColors = setKey(s.SpeedDial.WorkspaceAccentColors, id, accent)
		s.SpeedDial.WorkspaceGlowColors = setKey(s.SpeedDial.WorkspaceGlowColors, id, glow)
	}
}

// WithWorkspaceFont sets the font override for id.
func WithWorkspaceFont(id, font string) func(*tokens.Settings) {
	return func(s *tokens.Settings) {
		s.SpeedDial.WorkspaceTextFonts = setKey(s.SpeedDial.WorkspaceTextFonts, id, font)
	}
}

// WithAnchored sets the anchored workspace.
func WithAnchored(id string) func(*tokens.Settings) {
	return func(s *tokens.Settings) { s.SpeedDial.AnchoredWorkspaceID = id }
}

// WithURLGate turns on speedDial.workspaceTextByUrl.
func WithURLGate() func(*tokens.Settings) {
	return func(s *tokens.Settings) { s.SpeedDial.WorkspaceTextByURL = true }
}

// NewWorkspaces builds a workspace list with random ids in the given order.
func NewWorkspaces(names ...string) tokens.Workspaces {
	ws := tokens.Workspaces{Revision: 1}
	for _, n := range names {
		ws.Items = append(ws.Items, tokens.Workspace{ID: uuid.NewString(), Name: n})
	}
	return ws
}

func setKey(m map[string]string, k, v string) map[string]string {
	if v == "" {
		return m
	}
	if m == nil {
		m = make(map[string]string)
	}
	m[k] = v
	return m
}
