// Package theme serves resolved theme tokens over HTTP and keeps the
// resolver in sync with settings and workspace changes.
package theme

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HerbHall/startpage/internal/settings"
	"github.com/HerbHall/startpage/internal/workspace"
	"github.com/HerbHall/startpage/pkg/plugin"
)

var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module is the theme plugin.
type Module struct {
	logger  *zap.Logger
	service *Service
}

// New creates the theme plugin.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "theme",
		Version:      "0.1.0",
		Description:  "Theme token resolution",
		Dependencies: []string{"settings", "workspaces"},
		Required:     true,
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if deps.Plugins == nil {
		return fmt.Errorf("theme: plugin resolver is required")
	}

	sp, ok := deps.Plugins.Resolve("settings")
	if !ok {
		return fmt.Errorf("theme: settings plugin not available")
	}
	sm, ok := sp.(*settings.Module)
	if !ok {
		return fmt.Errorf("theme: unexpected settings plugin type %T", sp)
	}
	wp, ok := deps.Plugins.Resolve("workspaces")
	if !ok {
		return fmt.Errorf("theme: workspaces plugin not available")
	}
	wm, ok := wp.(*workspace.Module)
	if !ok {
		return fmt.Errorf("theme: unexpected workspaces plugin type %T", wp)
	}

	svc, err := NewService(ctx, sm.Store(), wm.Store(), m.logger)
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}
	m.service = svc
	m.logger.Info("theme module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Service returns the token service. Valid after Init.
func (m *Module) Service() *Service { return m.service }

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: settings.TopicChanged, Handler: m.service.onSettingsChanged},
		{Topic: workspace.TopicChanged, Handler: m.service.onWorkspacesChanged},
		{Topic: workspace.TopicDeleted, Handler: m.service.onWorkspaceDeleted},
	}
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/tokens", Handler: m.handleTokens},
		{Method: "GET", Path: "/tokens/unchangeable", Handler: m.handleUnchangeable},
		{Method: "GET", Path: "/tokens/widget/{id}", Handler: m.handleWidget},
		{Method: "GET", Path: "/header-mode", Handler: m.handleListHeaderModes},
		{Method: "GET", Path: "/header-mode/{id}", Handler: m.handleGetHeaderMode},
		{Method: "PUT", Path: "/header-mode/{id}", Handler: m.handleSetHeaderMode},
		{Method: "GET", Path: "/fonts", Handler: m.handleFonts},
	}
}
