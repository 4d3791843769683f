// Package settings persists the start page settings document and serves it
// over HTTP.
package settings

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/plugin"
)

var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Module is the settings plugin.
type Module struct {
	logger *zap.Logger
	repo   Repository
	store  *Store
}

// New creates the settings plugin.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "settings",
		Version:     "0.1.0",
		Description: "Settings document storage",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if deps.Store == nil {
		return fmt.Errorf("settings: store is required")
	}
	if err := deps.Store.Migrate(ctx, "settings", migrations()); err != nil {
		return fmt.Errorf("settings migrations: %w", err)
	}
	m.repo = NewSQLiteRepository(deps.Store.DB())
	m.store = NewStore(m.repo, deps.Bus, m.logger)
	if err := m.store.Load(ctx); err != nil {
		return err
	}
	m.logger.Info("settings module initialized", zap.Uint64("revision", m.store.Revision()))
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Store returns the document store. Valid after Init.
func (m *Module) Store() *Store { return m.store }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: m.handleGet},
		{Method: "PUT", Path: "", Handler: m.handlePut},
		{Method: "GET", Path: "/export", Handler: m.handleExport},
		{Method: "POST", Path: "/import", Handler: m.handleImport},
	}
}
