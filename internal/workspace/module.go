// Package workspace stores the ordered list of start page workspaces.
package workspace

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

// Module is the workspaces plugin.
type Module struct {
	logger *zap.Logger
	store  *Store
}

// New creates the workspaces plugin.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "workspaces",
		Version:     "0.1.0",
		Description: "Workspace list and ordering",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	if deps.Store == nil {
		return fmt.Errorf("workspaces: store is required")
	}
	if err := deps.Store.Migrate(ctx, "workspaces", migrations()); err != nil {
		return fmt.Errorf("workspaces migrations: %w", err)
	}
	m.store = NewStore(deps.Store, deps.Bus, m.logger)
	m.logger.Info("workspaces module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Store returns the workspace store. Valid after Init.
func (m *Module) Store() *Store { return m.store }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: m.handleList},
		{Method: "POST", Path: "", Handler: m.handleCreate},
		{Method: "PUT", Path: "/order", Handler: m.handleReorder},
		{Method: "GET", Path: "/{id}", Handler: m.handleGet},
		{Method: "PUT", Path: "/{id}", Handler: m.handleRename},
		{Method: "DELETE", Path: "/{id}", Handler: m.handleDelete},
	}
}
