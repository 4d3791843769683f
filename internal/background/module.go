package background

import (
	"context"
	"fmt"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/plugin"
)

// TopicChanged is published after a background is added or removed.
const TopicChanged = "backgrounds.changed"

// DefaultMaxSize is the upload limit when backgrounds.max_size is unset.
const DefaultMaxSize = "10MB"

// ChangedEvent is the payload of TopicChanged.
type ChangedEvent struct {
	Action     string `json:"action"`
	Background Record `json:"background"`
}

var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
	_ plugin.Validator    = (*Module)(nil)
)

// Config holds the backgrounds section of the configuration.
type Config struct {
	MaxSize        string `mapstructure:"max_size"`
	MemoryFallback bool   `mapstructure:"memory_fallback"`
}

// Module is the backgrounds plugin.
type Module struct {
	logger  *zap.Logger
	bus     plugin.Publisher
	cfg     Config
	maxSize int64
	store   Store
}

// New creates the backgrounds plugin.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "backgrounds",
		Version:     "0.1.0",
		Description: "Background image storage",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = Config{MaxSize: DefaultMaxSize, MemoryFallback: true}
	if deps.Config != nil {
		if s := deps.Config.GetString("max_size"); s != "" {
			m.cfg.MaxSize = s
		}
		if deps.Config.IsSet("memory_fallback") {
			m.cfg.MemoryFallback = deps.Config.GetBool("memory_fallback")
		}
	}

	size, err := units.RAMInBytes(m.cfg.MaxSize)
	if err != nil {
		return fmt.Errorf("backgrounds.max_size: %w", err)
	}
	m.maxSize = size

	if deps.Store == nil {
		m.logger.Warn("no database configured, backgrounds are kept in memory")
		m.store = NewMemoryStore()
	} else {
		if err := deps.Store.Migrate(ctx, "backgrounds", migrations()); err != nil {
			return fmt.Errorf("backgrounds migrations: %w", err)
		}
		var st Store = NewSQLiteStore(deps.Store.DB())
		if m.cfg.MemoryFallback {
			st = NewFallbackStore(st, m.logger)
		}
		m.store = st
	}

	m.logger.Info("backgrounds module initialized",
		zap.String("max_size", units.BytesSize(float64(m.maxSize))),
		zap.Bool("memory_fallback", m.cfg.MemoryFallback),
	)
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	if m.maxSize <= 0 {
		return fmt.Errorf("backgrounds.max_size must be positive, got %q", m.cfg.MaxSize)
	}
	return nil
}

func (m *Module) Start(_ context.Context) error { return nil }
func (m *Module) Stop(_ context.Context) error  { return nil }

// Store returns the background store. Valid after Init.
func (m *Module) Store() Store { return m.store }

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "", Handler: m.handleList},
		{Method: "POST", Path: "", Handler: m.handleUpload},
		{Method: "GET", Path: "/{id}", Handler: m.handleGet},
		{Method: "GET", Path: "/{id}/content", Handler: m.handleContent},
		{Method: "DELETE", Path: "/{id}", Handler: m.handleDelete},
	}
}

func (m *Module) publish(ctx context.Context, action string, rec Record) {
	if m.bus == nil {
		return
	}
	_ = m.bus.Publish(ctx, plugin.Event{
		Topic:   TopicChanged,
		Source:  "backgrounds",
		Payload: &ChangedEvent{Action: action, Background: rec},
	})
}
