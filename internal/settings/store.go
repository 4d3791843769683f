package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/plugin"
	"github.com/HerbHall/startpage/pkg/tokens"
)

// DocumentKey is the settings_kv key holding the settings document.
const DocumentKey = "startpage.settings"

// TopicChanged is published after every successful save.
const TopicChanged = "settings.changed"

// ChangedEvent is the payload of TopicChanged.
type ChangedEvent struct {
	Settings tokens.Settings `json:"settings"`
	Revision uint64          `json:"revision"`
}

// Store owns the settings document. Reads return deep copies; every
// successful write bumps the revision and publishes TopicChanged.
type Store struct {
	repo   Repository
	bus    plugin.Publisher
	logger *zap.Logger

	mu       sync.RWMutex
	current  tokens.Settings
	revision uint64
}

// NewStore creates a store holding the defaults. Call Load to read the
// persisted document. bus may be nil.
func NewStore(repo Repository, bus plugin.Publisher, logger *zap.Logger) *Store {
	return &Store{
		repo:    repo,
		bus:     bus,
		logger:  logger,
		current: tokens.DefaultSettings(),
	}
}

// Load reads the persisted document, applying defaults for absent fields. A
// missing document leaves the defaults in place. A corrupt document is
// logged and replaced by the defaults in memory; it is not overwritten until
// the next save.
func (s *Store) Load(ctx context.Context) error {
	doc := tokens.DefaultSettings()
	row, err := s.repo.Get(ctx, DocumentKey)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return fmt.Errorf("load settings: %w", err)
	default:
		decoded, decErr := tokens.DecodeSettings([]byte(row.Value))
		if decErr != nil {
			s.logger.Warn("stored settings are unreadable, using defaults", zap.Error(decErr))
		} else {
			doc = decoded
		}
	}

	s.mu.Lock()
	s.revision++
	doc.Revision = s.revision
	s.current = doc
	s.mu.Unlock()
	return nil
}

// Current returns a deep copy of the document with its revision set.
func (s *Store) Current() tokens.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Revision returns the revision of the current document.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Save validates and persists doc, replacing the current document.
func (s *Store) Save(ctx context.Context, doc tokens.Settings) (tokens.Settings, error) {
	return s.Update(ctx, func(cur *tokens.Settings) { *cur = doc.Clone() })
}

// Update applies fn to a copy of the current document, validates and
// persists the result. Concurrent updates are serialized. The change event
// is published after the lock is released, so subscribers may call back
// into the store.
func (s *Store) Update(ctx context.Context, fn func(*tokens.Settings)) (tokens.Settings, error) {
	s.mu.Lock()
	next := s.current.Clone()
	fn(&next)
	if err := Validate(next); err != nil {
		s.mu.Unlock()
		return tokens.Settings{}, err
	}

	data, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return tokens.Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.repo.Set(ctx, DocumentKey, string(data)); err != nil {
		s.mu.Unlock()
		return tokens.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	s.revision++
	next.Revision = s.revision
	s.current = next
	saved := next.Clone()
	s.mu.Unlock()

	s.logger.Debug("settings saved", zap.Uint64("revision", saved.Revision))
	if s.bus != nil {
		_ = s.bus.Publish(ctx, plugin.Event{
			Topic:   TopicChanged,
			Source:  "settings",
			Payload: &ChangedEvent{Settings: saved.Clone(), Revision: saved.Revision},
		})
	}
	return saved, nil
}
