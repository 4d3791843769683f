package workspace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/plugin"
	"github.com/HerbHall/startpage/pkg/tokens"
)

var (
	// ErrNotFound is returned for an unknown workspace id.
	ErrNotFound = errors.New("workspace not found")
	// ErrInvalidName is returned for a blank workspace name.
	ErrInvalidName = errors.New("workspace name must not be blank")
	// ErrInvalidOrder is returned when a reorder does not list every
	// workspace exactly once.
	ErrInvalidOrder = errors.New("order must list every workspace exactly once")
)

// maxNameLength bounds workspace names in runes.
const maxNameLength = 64

// Workspace is a stored workspace.
type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Path      string    `json:"path"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *Workspace) derive() {
	w.Slug = tokens.Slugify(w.Name)
	w.Path = tokens.WorkspacePath(w.Name)
}

// Store provides database operations for workspaces. Mutations are
// serialized and bump an in-memory revision; events are published after
// the lock is released.
type Store struct {
	db     *sql.DB
	tx     func(ctx context.Context, fn func(tx *sql.Tx) error) error
	bus    plugin.Publisher
	logger *zap.Logger

	mu       sync.Mutex
	revision uint64
	now      func() time.Time
}

// NewStore creates a Store on the shared database. bus may be nil.
func NewStore(st plugin.Store, bus plugin.Publisher, logger *zap.Logger) *Store {
	return &Store{db: st.DB(), tx: st.Tx, bus: bus, logger: logger, revision: 1, now: time.Now}
}

// List returns all workspaces by position.
func (s *Store) List(ctx context.Context) ([]Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, position, created_at FROM workspaces ORDER BY position, created_at")
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	out := make([]Workspace, 0)
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Get returns one workspace.
func (s *Store) Get(ctx context.Context, id string) (Workspace, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, position, created_at FROM workspaces WHERE id = ?", id)
	w, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Workspace{}, ErrNotFound
	}
	return w, err
}

// Snapshot returns the list in the resolver's form with the current revision.
func (s *Store) Snapshot(ctx context.Context) (tokens.Workspaces, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(ctx)
}

func (s *Store) snapshotLocked(ctx context.Context) (tokens.Workspaces, error) {
	list, err := s.List(ctx)
	if err != nil {
		return tokens.Workspaces{}, err
	}
	snap := tokens.Workspaces{Revision: s.revision, Items: make([]tokens.Workspace, len(list))}
	for i, w := range list {
		snap.Items[i] = tokens.Workspace{ID: w.ID, Name: w.Name}
	}
	return snap, nil
}

// Create appends a workspace with the given name.
func (s *Store) Create(ctx context.Context, name string) (Workspace, error) {
	name, err := cleanName(name)
	if err != nil {
		return Workspace{}, err
	}

	s.mu.Lock()
	w := Workspace{ID: uuid.NewString(), Name: name, CreatedAt: s.now().UTC()}
	err = s.tx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM workspaces").Scan(&w.Position); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO workspaces (id, name, position, created_at) VALUES (?, ?, ?, ?)",
			w.ID, w.Name, w.Position, w.CreatedAt.Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		s.mu.Unlock()
		return Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	snap, err := s.bumpLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return Workspace{}, err
	}

	w.derive()
	s.publish(ctx, TopicCreated, w, snap)
	return w, nil
}

// Rename changes a workspace's name. The slug, and with it the URL path the
// workspace answers on, changes too.
func (s *Store) Rename(ctx context.Context, id, name string) (Workspace, error) {
	name, err := cleanName(name)
	if err != nil {
		return Workspace{}, err
	}

	s.mu.Lock()
	res, err := s.db.ExecContext(ctx, "UPDATE workspaces SET name = ? WHERE id = ?", name, id)
	if err != nil {
		s.mu.Unlock()
		return Workspace{}, fmt.Errorf("rename workspace: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.mu.Unlock()
		return Workspace{}, ErrNotFound
	}
	snap, err := s.bumpLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return Workspace{}, err
	}

	w, err := s.Get(ctx, id)
	if err != nil {
		return Workspace{}, err
	}
	s.publish(ctx, TopicUpdated, w, snap)
	return w, nil
}

// Delete removes a workspace and closes the gap in positions.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	w, err := s.Get(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	err = s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM workspaces WHERE id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE workspaces SET position = position - 1 WHERE position > ?", w.Position)
		return err
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("delete workspace: %w", err)
	}
	snap, err := s.bumpLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.publish(ctx, TopicDeleted, w, snap)
	return nil
}

// Reorder sets positions to the order of ids, which must be a permutation
// of all workspace ids.
func (s *Store) Reorder(ctx context.Context, ids []string) ([]Workspace, error) {
	s.mu.Lock()
	current, err := s.List(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !samePermutation(current, ids) {
		s.mu.Unlock()
		return nil, ErrInvalidOrder
	}
	err = s.tx(ctx, func(tx *sql.Tx) error {
		for pos, id := range ids {
			if _, err := tx.ExecContext(ctx, "UPDATE workspaces SET position = ? WHERE id = ?", pos, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("reorder workspaces: %w", err)
	}
	snap, err := s.bumpLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publishChanged(ctx, snap)
	return s.List(ctx)
}

func (s *Store) bumpLocked(ctx context.Context) (tokens.Workspaces, error) {
	s.revision++
	return s.snapshotLocked(ctx)
}

func (s *Store) publish(ctx context.Context, topic string, w Workspace, snap tokens.Workspaces) {
	s.logger.Debug("workspace event", zap.String("topic", topic), zap.String("id", w.ID))
	if s.bus == nil {
		return
	}
	s.publishChanged(ctx, snap)
	_ = s.bus.Publish(ctx, plugin.Event{Topic: topic, Source: "workspaces", Payload: &Event{Workspace: w}})
}

func (s *Store) publishChanged(ctx context.Context, snap tokens.Workspaces) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, plugin.Event{Topic: TopicChanged, Source: "workspaces", Payload: &ChangedEvent{Workspaces: snap}})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkspace(row scanner) (Workspace, error) {
	var (
		w       Workspace
		created string
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Position, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workspace{}, err
		}
		return Workspace{}, fmt.Errorf("scan workspace: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Workspace{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	w.CreatedAt = t
	w.derive()
	return w, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name, nil
}

func samePermutation(current []Workspace, ids []string) bool {
	if len(current) != len(ids) {
		return false
	}
	have := make([]string, len(current))
	for i, w := range current {
		have[i] = w.ID
	}
	want := slices.Clone(ids)
	slices.Sort(have)
	slices.Sort(want)
	return slices.Equal(have, want)
}
