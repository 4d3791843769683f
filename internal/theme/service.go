package theme

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"

	"github.com/HerbHall/startpage/internal/settings"
	"github.com/HerbHall/startpage/internal/workspace"
	"github.com/HerbHall/startpage/pkg/plugin"
	"github.com/HerbHall/startpage/pkg/tokens"
)

// ErrUnknownWorkspace is returned for header mode changes on a workspace id
// that is not in the workspace list.
var ErrUnknownWorkspace = errors.New("unknown workspace")

// SettingsSource is the part of the settings store the service needs.
type SettingsSource interface {
	Current() tokens.Settings
	Update(ctx context.Context, fn func(*tokens.Settings)) (tokens.Settings, error)
}

// WorkspaceSource is the part of the workspace store the service needs.
type WorkspaceSource interface {
	Snapshot(ctx context.Context) (tokens.Workspaces, error)
}

// Service serializes access to one tokens.Resolver and keeps it in step
// with the settings and workspace stores.
//
// Callers resolve per request path. On the default path a request without
// a workspace is resolved for the last workspace that was explicitly
// resolved on a workspace path; that is the workspace Last In carries over.
type Service struct {
	settings SettingsSource
	logger   *zap.Logger

	mu         sync.Mutex
	resolver   *tokens.Resolver
	doc        *tokens.Settings
	workspaces tokens.Workspaces
	lastIn     string
}

// NewService loads the current settings and workspaces and builds the
// resolver.
func NewService(ctx context.Context, st SettingsSource, ws WorkspaceSource, logger *zap.Logger) (*Service, error) {
	snap, err := ws.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workspaces: %w", err)
	}
	doc := st.Current()
	return &Service{
		settings:   st,
		logger:     logger,
		doc:        &doc,
		workspaces: snap,
		resolver:   tokens.NewResolver(&doc, snap, "/", tokens.WithCacheObserver(metricsObserver{})),
	}, nil
}

// Tokens resolves tokens for path. An empty workspaceID on the default
// path means the Last In workspace; on a workspace path it means the
// workspace whose slug matches the path, if any.
func (s *Service) Tokens(path, workspaceID string, opts tokens.Options) tokens.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()

	path = tokens.NormalizePath(path)
	switch {
	case tokens.IsDefaultPath(path):
		if workspaceID == "" {
			workspaceID = s.lastIn
		}
	default:
		if workspaceID == "" {
			workspaceID = s.workspaceForPath(path)
		}
		if _, ok := s.workspaces.Find(workspaceID); ok {
			s.lastIn = workspaceID
		}
	}

	s.resolver.UpdateState(s.doc, s.workspaces, path)
	return s.resolver.Resolve(workspaceID, opts)
}

// Unchangeable resolves tokens for chrome that never follows workspace
// theming.
func (s *Service) Unchangeable(path string) tokens.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver.UpdateState(s.doc, s.workspaces, path)
	return s.resolver.ResolveUnchangeable()
}

// Widget resolves tokens for a widget, which always follows workspace
// theming.
func (s *Service) Widget(path, workspaceID string) tokens.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver.UpdateState(s.doc, s.workspaces, path)
	return s.resolver.ResolveWidget(workspaceID)
}

// LastIn returns the workspace the default path currently carries over.
func (s *Service) LastIn() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastIn
}

// HeaderColorMode returns the header mode of workspaceID; empty means the
// base page.
func (s *Service) HeaderColorMode(workspaceID string) tokens.HeaderColorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.HeaderColorMode(workspaceID)
}

// SetHeaderColorMode records mode and persists it to the settings store.
// An empty workspaceID addresses the base page.
//
// The resolver lock is released before persisting because the store
// publishes settings.changed synchronously and that handler takes it again.
// When persisting fails the resolver is rebound to the last saved document.
func (s *Service) SetHeaderColorMode(ctx context.Context, workspaceID string, mode tokens.HeaderColorMode) (tokens.HeaderColorMode, error) {
	s.mu.Lock()
	if _, ok := s.workspaces.Find(workspaceID); workspaceID != "" && !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownWorkspace, workspaceID)
	}
	patch := s.resolver.SetHeaderColorMode(workspaceID, mode)
	effective := s.resolver.HeaderColorMode(workspaceID)
	s.mu.Unlock()

	if _, err := s.settings.Update(ctx, patch.Apply); err != nil {
		s.discardUnsaved()
		return "", fmt.Errorf("persist header mode: %w", err)
	}
	return effective, nil
}

// discardUnsaved drops resolver state that never reached the settings store.
func (s *Service) discardUnsaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver.Rebind(s.doc)
}

// CacheLen reports the resolver cache size.
func (s *Service) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolver.CacheLen()
}

func (s *Service) workspaceForPath(path string) string {
	for _, ws := range s.workspaces.Items {
		if tokens.MatchesWorkspacePath(ws, path) {
			return ws.ID
		}
	}
	return ""
}

func (s *Service) onSettingsChanged(_ context.Context, e plugin.Event) {
	ce, ok := e.Payload.(*settings.ChangedEvent)
	if !ok {
		s.logger.Warn("unexpected payload type for settings changed event")
		return
	}
	doc := ce.Settings.Clone()
	doc.Revision = ce.Revision

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = &doc
	s.resolver.UpdateState(s.doc, s.workspaces, s.resolver.Path())
}

func (s *Service) onWorkspacesChanged(_ context.Context, e plugin.Event) {
	ce, ok := e.Payload.(*workspace.ChangedEvent)
	if !ok {
		s.logger.Warn("unexpected payload type for workspaces changed event")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces = ce.Workspaces
	if _, ok := s.workspaces.Find(s.lastIn); !ok {
		s.lastIn = ""
	}
	s.resolver.UpdateState(s.doc, s.workspaces, s.resolver.Path())
}

// onWorkspaceDeleted drops the deleted workspace's header mode and its
// other per-workspace overrides from the settings document.
func (s *Service) onWorkspaceDeleted(ctx context.Context, e plugin.Event) {
	we, ok := e.Payload.(*workspace.Event)
	if !ok {
		s.logger.Warn("unexpected payload type for workspace deleted event")
		return
	}
	id := we.Workspace.ID

	s.mu.Lock()
	patch := s.resolver.RemoveWorkspaceSettings(id)
	s.mu.Unlock()

	_, err := s.settings.Update(ctx, func(doc *tokens.Settings) {
		patch.Apply(doc)
		sd := &doc.SpeedDial
		for _, m := range []map[string]string{
			sd.WorkspaceTextFonts, sd.WorkspaceTextColors, sd.WorkspaceAccentColors, sd.WorkspaceGlowColors,
		} {
			delete(m, id)
		}
		if sd.AnchoredWorkspaceID == id {
			sd.AnchoredWorkspaceID = ""
		}
	})
	if err != nil {
		s.discardUnsaved()
		s.logger.Error("failed to remove settings of deleted workspace",
			zap.String("workspace_id", id), zap.Error(err))
		return
	}
	s.logger.Debug("removed settings of deleted workspace", zap.String("workspace_id", id))
}

// headerModes returns a copy of the resolver's header modes for the API.
func (s *Service) headerModes() map[string]tokens.HeaderColorMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.doc.SpeedDial.WorkspaceHeaderColorMode)
}
