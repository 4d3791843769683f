// Package seed populates an empty start page with demo workspaces so the
// theming can be tried out without clicking through the settings.
package seed

import (
	"context"
	"fmt"

	"github.com/HerbHall/startpage/internal/workspace"
	"github.com/HerbHall/startpage/pkg/tokens"
)

// WorkspaceStore is the subset of workspace.Store used for seeding.
type WorkspaceStore interface {
	List(ctx context.Context) ([]workspace.Workspace, error)
	Create(ctx context.Context, name string) (workspace.Workspace, error)
}

// SettingsStore is the subset of settings.Store used for seeding.
type SettingsStore interface {
	Update(ctx context.Context, fn func(*tokens.Settings)) (tokens.Settings, error)
}

// demoWorkspace is one seeded workspace and its theme overrides.
type demoWorkspace struct {
	Name   string
	Font   string
	Text   string
	Accent string
	Glow   string
	Header tokens.HeaderColorMode
}

var demoWorkspaces = []demoWorkspace{
	{Name: "Work", Font: "ibm-plex-sans", Text: "#e8eef7", Accent: "#2f6fde80", Glow: "#2f6fde", Header: tokens.HeaderAccent},
	{Name: "Personal", Font: "nunito", Text: "#fff4e6", Accent: "#e0783180", Glow: "#e07831", Header: tokens.HeaderText},
	{Name: "Reading", Font: "merriweather", Text: "#f3efe4", Accent: "#5a7d5a80", Glow: "#00000000", Header: tokens.HeaderGlow},
}

// Result reports what SeedDemo changed.
type Result struct {
	Created []workspace.Workspace
	Skipped []string
}

// SeedDemo creates the demo workspaces and their overrides. It is
// idempotent: workspaces whose name already exists are left untouched.
func SeedDemo(ctx context.Context, ws WorkspaceStore, st SettingsStore) (Result, error) {
	existing, err := ws.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list workspaces: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, w := range existing {
		taken[w.Name] = true
	}

	var res Result
	themes := make(map[string]demoWorkspace)
	for _, d := range demoWorkspaces {
		if taken[d.Name] {
			res.Skipped = append(res.Skipped, d.Name)
			continue
		}
		w, err := ws.Create(ctx, d.Name)
		if err != nil {
			return res, fmt.Errorf("seed workspace %s: %w", d.Name, err)
		}
		res.Created = append(res.Created, w)
		themes[w.ID] = d
	}
	if len(themes) == 0 {
		return res, nil
	}

	_, err = st.Update(ctx, func(s *tokens.Settings) {
		s.WorkspaceThemingEnabled = true
		s.Appearance.MatchWorkspaceFonts = true
		s.Appearance.MatchWorkspaceTextColor = true
		s.Appearance.MatchWorkspaceAccentColor = true

		sd := &s.SpeedDial
		for id, d := range themes {
			sd.WorkspaceTextFonts = put(sd.WorkspaceTextFonts, id, d.Font)
			sd.WorkspaceTextColors = put(sd.WorkspaceTextColors, id, d.Text)
			sd.WorkspaceAccentColors = put(sd.WorkspaceAccentColors, id, d.Accent)
			sd.WorkspaceGlowColors = put(sd.WorkspaceGlowColors, id, d.Glow)
			if sd.WorkspaceHeaderColorMode == nil {
				sd.WorkspaceHeaderColorMode = make(map[string]tokens.HeaderColorMode)
			}
			sd.WorkspaceHeaderColorMode[id] = d.Header
		}
	})
	if err != nil {
		return res, fmt.Errorf("seed settings: %w", err)
	}
	return res, nil
}

func put(m map[string]string, k, v string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[k] = v
	return m
}
