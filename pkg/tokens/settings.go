// Package tokens resolves the theme tokens (font, text, accent, glow and
// header colors) a start page renders for a workspace, a URL path and a
// settings document.
//
// The package is pure: it performs no I/O and never mutates the settings it
// is given. Changes to the header color mode are returned as a SettingsPatch
// that the settings owner applies and persists.
package tokens

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Default values applied when a settings document omits a field.
const (
	DefaultFontFamily   = "Inter"
	DefaultPrimaryColor = "#ffffff"
	DefaultAccentColor  = "#ff00ff"
	DefaultGlowColor    = "#00ffff66"

	// TransparentGlow is the glow color used when glow is disabled.
	TransparentGlow = "#00000000"
)

// Settings is the start page configuration document. Only the sub-paths the
// resolver reads or writes are modelled; unknown fields are dropped on decode.
type Settings struct {
	Theme                   ThemeSettings      `json:"theme" yaml:"theme"`
	Appearance              AppearanceSettings `json:"appearance" yaml:"appearance"`
	SpeedDial               SpeedDialSettings  `json:"speedDial" yaml:"speedDial"`
	WorkspaceThemingEnabled bool               `json:"workspaceThemingEnabled" yaml:"workspaceThemingEnabled"`

	// Revision is bumped by the settings owner on every persisted change.
	Revision uint64 `json:"-" yaml:"-"`
}

// ThemeSettings holds the global (base) theme.
type ThemeSettings struct {
	Font        string         `json:"font" yaml:"font"`
	Colors      ThemeColors    `json:"colors" yaml:"colors"`
	IncludeGlow bool           `json:"includeGlow" yaml:"includeGlow"`
	LastIn      LastInSettings `json:"lastIn" yaml:"lastIn"`
}

// ThemeColors holds the base primary (text) and accent colors.
type ThemeColors struct {
	Primary string `json:"primary" yaml:"primary"`
	Accent  string `json:"accent" yaml:"accent"`
}

// LastInSettings controls carrying the last workspace's theme onto the
// default path.
type LastInSettings struct {
	Enabled           bool `json:"enabled" yaml:"enabled"`
	IncludeGlow       bool `json:"includeGlow" yaml:"includeGlow"`
	IncludeTypography bool `json:"includeTypography" yaml:"includeTypography"`
}

// AppearanceSettings selects the font preset and which workspace overrides
// are honored.
type AppearanceSettings struct {
	FontPreset                string `json:"fontPreset" yaml:"fontPreset"`
	MatchWorkspaceFonts       bool   `json:"matchWorkspaceFonts" yaml:"matchWorkspaceFonts"`
	MatchWorkspaceTextColor   bool   `json:"matchWorkspaceTextColor" yaml:"matchWorkspaceTextColor"`
	MatchWorkspaceAccentColor bool   `json:"matchWorkspaceAccentColor" yaml:"matchWorkspaceAccentColor"`
}

// SpeedDialSettings holds the per-workspace overrides.
type SpeedDialSettings struct {
	// AnchoredWorkspaceID names the one workspace that never receives
	// workspace theming. Empty means none.
	AnchoredWorkspaceID string `json:"anchoredWorkspaceId" yaml:"anchoredWorkspaceId"`

	WorkspaceTextFonts    map[string]string `json:"workspaceTextFonts,omitempty" yaml:"workspaceTextFonts,omitempty"`
	WorkspaceTextColors   map[string]string `json:"workspaceTextColors,omitempty" yaml:"workspaceTextColors,omitempty"`
	WorkspaceAccentColors map[string]string `json:"workspaceAccentColors,omitempty" yaml:"workspaceAccentColors,omitempty"`
	WorkspaceGlowColors   map[string]string `json:"workspaceGlowColors,omitempty" yaml:"workspaceGlowColors,omitempty"`

	// WorkspaceTextByURL restricts workspace text/accent theming to paths
	// matching the workspace slug.
	WorkspaceTextByURL bool `json:"workspaceTextByUrl" yaml:"workspaceTextByUrl"`

	WorkspaceHeaderColorMode map[string]HeaderColorMode `json:"workspaceHeaderColorMode,omitempty" yaml:"workspaceHeaderColorMode,omitempty"`

	GlowColor string `json:"glowColor" yaml:"glowColor"`
}

// DefaultSettings returns a settings document with every default applied.
func DefaultSettings() Settings {
	return Settings{
		Theme: ThemeSettings{
			Colors: ThemeColors{
				Primary: DefaultPrimaryColor,
				Accent:  DefaultAccentColor,
			},
			IncludeGlow: true,
			LastIn: LastInSettings{
				Enabled:           true,
				IncludeGlow:       true,
				IncludeTypography: true,
			},
		},
		SpeedDial: SpeedDialSettings{
			GlowColor: DefaultGlowColor,
		},
		WorkspaceThemingEnabled: true,
	}
}

// DecodeSettings decodes a JSON settings document on top of DefaultSettings,
// so fields absent from data keep their defaults.
func DecodeSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Clone returns a deep copy of s. Maps in the copy can be modified without
// affecting s.
func (s Settings) Clone() Settings {
	c := s
	c.SpeedDial.WorkspaceTextFonts = maps.Clone(s.SpeedDial.WorkspaceTextFonts)
	c.SpeedDial.WorkspaceTextColors = maps.Clone(s.SpeedDial.WorkspaceTextColors)
	c.SpeedDial.WorkspaceAccentColors = maps.Clone(s.SpeedDial.WorkspaceAccentColors)
	c.SpeedDial.WorkspaceGlowColors = maps.Clone(s.SpeedDial.WorkspaceGlowColors)
	c.SpeedDial.WorkspaceHeaderColorMode = maps.Clone(s.SpeedDial.WorkspaceHeaderColorMode)
	return c
}

// Workspace is the part of a workspace descriptor the resolver needs.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Workspaces is a revisioned list of workspaces. The owner bumps Revision
// whenever the list changes.
type Workspaces struct {
	Revision uint64
	Items    []Workspace
}

// Find returns the workspace with the given id.
func (w Workspaces) Find(id string) (Workspace, bool) {
	for _, ws := range w.Items {
		if ws.ID == id {
			return ws, true
		}
	}
	return Workspace{}, false
}
