package tokens

import "maps"

// HeaderColorMode selects which resolved color the workspace header uses.
type HeaderColorMode string

const (
	HeaderText   HeaderColorMode = "text"
	HeaderAccent HeaderColorMode = "accent"
	HeaderGlow   HeaderColorMode = "glow"
)

// BaseHeaderKey is the header mode key used when no workspace is in context.
const BaseHeaderKey = "__base__"

// Valid reports whether m is one of the known modes.
func (m HeaderColorMode) Valid() bool {
	switch m {
	case HeaderText, HeaderAccent, HeaderGlow:
		return true
	}
	return false
}

// ParseHeaderColorMode converts s to a mode. Unknown values yield HeaderText
// and false.
func ParseHeaderColorMode(s string) (HeaderColorMode, bool) {
	m := HeaderColorMode(s)
	if !m.Valid() {
		return HeaderText, false
	}
	return m, true
}

func headerKey(workspaceID string) string {
	if workspaceID == "" {
		return BaseHeaderKey
	}
	return workspaceID
}

// SettingsPatch is a change the resolver wants written back into the
// settings document. The settings owner applies it with Apply and persists
// the result.
type SettingsPatch struct {
	// WorkspaceHeaderColorMode replaces speedDial.workspaceHeaderColorMode.
	WorkspaceHeaderColorMode map[string]HeaderColorMode `json:"workspaceHeaderColorMode"`
}

// Apply writes the patch into s.
func (p SettingsPatch) Apply(s *Settings) {
	s.SpeedDial.WorkspaceHeaderColorMode = maps.Clone(p.WorkspaceHeaderColorMode)
	if s.SpeedDial.WorkspaceHeaderColorMode == nil {
		s.SpeedDial.WorkspaceHeaderColorMode = make(map[string]HeaderColorMode)
	}
}
