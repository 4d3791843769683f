package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/HerbHall/startpage/pkg/tokens"
)

// ErrInvalidSettings wraps every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Validate checks the fields the resolver consumes: colors must be hex
// (#rgb, #rrggbb or #rrggbbaa), header modes must be known and the font
// preset must be empty or a known preset. Empty colors are allowed; the
// resolver falls back to defaults for them.
func Validate(s tokens.Settings) error {
	var problems []string
	checkColor := func(field, value string) {
		if value == "" {
			return
		}
		if _, err := colorful.Hex(tokens.StripAlpha(value)); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %q is not a hex color", field, value))
		}
	}
	checkColorMap := func(field string, m map[string]string) {
		for _, id := range sortedKeys(m) {
			checkColor(field+"."+id, m[id])
		}
	}

	checkColor("theme.colors.primary", s.Theme.Colors.Primary)
	checkColor("theme.colors.accent", s.Theme.Colors.Accent)
	checkColor("speedDial.glowColor", s.SpeedDial.GlowColor)
	checkColorMap("speedDial.workspaceTextColors", s.SpeedDial.WorkspaceTextColors)
	checkColorMap("speedDial.workspaceAccentColors", s.SpeedDial.WorkspaceAccentColors)
	checkColorMap("speedDial.workspaceGlowColors", s.SpeedDial.WorkspaceGlowColors)

	if p := s.Appearance.FontPreset; strings.TrimSpace(p) != "" {
		if _, ok := tokens.LookupFontPreset(p); !ok {
			problems = append(problems, fmt.Sprintf("appearance.fontPreset: unknown preset %q", p))
		}
	}

	for _, id := range sortedKeys(s.SpeedDial.WorkspaceHeaderColorMode) {
		if m := s.SpeedDial.WorkspaceHeaderColorMode[id]; !m.Valid() {
			problems = append(problems, fmt.Sprintf("speedDial.workspaceHeaderColorMode.%s: unknown mode %q", id, m))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
