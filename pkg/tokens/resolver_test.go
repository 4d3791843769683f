package tokens

import (
	"fmt"
	"testing"
)

type countingObserver struct {
	hits, misses, evictions, resets int
}

func (o *countingObserver) CacheHit()     { o.hits++ }
func (o *countingObserver) CacheMiss()    { o.misses++ }
func (o *countingObserver) CacheEvicted() { o.evictions++ }
func (o *countingObserver) CacheReset()   { o.resets++ }

func workSettings() *Settings {
	s := DefaultSettings()
	s.Theme.Colors.Primary = "#ffffff"
	s.Theme.Colors.Accent = "#ff00ff"
	s.Appearance.MatchWorkspaceFonts = true
	s.Appearance.MatchWorkspaceTextColor = true
	s.Appearance.MatchWorkspaceAccentColor = true
	s.SpeedDial.WorkspaceTextFonts = map[string]string{"ws1": "Bebas Neue"}
	s.SpeedDial.WorkspaceTextColors = map[string]string{"ws1": "#00ff00aa"}
	s.SpeedDial.WorkspaceAccentColors = map[string]string{"ws1": "#ff0000"}
	s.SpeedDial.WorkspaceGlowColors = map[string]string{"ws1": "#123456cc"}
	return &s
}

func workspaces() Workspaces {
	return Workspaces{Revision: 1, Items: []Workspace{
		{ID: "ws1", Name: "My Work"},
		{ID: "ws2", Name: "Home"},
	}}
}

func TestResolve_EndToEndScenario(t *testing.T) {
	s := DefaultSettings()
	s.Theme.Colors = ThemeColors{Primary: "#ffffff", Accent: "#ff00ff"}
	s.Theme.IncludeGlow = true
	s.Appearance.MatchWorkspaceAccentColor = true
	s.SpeedDial.GlowColor = "#00ffff66"
	s.SpeedDial.WorkspaceAccentColors = map[string]string{"ws1": "#ff0000"}

	ws := Workspaces{Items: []Workspace{{ID: "ws1", Name: "Work"}}}
	r := NewResolver(&s, ws, "/work")

	got := r.Resolve("ws1", Options{})
	if got.AccentColor != "#ff0000" {
		t.Errorf("AccentColor = %q, want %q", got.AccentColor, "#ff0000")
	}
	if got.GlowColor != "#00ffff66" {
		t.Errorf("GlowColor = %q, want %q", got.GlowColor, "#00ffff66")
	}
	if got.TextColor != "#ffffff" {
		t.Errorf("TextColor = %q, want %q", got.TextColor, "#ffffff")
	}
	if got.HeaderColor != got.TextColor {
		t.Errorf("HeaderColor = %q, want text color %q", got.HeaderColor, got.TextColor)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	obs := &countingObserver{}
	r := NewResolver(workSettings(), workspaces(), "/my-work", WithCacheObserver(obs))

	first := r.Resolve("ws1", Options{})
	second := r.Resolve("ws1", Options{})

	if first != second {
		t.Errorf("second Resolve = %+v, want %+v", second, first)
	}
	if obs.misses != 1 || obs.hits != 1 {
		t.Errorf("misses=%d hits=%d, want 1 and 1", obs.misses, obs.hits)
	}
	if second.Meta.Sequence != first.Meta.Sequence {
		t.Errorf("cached Sequence = %d, want %d", second.Meta.Sequence, first.Meta.Sequence)
	}
}

func TestResolve_AnchoredWorkspaceGetsBaseColors(t *testing.T) {
	s := workSettings()
	s.SpeedDial.AnchoredWorkspaceID = "ws1"
	s.Appearance.MatchWorkspaceFonts = true

	tests := []struct {
		name string
		path string
		opts Options
	}{
		{name: "matching path", path: "/my-work"},
		{name: "default path", path: "/"},
		{name: "forced", path: "/elsewhere", opts: Options{ForceWorkspaceTheming: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(s, workspaces(), tt.path)
			got := r.Resolve("ws1", tt.opts)

			if got.TextColor != "#ffffff" {
				t.Errorf("TextColor = %q, want base #ffffff", got.TextColor)
			}
			if got.AccentColor != "#ff00ff" {
				t.Errorf("AccentColor = %q, want base #ff00ff", got.AccentColor)
			}
			if got.GlowColor != DefaultGlowColor {
				t.Errorf("GlowColor = %q, want %q", got.GlowColor, DefaultGlowColor)
			}
			if got.FontFamily != DefaultFontFamily {
				t.Errorf("FontFamily = %q, want base %q", got.FontFamily, DefaultFontFamily)
			}
			if !got.Meta.IsAnchored {
				t.Error("Meta.IsAnchored = false, want true")
			}
		})
	}
}

func TestResolve_SlugGating(t *testing.T) {
	s := workSettings()
	s.SpeedDial.WorkspaceTextByURL = true

	tests := []struct {
		path  string
		apply bool
	}{
		{path: "/my-work", apply: true},
		{path: "/my-work/", apply: true},
		{path: "/other", apply: false},
		{path: "/my-work/sub", apply: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r := NewResolver(s, workspaces(), tt.path)
			got := r.Resolve("ws1", Options{})

			if got.Meta.ApplyTypography != tt.apply {
				t.Errorf("ApplyTypography = %v, want %v", got.Meta.ApplyTypography, tt.apply)
			}
			if got.Meta.ApplyGlow != tt.apply {
				t.Errorf("ApplyGlow = %v, want %v", got.Meta.ApplyGlow, tt.apply)
			}
			wantText := "#ffffff"
			if tt.apply {
				wantText = "#00ff00"
			}
			if got.TextColor != wantText {
				t.Errorf("TextColor = %q, want %q", got.TextColor, wantText)
			}
		})
	}
}

func TestResolve_SlugGatingUnknownWorkspace(t *testing.T) {
	s := workSettings()
	s.SpeedDial.WorkspaceTextByURL = true
	r := NewResolver(s, workspaces(), "/my-work")

	got := r.Resolve("missing", Options{})
	if got.Meta.BaseShouldApply {
		t.Error("BaseShouldApply = true for a workspace not in the list")
	}
}

func TestResolve_ForceBypassesSlugGate(t *testing.T) {
	s := workSettings()
	s.SpeedDial.WorkspaceTextByURL = true
	r := NewResolver(s, workspaces(), "/other")

	got := r.ResolveWidget("ws1")
	if !got.Meta.ApplyTypography {
		t.Error("ApplyTypography = false, want true for widget tokens")
	}
	if got.AccentColor != "#ff0000" {
		t.Errorf("AccentColor = %q, want %q", got.AccentColor, "#ff0000")
	}
	if got.GlowColor != "#123456cc" {
		t.Errorf("GlowColor = %q, want workspace glow with alpha", got.GlowColor)
	}
}

func TestResolve_FontOverrideIgnoresSlugGate(t *testing.T) {
	s := workSettings()
	s.SpeedDial.WorkspaceTextByURL = true
	r := NewResolver(s, workspaces(), "/does-not-match")

	got := r.Resolve("ws1", Options{})
	want := `"Bebas Neue", Impact, sans-serif`
	if got.FontFamily != want {
		t.Errorf("FontFamily = %q, want %q", got.FontFamily, want)
	}
	if got.Meta.ApplyTypography {
		t.Error("ApplyTypography = true, want false on a non-matching path")
	}
}

func TestResolve_UnchangeableOptions(t *testing.T) {
	r := NewResolver(workSettings(), workspaces(), "/my-work")

	got := r.Resolve("ws1", Options{UnchangeableFont: true, UnchangeableTextColor: true})
	if got.FontFamily != DefaultFontFamily {
		t.Errorf("FontFamily = %q, want %q", got.FontFamily, DefaultFontFamily)
	}
	if got.TextColor != "#ffffff" {
		t.Errorf("TextColor = %q, want base", got.TextColor)
	}
	// Accent is not pinned by either option.
	if got.AccentColor != "#ff0000" {
		t.Errorf("AccentColor = %q, want workspace accent", got.AccentColor)
	}
}

func TestResolveUnchangeable(t *testing.T) {
	r := NewResolver(workSettings(), workspaces(), "/my-work")

	got := r.ResolveUnchangeable()
	if got.FontFamily != DefaultFontFamily || got.TextColor != "#ffffff" || got.AccentColor != "#ff00ff" {
		t.Errorf("ResolveUnchangeable = %+v, want base tokens", got)
	}
	if !got.Meta.Options.ExcludeBackground {
		t.Error("Options.ExcludeBackground = false, want true")
	}
}

func TestResolve_AlphaStripping(t *testing.T) {
	s := DefaultSettings()
	s.Theme.Colors.Primary = "#11223344"
	r := NewResolver(&s, Workspaces{}, "/")

	got := r.Resolve("", Options{})
	if got.TextColor != "#112233" {
		t.Errorf("TextColor = %q, want %q", got.TextColor, "#112233")
	}
}

func TestResolve_GlowFallbackChain(t *testing.T) {
	tests := []struct {
		name        string
		includeGlow bool
		glowColor   string
		want        string
	}{
		{name: "glow disabled", includeGlow: false, glowColor: "#abcdef", want: TransparentGlow},
		{name: "default glow", includeGlow: true, glowColor: "", want: "#00ffff66"},
		{name: "configured glow", includeGlow: true, glowColor: "#abcdef80", want: "#abcdef80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			s.Theme.IncludeGlow = tt.includeGlow
			s.SpeedDial.GlowColor = tt.glowColor
			r := NewResolver(&s, Workspaces{}, "/")

			if got := r.Resolve("", Options{}).GlowColor; got != tt.want {
				t.Errorf("GlowColor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_AccentFallsBackToGlow(t *testing.T) {
	s := workSettings()
	delete(s.SpeedDial.WorkspaceAccentColors, "ws1")
	r := NewResolver(s, workspaces(), "/my-work")

	got := r.Resolve("ws1", Options{})
	if got.AccentColor != "#123456" {
		t.Errorf("AccentColor = %q, want glow without alpha %q", got.AccentColor, "#123456")
	}
}

func TestResolve_MasterSwitchOff(t *testing.T) {
	s := workSettings()
	s.WorkspaceThemingEnabled = false
	r := NewResolver(s, workspaces(), "/my-work")

	got := r.Resolve("ws1", Options{ForceWorkspaceTheming: true})
	if got.Meta.BaseShouldApply {
		t.Error("BaseShouldApply = true with theming disabled")
	}
	if got.FontFamily != DefaultFontFamily || got.TextColor != "#ffffff" || got.AccentColor != "#ff00ff" {
		t.Errorf("tokens = %+v, want base tokens", got)
	}
}

func TestResolve_LastInCarryOver(t *testing.T) {
	s := workSettings()
	s.SpeedDial.WorkspaceTextByURL = true

	t.Run("default path reapplies previous workspace", func(t *testing.T) {
		r := NewResolver(s, workspaces(), "/")
		got := r.Resolve("ws1", Options{})
		if !got.Meta.AllowLastInGlow || !got.Meta.AllowLastInTypography {
			t.Fatalf("Meta = %+v, want Last In allowed", got.Meta)
		}
		if got.TextColor != "#00ff00" {
			t.Errorf("TextColor = %q, want workspace text", got.TextColor)
		}
		if got.GlowColor != "#123456cc" {
			t.Errorf("GlowColor = %q, want workspace glow", got.GlowColor)
		}
	})

	t.Run("index.html counts as default path", func(t *testing.T) {
		r := NewResolver(s, workspaces(), "/index.html")
		if got := r.Resolve("ws1", Options{}); !got.Meta.AllowLastInGlow {
			t.Error("AllowLastInGlow = false on /index.html")
		}
	})

	t.Run("glow only", func(t *testing.T) {
		s2 := s.Clone()
		s2.Theme.LastIn.IncludeTypography = false
		r := NewResolver(&s2, workspaces(), "/")
		got := r.Resolve("ws1", Options{})
		if got.TextColor != "#ffffff" {
			t.Errorf("TextColor = %q, want base", got.TextColor)
		}
		if got.GlowColor != "#123456cc" {
			t.Errorf("GlowColor = %q, want workspace glow", got.GlowColor)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		s2 := s.Clone()
		s2.Theme.LastIn.Enabled = false
		r := NewResolver(&s2, workspaces(), "/")
		got := r.Resolve("ws1", Options{})
		if got.Meta.ApplyGlow || got.Meta.ApplyTypography {
			t.Errorf("Meta = %+v, want nothing applied", got.Meta)
		}
	})

	t.Run("no workspace supplied", func(t *testing.T) {
		r := NewResolver(s, workspaces(), "/")
		if got := r.Resolve("", Options{}); got.Meta.AllowLastInGlow {
			t.Error("AllowLastInGlow = true without a workspace id")
		}
	})
}

func TestResolve_CacheEvictionIsFIFO(t *testing.T) {
	obs := &countingObserver{}
	r := NewResolver(workSettings(), workspaces(), "/", WithCacheObserver(obs))

	first := r.Resolve("ws-0", Options{})
	for i := 1; i <= MaxCacheEntries; i++ {
		r.Resolve(fmt.Sprintf("ws-%d", i), Options{})
	}

	if r.CacheLen() != MaxCacheEntries {
		t.Errorf("CacheLen = %d, want %d", r.CacheLen(), MaxCacheEntries)
	}
	if obs.evictions != 1 {
		t.Errorf("evictions = %d, want 1", obs.evictions)
	}

	again := r.Resolve("ws-0", Options{})
	if again.Meta.Sequence == first.Meta.Sequence {
		t.Error("earliest entry served from cache after eviction")
	}

	// Re-inserting ws-0 evicted ws-1; the newest entry is still cached.
	hitsBefore := obs.hits
	r.Resolve(fmt.Sprintf("ws-%d", MaxCacheEntries), Options{})
	if obs.hits != hitsBefore+1 {
		t.Error("most recent entry not served from cache")
	}
}

func TestResolve_OptionsAreCacheKeyed(t *testing.T) {
	r := NewResolver(workSettings(), workspaces(), "/my-work")

	plain := r.Resolve("ws1", Options{})
	pinned := r.Resolve("ws1", Options{UnchangeableTextColor: true})
	if plain.TextColor == pinned.TextColor {
		t.Errorf("TextColor %q identical for different options", plain.TextColor)
	}
	if r.CacheLen() != 2 {
		t.Errorf("CacheLen = %d, want 2", r.CacheLen())
	}
}

func TestUpdateState_CacheInvalidation(t *testing.T) {
	s := workSettings()
	s.Revision = 1
	ws := workspaces()
	obs := &countingObserver{}
	r := NewResolver(s, ws, "/my-work", WithCacheObserver(obs))
	r.Resolve("ws1", Options{})

	r.UpdateState(s, ws, "/other")
	if r.CacheLen() != 1 {
		t.Errorf("CacheLen after path change = %d, want 1", r.CacheLen())
	}
	if r.Path() != "/other" {
		t.Errorf("Path = %q, want /other", r.Path())
	}

	ws.Revision++
	r.UpdateState(s, ws, "/other")
	if r.CacheLen() != 0 {
		t.Errorf("CacheLen after workspaces change = %d, want 0", r.CacheLen())
	}

	r.Resolve("ws1", Options{})
	next := s.Clone()
	next.Revision = 2
	next.Theme.Colors.Primary = "#000000"
	r.UpdateState(&next, ws, "/other")
	if r.CacheLen() != 0 {
		t.Errorf("CacheLen after settings change = %d, want 0", r.CacheLen())
	}
	if got := r.Resolve("ws2", Options{}).TextColor; got != "#000000" {
		t.Errorf("TextColor = %q, want new base #000000", got)
	}
	if obs.resets != 2 {
		t.Errorf("resets = %d, want 2", obs.resets)
	}
}

func TestHeaderColorMode(t *testing.T) {
	s := workSettings()
	s.SpeedDial.WorkspaceHeaderColorMode = map[string]HeaderColorMode{"ws1": HeaderAccent}
	r := NewResolver(s, workspaces(), "/my-work")

	if got := r.HeaderColorMode("ws1"); got != HeaderAccent {
		t.Errorf("HeaderColorMode(ws1) = %q, want accent", got)
	}
	if got := r.HeaderColorMode(""); got != HeaderText {
		t.Errorf("HeaderColorMode(base) = %q, want text", got)
	}
	if got := r.Resolve("ws1", Options{}).HeaderColor; got != "#ff0000" {
		t.Errorf("HeaderColor = %q, want accent #ff0000", got)
	}
}

func TestSetHeaderColorMode(t *testing.T) {
	s := workSettings()
	r := NewResolver(s, workspaces(), "/my-work")

	before := r.Resolve("ws1", Options{})
	if before.HeaderColor != "#00ff00" {
		t.Fatalf("HeaderColor = %q, want text color", before.HeaderColor)
	}

	patch := r.SetHeaderColorMode("ws1", HeaderGlow)
	if s.SpeedDial.WorkspaceHeaderColorMode != nil {
		t.Error("SetHeaderColorMode mutated the caller's settings")
	}
	if patch.WorkspaceHeaderColorMode["ws1"] != HeaderGlow {
		t.Errorf("patch = %+v, want ws1=glow", patch)
	}

	after := r.Resolve("ws1", Options{})
	if after.HeaderColor != "#123456" {
		t.Errorf("HeaderColor after mode change = %q, want glow without alpha", after.HeaderColor)
	}

	patch.Apply(s)
	if s.SpeedDial.WorkspaceHeaderColorMode["ws1"] != HeaderGlow {
		t.Error("Apply did not write the header mode")
	}
}

func TestSetHeaderColorMode_InvalidAndBase(t *testing.T) {
	r := NewResolver(nil, Workspaces{}, "/")

	patch := r.SetHeaderColorMode("", HeaderColorMode("rainbow"))
	if got := patch.WorkspaceHeaderColorMode[BaseHeaderKey]; got != HeaderText {
		t.Errorf("base mode = %q, want text", got)
	}
}

func TestRemoveWorkspaceSettings(t *testing.T) {
	s := workSettings()
	s.SpeedDial.WorkspaceHeaderColorMode = map[string]HeaderColorMode{
		"ws1": HeaderGlow,
		"ws2": HeaderAccent,
	}
	r := NewResolver(s, workspaces(), "/")

	patch := r.RemoveWorkspaceSettings("ws1")
	if _, ok := patch.WorkspaceHeaderColorMode["ws1"]; ok {
		t.Error("ws1 still present in patch")
	}
	if patch.WorkspaceHeaderColorMode["ws2"] != HeaderAccent {
		t.Error("ws2 dropped from patch")
	}
	if got := r.HeaderColorMode("ws1"); got != HeaderText {
		t.Errorf("HeaderColorMode(ws1) = %q, want text", got)
	}
}

func TestRebind_DiscardsUnsavedHeaderMode(t *testing.T) {
	s := workSettings()
	r := NewResolver(s, workspaces(), "/my-work")

	r.SetHeaderColorMode("ws1", HeaderAccent)
	if got := r.Resolve("ws1", Options{}).HeaderColor; got != "#ff0000" {
		t.Fatalf("HeaderColor = %q, want accent", got)
	}

	r.Rebind(s)
	if got := r.HeaderColorMode("ws1"); got != HeaderText {
		t.Errorf("HeaderColorMode after Rebind = %q, want text", got)
	}
	if r.CacheLen() != 0 {
		t.Errorf("CacheLen after Rebind = %d, want 0", r.CacheLen())
	}
	if got := r.Resolve("ws1", Options{}).HeaderColor; got != "#00ff00" {
		t.Errorf("HeaderColor after Rebind = %q, want text color", got)
	}
}

func TestUpdateState_SameRevisionKeepsHeaderModes(t *testing.T) {
	s := workSettings()
	s.Revision = 3
	r := NewResolver(s, workspaces(), "/my-work")

	next := s.Clone()
	next.SpeedDial.WorkspaceHeaderColorMode = map[string]HeaderColorMode{"ws1": HeaderGlow}
	r.UpdateState(&next, workspaces(), "/my-work")
	if got := r.HeaderColorMode("ws1"); got != HeaderText {
		t.Errorf("mode with unchanged revision = %q, want text", got)
	}

	next.Revision = 4
	r.UpdateState(&next, workspaces(), "/my-work")
	if got := r.HeaderColorMode("ws1"); got != HeaderGlow {
		t.Errorf("mode with new revision = %q, want glow", got)
	}
}

func TestResolve_EmptySettingsFallbacks(t *testing.T) {
	r := NewResolver(&Settings{}, Workspaces{}, "")

	got := r.Resolve("", Options{})
	if got.FontFamily != DefaultFontFamily {
		t.Errorf("FontFamily = %q, want %q", got.FontFamily, DefaultFontFamily)
	}
	if got.TextColor != DefaultPrimaryColor || got.AccentColor != DefaultAccentColor {
		t.Errorf("colors = %q/%q, want defaults", got.TextColor, got.AccentColor)
	}
	// A zero Settings has includeGlow false.
	if got.GlowColor != TransparentGlow {
		t.Errorf("GlowColor = %q, want %q", got.GlowColor, TransparentGlow)
	}
}

func TestResolve_BaseFontFromPreset(t *testing.T) {
	s := DefaultSettings()
	s.Appearance.FontPreset = "jetbrains mono"
	s.Theme.Font = "Comic Sans"
	r := NewResolver(&s, Workspaces{}, "/")

	want := `"JetBrains Mono", ui-monospace, monospace`
	if got := r.Resolve("", Options{}).FontFamily; got != want {
		t.Errorf("FontFamily = %q, want %q", got, want)
	}

	s.Appearance.FontPreset = "not-a-preset"
	s.Revision++
	r.UpdateState(&s, Workspaces{}, "/")
	if got := r.Resolve("", Options{}).FontFamily; got != "Comic Sans" {
		t.Errorf("FontFamily = %q, want theme.font fallback", got)
	}
}
