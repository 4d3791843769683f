package tokens

import (
	"encoding/json"
	"maps"
)

// Options adjust a single resolution. All flags default to false.
type Options struct {
	// ForceWorkspaceTheming skips the URL slug gate.
	ForceWorkspaceTheming bool `json:"forceWorkspaceTheming"`
	// ExcludeBackground is passed through for callers; it does not affect
	// colors.
	ExcludeBackground bool `json:"excludeBackground"`
	// UnchangeableFont pins FontFamily to the base font.
	UnchangeableFont bool `json:"unchangeableFont"`
	// UnchangeableTextColor pins TextColor to the base text color.
	UnchangeableTextColor bool `json:"unchangeableTextColor"`
}

// Tokens are the resolved theme values for one context.
type Tokens struct {
	FontFamily  string `json:"fontFamily"`
	TextColor   string `json:"textColor"`
	AccentColor string `json:"accentColor"`
	GlowColor   string `json:"glowColor"`
	HeaderColor string `json:"headerColor"`
	Meta        Meta   `json:"_meta"`
}

// Meta records how a Tokens value was derived. It is diagnostic only.
type Meta struct {
	WorkspaceID             string          `json:"workspaceId,omitempty"`
	Path                    string          `json:"path"`
	CacheKey                string          `json:"cacheKey"`
	Options                 Options         `json:"options"`
	WorkspaceThemingEnabled bool            `json:"workspaceThemingEnabled"`
	BaseShouldApply         bool            `json:"baseShouldApply"`
	IsAnchored              bool            `json:"isAnchored"`
	AllowLastInGlow         bool            `json:"allowLastInGlow"`
	AllowLastInTypography   bool            `json:"allowLastInTypography"`
	ApplyWorkspaceTheme     bool            `json:"applyWorkspaceTheme"`
	ApplyGlow               bool            `json:"applyGlow"`
	ApplyTypography         bool            `json:"applyTypography"`
	HeaderColorMode         HeaderColorMode `json:"headerColorMode"`
	// Sequence is the resolver's recompute counter at the time these tokens
	// were computed. A cached result keeps its original Sequence.
	Sequence uint64 `json:"sequence"`
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCacheObserver reports cache hits, misses, evictions and resets to o.
func WithCacheObserver(o CacheObserver) ResolverOption {
	return func(r *Resolver) {
		if o != nil {
			r.observer = o
		}
	}
}

// Resolver computes Tokens from settings, the workspace list and the current
// path, caching results. A Resolver is not safe for concurrent use.
type Resolver struct {
	settings    *Settings
	settingsRev uint64
	workspaces  Workspaces
	path        string

	headerModes map[string]HeaderColorMode

	observer CacheObserver
	cache    *tokenCache
	sequence uint64
}

// NewResolver binds a resolver to settings, workspaces and the current path.
// A nil settings pointer resolves against DefaultSettings. The resolver never
// writes through settings.
func NewResolver(settings *Settings, workspaces Workspaces, currentPath string, opts ...ResolverOption) *Resolver {
	r := &Resolver{observer: nopObserver{}}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = newTokenCache(MaxCacheEntries, r.observer)
	r.bind(settings)
	r.workspaces = workspaces
	r.path = NormalizePath(currentPath)
	return r
}

func (r *Resolver) bind(settings *Settings) {
	if settings == nil {
		d := DefaultSettings()
		settings = &d
	}
	r.settings = settings
	r.settingsRev = settings.Revision
	r.headerModes = maps.Clone(settings.SpeedDial.WorkspaceHeaderColorMode)
	if r.headerModes == nil {
		r.headerModes = make(map[string]HeaderColorMode)
	}
}

// UpdateState rebinds the resolver. The cache is cleared only when the
// settings or workspaces revision changed; a path-only change keeps it, since
// the path is part of every cache key.
//
// Revisions are the only change signal. A replaced settings document must
// carry a new Revision, otherwise its header modes are not re-read and cached
// tokens stay in use.
func (r *Resolver) UpdateState(settings *Settings, workspaces Workspaces, currentPath string) {
	if settings == nil {
		d := DefaultSettings()
		settings = &d
	}
	settingsChanged := settings.Revision != r.settingsRev
	workspacesChanged := workspaces.Revision != r.workspaces.Revision

	if settingsChanged {
		r.bind(settings)
	} else {
		r.settings = settings
	}
	r.workspaces = workspaces
	r.path = NormalizePath(currentPath)

	if settingsChanged || workspacesChanged {
		r.cache.reset()
	}
}

// Rebind re-reads settings regardless of revision and clears the cache.
// Header modes set since the last bind that were never persisted are
// discarded.
func (r *Resolver) Rebind(settings *Settings) {
	r.bind(settings)
	r.cache.reset()
}

// Path returns the normalized current path.
func (r *Resolver) Path() string { return r.path }

// CacheLen returns the number of cached results.
func (r *Resolver) CacheLen() int { return r.cache.len() }

// Resolve computes the tokens for workspaceID under opts. An empty
// workspaceID means no workspace context.
//
// On the default path the caller is expected to pass the last active
// workspace as workspaceID; that is how Last In carry-over finds the
// previous workspace's glow and typography.
func (r *Resolver) Resolve(workspaceID string, opts Options) Tokens {
	s := r.settings
	key := r.cacheKey(workspaceID, opts)
	if cached, ok := r.cache.get(key); ok {
		return cached
	}

	enabled := s.WorkspaceThemingEnabled

	baseShouldApply := false
	switch {
	case !enabled:
	case opts.ForceWorkspaceTheming:
		baseShouldApply = true
	default:
		baseShouldApply = r.matchesWorkspaceURL(workspaceID)
	}

	anchored := s.SpeedDial.AnchoredWorkspaceID
	isAnchored := anchored != "" && workspaceID == anchored

	lastIn := s.Theme.LastIn
	allowLastIn := enabled && lastIn.Enabled && IsDefaultPath(r.path) &&
		!isAnchored && !opts.ForceWorkspaceTheming && workspaceID != ""
	allowLastInGlow := allowLastIn && lastIn.IncludeGlow
	allowLastInTypography := allowLastIn && lastIn.IncludeTypography

	wsFont := r.override(s.SpeedDial.WorkspaceTextFonts, workspaceID)
	wsText := r.override(s.SpeedDial.WorkspaceTextColors, workspaceID)
	wsAccent := r.override(s.SpeedDial.WorkspaceAccentColors, workspaceID)
	wsGlow := r.override(s.SpeedDial.WorkspaceGlowColors, workspaceID)

	applyWorkspaceTheme := baseShouldApply && !isAnchored
	applyGlow := applyWorkspaceTheme || allowLastInGlow
	applyTypography := applyWorkspaceTheme || allowLastInTypography

	baseFont := r.baseFontFamily()
	basePrimary := StripAlpha(firstNonEmpty(s.Theme.Colors.Primary, DefaultPrimaryColor))
	baseAccent := StripAlpha(firstNonEmpty(s.Theme.Colors.Accent, DefaultAccentColor))

	// The workspace font follows only the anchored flag, not the URL gate.
	fontFamily := baseFont
	if s.Appearance.MatchWorkspaceFonts && wsFont != "" && !isAnchored && !opts.UnchangeableFont {
		fontFamily = ResolveFontFamily(wsFont)
	}

	textColor := basePrimary
	if s.Appearance.MatchWorkspaceTextColor && wsText != "" && applyTypography && !opts.UnchangeableTextColor {
		textColor = StripAlpha(wsText)
	}

	accentColor := baseAccent
	if s.Appearance.MatchWorkspaceAccentColor {
		candidate := wsAccent
		if candidate == "" && applyGlow {
			candidate = wsGlow
		}
		if (applyTypography || applyGlow) && candidate != "" {
			accentColor = StripAlpha(candidate)
		}
	}

	var glowColor string
	switch {
	case applyGlow && wsGlow != "":
		glowColor = wsGlow
	case s.Theme.IncludeGlow:
		glowColor = firstNonEmpty(s.SpeedDial.GlowColor, DefaultGlowColor)
	default:
		glowColor = TransparentGlow
	}

	mode := r.HeaderColorMode(workspaceID)
	headerColor := textColor
	switch mode {
	case HeaderAccent:
		headerColor = accentColor
	case HeaderGlow:
		headerColor = StripAlpha(glowColor)
	}

	r.sequence++
	t := Tokens{
		FontFamily:  fontFamily,
		TextColor:   textColor,
		AccentColor: accentColor,
		GlowColor:   glowColor,
		HeaderColor: headerColor,
		Meta: Meta{
			WorkspaceID:             workspaceID,
			Path:                    r.path,
			CacheKey:                key,
			Options:                 opts,
			WorkspaceThemingEnabled: enabled,
			BaseShouldApply:         baseShouldApply,
			IsAnchored:              isAnchored,
			AllowLastInGlow:         allowLastInGlow,
			AllowLastInTypography:   allowLastInTypography,
			ApplyWorkspaceTheme:     applyWorkspaceTheme,
			ApplyGlow:               applyGlow,
			ApplyTypography:         applyTypography,
			HeaderColorMode:         mode,
			Sequence:                r.sequence,
		},
	}
	r.cache.put(key, t)
	return t
}

// ResolveUnchangeable resolves tokens for chrome that never follows
// workspace theming, such as dialogs.
func (r *Resolver) ResolveUnchangeable() Tokens {
	return r.Resolve("", Options{
		UnchangeableFont:      true,
		UnchangeableTextColor: true,
		ExcludeBackground:     true,
	})
}

// ResolveWidget resolves tokens for widgets, which always follow workspace
// theming regardless of the URL gate.
func (r *Resolver) ResolveWidget(workspaceID string) Tokens {
	return r.Resolve(workspaceID, Options{ForceWorkspaceTheming: true})
}

// HeaderColorMode returns the header mode for workspaceID, defaulting to
// HeaderText.
func (r *Resolver) HeaderColorMode(workspaceID string) HeaderColorMode {
	if m, ok := r.headerModes[headerKey(workspaceID)]; ok && m.Valid() {
		return m
	}
	return HeaderText
}

// SetHeaderColorMode records mode for workspaceID and returns the patch the
// settings owner must apply and persist. Invalid modes are stored as
// HeaderText. The token cache is cleared because headerColor depends on the
// mode.
func (r *Resolver) SetHeaderColorMode(workspaceID string, mode HeaderColorMode) SettingsPatch {
	if !mode.Valid() {
		mode = HeaderText
	}
	r.headerModes[headerKey(workspaceID)] = mode
	r.cache.reset()
	return r.headerPatch()
}

// RemoveWorkspaceSettings forgets the header mode of a deleted workspace and
// returns the patch to persist.
func (r *Resolver) RemoveWorkspaceSettings(workspaceID string) SettingsPatch {
	if _, ok := r.headerModes[headerKey(workspaceID)]; ok {
		delete(r.headerModes, headerKey(workspaceID))
		r.cache.reset()
	}
	return r.headerPatch()
}

func (r *Resolver) headerPatch() SettingsPatch {
	return SettingsPatch{WorkspaceHeaderColorMode: maps.Clone(r.headerModes)}
}

func (r *Resolver) cacheKey(workspaceID string, opts Options) string {
	ws := workspaceID
	if ws == "" {
		ws = "none"
	}
	anchored := r.settings.SpeedDial.AnchoredWorkspaceID
	if anchored == "" {
		anchored = "none"
	}
	// Marshalling a struct of bools cannot fail.
	optsJSON, _ := json.Marshal(opts)
	return ws + ":" + r.path + ":" + anchored + ":" + string(optsJSON)
}

// matchesWorkspaceURL is the URL slug gate. It always passes unless
// speedDial.workspaceTextByUrl is on.
func (r *Resolver) matchesWorkspaceURL(workspaceID string) bool {
	if !r.settings.SpeedDial.WorkspaceTextByURL {
		return true
	}
	ws, ok := r.workspaces.Find(workspaceID)
	if !ok || workspaceID == "" {
		return false
	}
	return MatchesWorkspacePath(ws, r.path)
}

func (r *Resolver) override(values map[string]string, workspaceID string) string {
	if !r.settings.WorkspaceThemingEnabled || workspaceID == "" {
		return ""
	}
	return values[workspaceID]
}

func (r *Resolver) baseFontFamily() string {
	if p, ok := LookupFontPreset(r.settings.Appearance.FontPreset); ok {
		return p.Family
	}
	return firstNonEmpty(r.settings.Theme.Font, DefaultFontFamily)
}
