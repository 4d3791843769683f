package tokens

import "strings"

// FontPreset is a named font family offered in the appearance settings.
type FontPreset struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Family string `json:"family"`
}

// FontPresets is the static preset table, in display order.
var FontPresets = []FontPreset{
	{ID: "inter", Label: "Inter", Family: `"Inter", system-ui, sans-serif`},
	{ID: "system", Label: "System", Family: `system-ui, -apple-system, "Segoe UI", Roboto, sans-serif`},
	{ID: "roboto", Label: "Roboto", Family: `"Roboto", system-ui, sans-serif`},
	{ID: "open-sans", Label: "Open Sans", Family: `"Open Sans", system-ui, sans-serif`},
	{ID: "lato", Label: "Lato", Family: `"Lato", system-ui, sans-serif`},
	{ID: "montserrat", Label: "Montserrat", Family: `"Montserrat", system-ui, sans-serif`},
	{ID: "poppins", Label: "Poppins", Family: `"Poppins", system-ui, sans-serif`},
	{ID: "nunito", Label: "Nunito", Family: `"Nunito", system-ui, sans-serif`},
	{ID: "raleway", Label: "Raleway", Family: `"Raleway", system-ui, sans-serif`},
	{ID: "work-sans", Label: "Work Sans", Family: `"Work Sans", system-ui, sans-serif`},
	{ID: "dm-sans", Label: "DM Sans", Family: `"DM Sans", system-ui, sans-serif`},
	{ID: "manrope", Label: "Manrope", Family: `"Manrope", system-ui, sans-serif`},
	{ID: "outfit", Label: "Outfit", Family: `"Outfit", system-ui, sans-serif`},
	{ID: "space-grotesk", Label: "Space Grotesk", Family: `"Space Grotesk", system-ui, sans-serif`},
	{ID: "ibm-plex-sans", Label: "IBM Plex Sans", Family: `"IBM Plex Sans", system-ui, sans-serif`},
	{ID: "playfair-display", Label: "Playfair Display", Family: `"Playfair Display", Georgia, serif`},
	{ID: "merriweather", Label: "Merriweather", Family: `"Merriweather", Georgia, serif`},
	{ID: "lora", Label: "Lora", Family: `"Lora", Georgia, serif`},
	{ID: "bebas-neue", Label: "Bebas Neue", Family: `"Bebas Neue", Impact, sans-serif`},
	{ID: "orbitron", Label: "Orbitron", Family: `"Orbitron", system-ui, sans-serif`},
	{ID: "press-start-2p", Label: "Press Start 2P", Family: `"Press Start 2P", monospace`},
	{ID: "jetbrains-mono", Label: "JetBrains Mono", Family: `"JetBrains Mono", ui-monospace, monospace`},
	{ID: "fira-code", Label: "Fira Code", Family: `"Fira Code", ui-monospace, monospace`},
	{ID: "space-mono", Label: "Space Mono", Family: `"Space Mono", ui-monospace, monospace`},
}

// presetIndex maps every normalized key variant to its preset.
var presetIndex = buildPresetIndex(FontPresets)

func buildPresetIndex(presets []FontPreset) map[string]FontPreset {
	index := make(map[string]FontPreset, len(presets)*6)
	for _, p := range presets {
		for _, k := range presetKeyVariants(p.ID, p.Label) {
			if _, taken := index[k]; !taken {
				index[k] = p
			}
		}
	}
	return index
}

// presetKeyVariants expands names into the loose forms a stored or typed
// value may take: "Bebas Neue" -> "bebas neue", "bebas-neue", "bebas_neue",
// "bebasneue".
func presetKeyVariants(names ...string) []string {
	var out []string
	for _, n := range names {
		k := normalizePresetKey(n)
		if k == "" {
			continue
		}
		words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(k))
		out = append(out,
			k,
			strings.Join(words, " "),
			strings.Join(words, "-"),
			strings.Join(words, "_"),
			strings.Join(words, ""),
		)
	}
	return out
}

func normalizePresetKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// LookupFontPreset finds a preset by id, label or any separator/case variant
// of either.
func LookupFontPreset(key string) (FontPreset, bool) {
	k := normalizePresetKey(key)
	if k == "" {
		return FontPreset{}, false
	}
	if p, ok := presetIndex[k]; ok {
		return p, true
	}
	// Collapse mixed separators ("Bebas_neue ", "press start-2p").
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(k))
	p, ok := presetIndex[strings.Join(words, "-")]
	return p, ok
}

// ResolveFontFamily returns the CSS font family for a preset key, or the
// value itself when it does not name a preset.
func ResolveFontFamily(value string) string {
	if p, ok := LookupFontPreset(value); ok {
		return p.Family
	}
	return strings.TrimSpace(value)
}
