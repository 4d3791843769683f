package tokens

import "strings"

// StripAlpha drops the alpha channel from an 8-digit hex color
// ("#11223344" -> "#112233"). Any other value is returned trimmed but
// otherwise unchanged.
func StripAlpha(hex string) string {
	hex = strings.TrimSpace(hex)
	if len(hex) == 9 && hex[0] == '#' && isHexDigits(hex[1:]) {
		return hex[:7]
	}
	return hex
}

func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
