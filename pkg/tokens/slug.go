package tokens

import (
	"strings"
	"unicode"
)

// Slugify turns a workspace name into its URL slug: lowercase, whitespace and
// underscores become hyphens, everything outside [a-z0-9-] is dropped, runs
// of hyphens collapse and edge hyphens are trimmed. An empty result becomes
// "workspace".
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "workspace"
	}
	return slug
}

// NormalizePath strips trailing slashes; an empty result becomes "/".
func NormalizePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return p
}

// WorkspacePath returns the URL path a workspace is served under.
func WorkspacePath(name string) string {
	return "/" + Slugify(name)
}

// MatchesWorkspacePath reports whether path is exactly the workspace's slug
// path. Ancestors and descendants do not match.
func MatchesWorkspacePath(ws Workspace, path string) bool {
	return WorkspacePath(ws.Name) == NormalizePath(path)
}

// IsDefaultPath reports whether path is the start page root.
func IsDefaultPath(path string) bool {
	p := NormalizePath(path)
	return p == "/" || p == "/index.html"
}
