package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "v1.2.3"

	if Short() != "v1.2.3" {
		t.Errorf("Short() = %q", Short())
	}
	if !strings.HasPrefix(Info(), "startpage v1.2.3 ") {
		t.Errorf("Info() = %q", Info())
	}
	m := Map()
	for _, key := range []string{"version", "git_commit", "build_date", "go_version", "os", "arch"} {
		if m[key] == "" {
			t.Errorf("Map()[%q] is empty", key)
		}
	}
}
