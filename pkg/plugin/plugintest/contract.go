// Package plugintest provides shared contract tests that verify any
// plugin.Plugin implementation behaves correctly. Every module's test
// file should call TestPluginContract to ensure conformance.
package plugintest

import (
	"context"
	"testing"

	"github.com/HerbHall/startpage/pkg/plugin"
)

// TestPluginContract runs behavioral contract tests against a plugin.Plugin
// implementation. deps builds fresh dependencies for every subtest:
//
//	func TestContract(t *testing.T) {
//	    plugintest.TestPluginContract(t, func() plugin.Plugin { return settings.New() }, newDeps)
//	}
func TestPluginContract(t *testing.T, factory func() plugin.Plugin, deps func(t *testing.T, name string) plugin.Dependencies) {
	t.Helper()

	initialized := func(t *testing.T) plugin.Plugin {
		t.Helper()
		p := factory()
		if err := p.Init(context.Background(), deps(t, p.Info().Name)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		return p
	}

	t.Run("Info_returns_valid_metadata", func(t *testing.T) {
		info := factory().Info()
		if info.Name == "" {
			t.Error("Info().Name must not be empty")
		}
		if info.Version == "" {
			t.Error("Info().Version must not be empty")
		}
		if info.APIVersion < plugin.APIVersionMin || info.APIVersion > plugin.APIVersionCurrent {
			t.Errorf("Info().APIVersion = %d, outside [%d, %d]", info.APIVersion, plugin.APIVersionMin, plugin.APIVersionCurrent)
		}
	})

	t.Run("Init_succeeds_with_valid_deps", func(t *testing.T) {
		initialized(t)
	})

	t.Run("Start_after_Init", func(t *testing.T) {
		p := initialized(t)
		if err := p.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
	})

	t.Run("Stop_without_Start_does_not_panic", func(t *testing.T) {
		p := initialized(t)
		if err := p.Stop(context.Background()); err != nil {
			t.Fatalf("Stop() without Start error = %v", err)
		}
	})

	t.Run("Info_is_idempotent", func(t *testing.T) {
		p := factory()
		a, b := p.Info(), p.Info()
		if a.Name != b.Name || a.Version != b.Version {
			t.Error("Info() must return consistent results")
		}
	})

	t.Run("Routes_have_handlers", func(t *testing.T) {
		p := initialized(t)
		hp, ok := p.(plugin.HTTPProvider)
		if !ok {
			t.Skip("plugin exposes no routes")
		}
		for _, r := range hp.Routes() {
			if r.Method == "" || r.Handler == nil {
				t.Errorf("route %q has empty method or nil handler", r.Path)
			}
		}
	})
}
