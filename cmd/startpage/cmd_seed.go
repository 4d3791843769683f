package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/HerbHall/startpage/internal/seed"
	"github.com/HerbHall/startpage/internal/settings"
	"github.com/HerbHall/startpage/internal/workspace"
)

// runSeed adds the demo workspaces to the configured database.
func runSeed(args []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	a, _, err := setup(ctx, *configPath, setupOptions{quiet: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		return 1
	}
	defer a.Close()

	sm, ok1 := lookup[*settings.Module](a, "settings")
	wm, ok2 := lookup[*workspace.Module](a, "workspaces")
	if !ok1 || !ok2 {
		fmt.Fprintln(os.Stderr, "seed: settings or workspaces plugin not registered")
		return 1
	}
	res, err := seed.SeedDemo(ctx, wm.Store(), sm.Store())
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		return 1
	}
	for _, w := range res.Created {
		fmt.Printf("created %-10s %s\n", w.Name, w.Path)
	}
	for _, name := range res.Skipped {
		fmt.Printf("skipped %-10s (exists)\n", name)
	}
	return 0
}

// lookup returns the registered plugin name as type T.
func lookup[T any](a *app, name string) (T, bool) {
	var zero T
	p, ok := a.reg.Get(name)
	if !ok {
		return zero, false
	}
	m, ok := p.(T)
	return m, ok
}
