package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/HerbHall/startpage/pkg/tokens"
)

// runPreview resolves tokens against the configured database and prints
// them as terminal swatches.
func runPreview(args []string) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	workspaceID := fs.String("workspace", "", "workspace id (default: Last In on default paths)")
	path := fs.String("path", "/", "page path the tokens are resolved for")
	widget := fs.Bool("widget", false, "resolve widget tokens (always workspace themed)")
	unchangeable := fs.Bool("unchangeable", false, "resolve base tokens ignoring workspaces")
	force := fs.Bool("force", false, "skip the workspace path gate")
	asJSON := fs.Bool("json", false, "print tokens as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	a, _, err := setup(ctx, *configPath, setupOptions{quiet: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "preview: %v\n", err)
		return 1
	}
	defer a.Close()

	svc := a.theme.Service()
	var t tokens.Tokens
	switch {
	case *unchangeable:
		t = svc.Unchangeable(*path)
	case *widget:
		t = svc.Widget(*path, *workspaceID)
	default:
		t = svc.Tokens(*path, *workspaceID, tokens.Options{ForceWorkspaceTheming: *force})
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t); err != nil {
			fmt.Fprintf(os.Stderr, "preview: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Println(renderPreview(t))
	return 0
}

var (
	labelStyle = lipgloss.NewStyle().Width(8).Bold(true)
	metaStyle  = lipgloss.NewStyle().Faint(true)
)

func renderPreview(t tokens.Tokens) string {
	var b strings.Builder
	for _, row := range []struct {
		label, color string
	}{
		{"text", t.TextColor},
		{"accent", t.AccentColor},
		{"glow", t.GlowColor},
		{"header", t.HeaderColor},
	} {
		b.WriteString(labelStyle.Render(row.label))
		b.WriteString(swatch(row.color))
		b.WriteByte('\n')
	}
	b.WriteString(labelStyle.Render("font"))
	b.WriteString(t.FontFamily)
	b.WriteByte('\n')

	ws := t.Meta.WorkspaceID
	if ws == "" {
		ws = "base"
	}
	b.WriteString(metaStyle.Render(fmt.Sprintf("workspace=%s path=%s header=%s themed=%t",
		ws, t.Meta.Path, t.Meta.HeaderColorMode, t.Meta.ApplyWorkspaceTheme)))
	return b.String()
}

// swatch renders hex on its own color with a readable foreground. Alpha is
// dropped since terminals cannot blend it.
func swatch(hex string) string {
	opaque := tokens.StripAlpha(hex)
	c, err := colorful.Hex(opaque)
	if err != nil {
		return hex
	}
	fg := "#000000"
	if l, _, _ := c.Lab(); l < 0.55 {
		fg = "#ffffff"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(opaque)).
		Foreground(lipgloss.Color(fg)).
		Padding(0, 2).
		Render(hex)
}
