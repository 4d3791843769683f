package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/HerbHall/startpage/internal/auth"
	"github.com/HerbHall/startpage/internal/server"
)

// runToken mints a device token signed with auth.secret.
func runToken(args []string) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	device := fs.String("device", "", "device name recorded in the token")
	ttl := fs.Duration("ttl", -1, "token lifetime (0 never expires; default auth.token_ttl)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	v, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		return 1
	}

	lifetime := *ttl
	if lifetime < 0 {
		lifetime = v.GetDuration("auth.token_ttl")
	}

	tokens, err := auth.NewTokenService([]byte(v.GetString("auth.secret")), lifetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v (set auth.secret or SP_AUTH_SECRET)\n", err)
		return 1
	}

	tok, err := tokens.IssueDeviceToken(*device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		return 1
	}

	fmt.Println(tok)
	if lifetime > 0 {
		fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).Format(time.RFC3339))
	}
	return 0
}
