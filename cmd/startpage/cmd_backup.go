package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HerbHall/startpage/internal/backup"
	"github.com/HerbHall/startpage/internal/server"
)

// runBackup archives the configured database and config file.
func runBackup(args []string) int {
	fs := flag.NewFlagSet("backup", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	output := fs.String("o", "", "archive path (default startpage-backup-<timestamp>.tar.gz)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	v, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backup: %v\n", err)
		return 1
	}

	archive := *output
	if archive == "" {
		archive = fmt.Sprintf("startpage-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	}

	if err := backup.Backup(context.Background(), v.GetString("database.path"), v.ConfigFileUsed(), archive); err != nil {
		fmt.Fprintf(os.Stderr, "backup: %v\n", err)
		return 1
	}
	fmt.Println(archive)
	return 0
}

// runRestore extracts an archive next to the configured database.
func runRestore(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	target := fs.String("dir", "", "target directory (default: the database directory)")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: startpage restore [-config path] [-dir dir] [-force] <archive>")
		return 2
	}

	dir := *target
	if dir == "" {
		v, err := server.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "restore: %v\n", err)
			return 1
		}
		dir = filepath.Dir(v.GetString("database.path"))
	}

	if err := backup.Restore(context.Background(), fs.Arg(0), dir, *force); err != nil {
		fmt.Fprintf(os.Stderr, "restore: %v\n", err)
		return 1
	}
	fmt.Printf("restored into %s\n", dir)
	return 0
}
