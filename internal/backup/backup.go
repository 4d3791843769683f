// Package backup archives the start page database and config file into a
// single .tar.gz and restores it.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/HerbHall/startpage/internal/version"
)

// ManifestName is the archive entry describing the other entries.
const ManifestName = "manifest.yaml"

// Manifest records what a backup holds. Restore checks every listed hash.
type Manifest struct {
	Version   string            `yaml:"version"`
	CreatedAt time.Time         `yaml:"created_at"`
	Files     map[string]string `yaml:"files"`
}

// Backup snapshots the database at dbPath with VACUUM INTO, so a running
// server keeps serving, and writes it to archivePath together with the
// config file (optional) and a manifest.
func Backup(ctx context.Context, dbPath, configPath, archivePath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}
		return fmt.Errorf("stat database: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "startpage-backup-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, filepath.Base(dbPath))
	if err := snapshotDB(ctx, dbPath, snapshot); err != nil {
		return err
	}

	entries := []entry{{name: filepath.Base(dbPath), path: snapshot}}
	if configPath != "" {
		entries = append(entries, entry{name: filepath.Base(configPath), path: configPath})
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if err := writeArchive(out, entries); err != nil {
		out.Close()
		_ = os.Remove(archivePath)
		return err
	}
	return out.Close()
}

type entry struct {
	name string
	path string
}

func snapshotDB(ctx context.Context, src, dst string) error {
	db, err := sql.Open("sqlite", src)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("snapshot database: %w", err)
	}
	return nil
}

func writeArchive(w io.Writer, entries []entry) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	manifest := Manifest{
		Version:   version.Short(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Files:     make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		sum, err := addFile(tw, e)
		if err != nil {
			return fmt.Errorf("adding %s: %w", e.name, err)
		}
		manifest.Files[e.name] = sum
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	hdr := &tar.Header{
		Name:    ManifestName,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: manifest.CreatedAt,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing manifest header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar: %w", err)
	}
	return gw.Close()
}

// addFile copies one file into tw and returns its blake2b-256 hex digest.
func addFile(tw *tar.Writer, e entry) (string, error) {
	f, err := os.Open(e.path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return "", err
	}
	hdr.Name = e.name
	if err := tw.WriteHeader(hdr); err != nil {
		return "", err
	}

	h, _ := blake2b.New256(nil)
	if _, err := io.Copy(io.MultiWriter(tw, h), f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
