package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"gopkg.in/yaml.v3"
)

// ErrChecksum is returned when an extracted file does not match the
// manifest.
var ErrChecksum = errors.New("backup checksum mismatch")

// Restore extracts a backup archive to the target directory.
// It refuses to overwrite existing files unless force is true. Archives
// without a manifest are accepted; when one is present every listed file
// must be present with a matching hash.
func Restore(_ context.Context, archivePath, targetDir string, force bool) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("decompressing archive: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	foundDB := false
	sums := make(map[string]string)
	var manifest *Manifest

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading archive entry: %w", err)
		}

		if err := validateTarEntry(hdr.Name, targetDir); err != nil {
			return err
		}

		if hdr.Name == ManifestName {
			manifest, err = readManifest(tr)
			if err != nil {
				return err
			}
			continue
		}

		if strings.HasSuffix(hdr.Name, ".db") {
			foundDB = true
		}

		destPath := filepath.Join(targetDir, filepath.Clean(hdr.Name)) //nolint:gosec // G305: path traversal checked by validateTarEntry above

		if !force {
			if _, err := os.Stat(destPath); err == nil {
				return fmt.Errorf("file already exists (use -force to overwrite): %s", destPath)
			}
		}

		sum, err := extractFile(tr, destPath, hdr)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", hdr.Name, err)
		}
		if sum != "" {
			sums[hdr.Name] = sum
		}
	}

	if !foundDB {
		return fmt.Errorf("invalid backup: archive does not contain a .db file")
	}
	if manifest != nil {
		return verify(manifest, sums)
	}
	return nil
}

func readManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}

func verify(m *Manifest, sums map[string]string) error {
	names := make([]string, 0, len(m.Files))
	for name := range m.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		got, ok := sums[name]
		if !ok {
			return fmt.Errorf("%w: %s missing from archive", ErrChecksum, name)
		}
		if got != m.Files[name] {
			return fmt.Errorf("%w: %s", ErrChecksum, name)
		}
	}
	return nil
}

// validateTarEntry checks that a tar entry name does not escape the target
// directory via path traversal.
func validateTarEntry(name, targetDir string) error {
	if filepath.IsAbs(name) {
		return fmt.Errorf("path traversal detected: absolute path %q", name)
	}

	cleaned := filepath.Clean(name)
	if strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("path traversal detected: %q", name)
	}

	dest := filepath.Join(targetDir, cleaned)
	absTarget, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving target directory: %w", err)
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Errorf("resolving destination path: %w", err)
	}
	if !strings.HasPrefix(absDest, absTarget+string(filepath.Separator)) && absDest != absTarget {
		return fmt.Errorf("path traversal detected: %q resolves outside target", name)
	}

	return nil
}

// extractFile writes a single tar entry to disk and returns the
// blake2b-256 digest of regular files.
func extractFile(tr *tar.Reader, destPath string, hdr *tar.Header) (string, error) {
	switch hdr.Typeflag {
	case tar.TypeDir:
		return "", os.MkdirAll(destPath, os.FileMode(hdr.Mode&0o777)) //nolint:gosec // G115: mode bits safely within uint32 range
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return "", err
		}
		out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode&0o777)) //nolint:gosec // G115: mode bits safely within uint32 range
		if err != nil {
			return "", err
		}
		defer out.Close()

		// Cap each entry against decompression bombs.
		const maxFileSize = 10 << 30 // 10 GiB
		h, _ := blake2b.New256(nil)
		if _, err := io.Copy(io.MultiWriter(out, h), io.LimitReader(tr, maxFileSize)); err != nil {
			return "", err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	default:
		// Skip unsupported entry types (symlinks, etc.).
		return "", nil
	}
}
