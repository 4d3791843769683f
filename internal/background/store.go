// Package background stores uploaded start page background images.
package background

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrNotFound        = errors.New("background not found")
	ErrTooLarge        = errors.New("background exceeds the size limit")
	ErrUnsupportedType = errors.New("background must be an image")
	ErrEmpty           = errors.New("background is empty")
)

// Record describes a stored background.
type Record struct {
	ID        string    `json:"id" example:"6f1c2a0e-3d1b-4b7a-9f61-0d2f3e4a5b6c"`
	Name      string    `json:"name" example:"aurora.jpg"`
	Type      string    `json:"type" example:"image/jpeg"`
	Size      int64     `json:"size" example:"482113"`
	URL       string    `json:"url" example:"/api/v1/backgrounds/6f1c2a0e-3d1b-4b7a-9f61-0d2f3e4a5b6c/content"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload is a background as received from a client.
type Upload struct {
	Name string
	Type string
	Data []byte
}

// Store persists backgrounds.
type Store interface {
	Save(ctx context.Context, u Upload) (Record, error)
	List(ctx context.Context) ([]Record, error)
	URL(ctx context.Context, id string) (string, bool)
	Open(ctx context.Context, id string) (Record, []byte, error)
	Delete(ctx context.Context, id string) error
}

// ContentURL is the API path a background's bytes are served from.
func ContentURL(id string) string {
	return "/api/v1/backgrounds/" + id + "/content"
}

// Hash returns the hex blake2b-256 digest of data.
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// newRecord validates u and builds the record a store saves. A missing
// content type is sniffed from the data.
func newRecord(u Upload, now time.Time) (Record, error) {
	if len(u.Data) == 0 {
		return Record{}, ErrEmpty
	}
	ct, err := imageType(u.Type, u.Data)
	if err != nil {
		return Record{}, err
	}
	id := uuid.NewString()
	name := strings.TrimSpace(u.Name)
	if name == "" {
		name = id
	}
	return Record{
		ID:        id,
		Name:      name,
		Type:      ct,
		Size:      int64(len(u.Data)),
		URL:       ContentURL(id),
		Hash:      Hash(u.Data),
		CreatedAt: now.UTC(),
	}, nil
}

func imageType(declared string, data []byte) (string, error) {
	if declared == "" || declared == "application/octet-stream" {
		declared = http.DetectContentType(data)
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, declared)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	return mediaType, nil
}
