// Package storage keeps uploaded images.  The only implementation writes to
// a local directory that the HTTP server exposes under /uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured size.
	ErrTooLarge = errors.New("file too large")
	// ErrUnsupportedType is returned when the content is not a known image.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/uploads"

// FileStore saves and removes uploaded files.  Save returns the reference
// clients store in image columns.
type FileStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// LocalStore writes files into Dir under random names.
type LocalStore struct {
	Dir      string
	MaxBytes int64
	BaseURL  string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, maxBytes int64, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, MaxBytes: maxBytes, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save sniffs the content type, ignoring the client-supplied filename, and
// stores the data under a UUID name with the matching extension.
func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload %q: %w", filename, err)
	}
	if int64(len(data)) > s.MaxBytes {
		return "", ErrTooLarge
	}
	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.BaseURL + path.Join(PublicPrefix, name), nil
}

// Delete removes a file previously returned by Save.  References that this
// store did not issue are ignored.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	name, ok := s.nameOf(ref)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) nameOf(ref string) (string, bool) {
	rest, ok := strings.CutPrefix(ref, s.BaseURL+PublicPrefix+"/")
	if !ok || rest == "" || strings.ContainsAny(rest, `/\`) || strings.Contains(rest, "..") {
		return "", false
	}
	if _, err := uuid.Parse(strings.TrimSuffix(rest, filepath.Ext(rest))); err != nil {
		return "", false
	}
	return rest, true
}

var _ FileStore = (*LocalStore)(nil)

