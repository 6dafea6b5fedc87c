// Package images processes and stores flavor photos.
package images

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// photoDir is the first path segment of every stored photo key.
const photoDir = "flavors"

// ErrInvalidKey is returned for keys that are empty or escape the media root.
var ErrInvalidKey = errors.New("invalid media key")

// Storage keeps photos on disk under a media root. Keys are slash-separated
// paths relative to that root, e.g. "flavors/2025/06/3f2a….jpg", and are what
// the Flavor record stores. Every save writes a new file name, so callers may
// serve keys with long cache lifetimes.
type Storage struct {
	root string
}

// NewStorage creates the media root if needed.
func NewStorage(root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Storage{root: root}, nil
}

// Root returns the media root directory.
func (s *Storage) Root() string {
	return s.root
}

// Save writes data under a fresh key dated at now and returns the key.
func (s *Storage) Save(now time.Time, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}

	key := NewKey(now)
	full, err := s.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create photo directory: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial photo.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("commit photo: %w", err)
	}
	return key, nil
}

// Get reads the photo stored under key.
func (s *Storage) Get(key string) ([]byte, error) {
	full, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("photo %s not found: %w", key, err)
		}
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}

// Exists reports whether key refers to a stored photo.
func (s *Storage) Exists(key string) bool {
	full, err := s.Path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Delete removes the photo under key. Missing files are not an error.
func (s *Storage) Delete(key string) error {
	full, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// Path maps key to a filesystem path, rejecting keys that leave the root.
func (s *Storage) Path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// NewKey returns "flavors/YYYY/MM/<uuid hex>.jpg" for now.
func NewKey(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("%s/%04d/%02d/%x.jpg", photoDir, now.Year(), int(now.Month()), u[:])
}
