package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ecol-app/ecol/internal/imagestore"
	"github.com/google/uuid"
)

// uploadExts maps each accepted upload type to the extension its file is stored under.
var uploadExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store keeps uploaded images as flat files in one directory. Files are
// written under a dot-prefixed temporary name and renamed once complete, so a
// key never points at a partial upload.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid upload directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: abs}, nil
}

func (s *Store) Save(ctx context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	ext, ok := uploadExts[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %q", imagestore.ErrUnsupportedType, mimeType)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rerr := os.Remove(tmp.Name()); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			slog.Error("failed to remove partial upload", "file", tmp.Name(), "error", rerr)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close image: %w", err)
	}

	key := prefix + "_" + uuid.NewString() + ext
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	committed = true
	return key, nil
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	mimeType, ok := mimeTypeOf(key)
	if !ok {
		return nil, "", imagestore.ErrNotFound
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", imagestore.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	return f, mimeType, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return imagestore.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// path maps a key to its file. Keys are bare file names produced by Save;
// separators and dot-prefixed names (temp files, "..") are rejected.
func (s *Store) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return "", fmt.Errorf("%w: %q", imagestore.ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

func mimeTypeOf(key string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(key))
	for mimeType, e := range uploadExts {
		if e == ext {
			return mimeType, true
		}
	}
	return "", false
}
