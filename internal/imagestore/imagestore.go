package imagestore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Get and Delete when no image exists for a key.
	ErrNotFound = errors.New("image not found")
	// ErrInvalidKey is returned for keys that are not a plain file name.
	ErrInvalidKey = errors.New("invalid image key")
	// ErrUnsupportedType is returned by Save for anything but JPEG, PNG, GIF or WebP.
	ErrUnsupportedType = errors.New("unsupported image type")
)

// ImageStore persists uploaded point images and hands back opaque keys.
type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
