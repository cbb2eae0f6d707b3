package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ecol-app/ecol/internal/imagestore"
	"github.com/ecol-app/ecol/internal/service"
	"github.com/gabriel-vasile/mimetype"
)

// allowedImageTypes is the set of MIME types accepted for point images.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise. Detection uses magic bytes;
// the client-supplied Content-Type is ignored.
func allowedImageMIME(data []byte) (string, bool) {
	mime := mimetype.Detect(data).String()
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readImage returns the "image" file of a parsed multipart form, or nil when
// the form has none.
func (s *Server) readImage(r *http.Request) (*service.Image, error) {
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image")
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image")
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("image larger than %d MB", maxImageSize>>20)
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return nil, fmt.Errorf("unsupported image format")
	}
	return &service.Image{Data: data, MimeType: mimeType}, nil
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	reader, mimeType, err := s.imageStore.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, imagestore.ErrNotFound) && !errors.Is(err, imagestore.ErrInvalidKey) {
			s.logger.Warn("get upload failed", "key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "image reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write upload failed", "key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
