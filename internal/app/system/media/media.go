// Package media validates and stores uploaded cause photos, cause videos,
// and profile pictures.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadBytes caps a single uploaded file.
const MaxUploadBytes = 10 << 20 // 10 MB

// ErrUnsupportedType is returned when a file's content type is not on the
// allow-list for its slot.
var ErrUnsupportedType = errors.New("unsupported media type")

// ErrTooLarge is returned when a file exceeds MaxUploadBytes.
var ErrTooLarge = errors.New("file exceeds the upload size limit")

var causePhotoTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/svg+xml": ".svg",
}

var causeVideoTypes = map[string]string{
	"video/mp4": ".mp4",
}

// Profile pictures accept the photo formats plus the legacy scan formats.
var profilePhotoTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
	"image/tiff":    ".tiff",
}

// AllowedCausePhoto reports whether contentType may be stored as a cause
// photo.
func AllowedCausePhoto(contentType string) bool {
	_, ok := causePhotoTypes[normalizeCT(contentType)]
	return ok
}

// AllowedCauseVideo reports whether contentType may be stored as a cause
// video.
func AllowedCauseVideo(contentType string) bool {
	_, ok := causeVideoTypes[normalizeCT(contentType)]
	return ok
}

// AllowedProfilePhoto reports whether contentType may be stored as a profile
// picture.
func AllowedProfilePhoto(contentType string) bool {
	_, ok := profilePhotoTypes[normalizeCT(contentType)]
	return ok
}

func normalizeCT(ct string) string {
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Store abstracts where uploaded files land. Handlers depend on this, not on
// the disk layout.
type Store interface {
	// Save writes the file and returns its storage path for persistence on
	// the owning document.
	Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error)
	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, storagePath string) error
}

// Local stores files under a root directory, partitioned by upload date so
// no single directory grows without bound.
type Local struct {
	root      string
	urlPrefix string
}

// NewLocal creates a Local store rooted at dir. urlPrefix is the public URL
// prefix stored paths are served under.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create storage root: %w", err)
	}
	return &Local{root: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Save writes the file under root/YYYY/MM with a uuid-prefixed sanitized
// name and returns the relative storage path.
func (l *Local) Save(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	if size > MaxUploadBytes {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := path.Join(
		time.Now().UTC().Format("2006/01"),
		uuid.NewString()+"-"+SanitizeFilename(filename),
	)
	abs := filepath.Join(l.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("media: create partition dir: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("media: create file: %w", err)
	}
	defer f.Close()

	// +1 so a reader lying about its size is caught, not silently truncated.
	n, err := io.Copy(f, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		os.Remove(abs)
		return "", fmt.Errorf("media: write file: %w", err)
	}
	if n > MaxUploadBytes {
		os.Remove(abs)
		return "", ErrTooLarge
	}
	return rel, nil
}

// Delete removes a stored file.
func (l *Local) Delete(_ context.Context, storagePath string) error {
	abs := filepath.Join(l.root, filepath.FromSlash(storagePath))
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("media: delete file: %w", err)
	}
	return nil
}

// URL returns the public URL for a stored path.
func (l *Local) URL(storagePath string) string {
	return l.urlPrefix + "/" + storagePath
}

// Root returns the storage root for mounting a file server.
func (l *Local) Root() string {
	return l.root
}

// SanitizeFilename strips path components and squeezes anything outside
// [A-Za-z0-9._-] to a dash.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "file"
	}
	return out
}
