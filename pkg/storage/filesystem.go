package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/tankas-app/tankas-api/pkg/errors"
)

// MediaRoute is the URL prefix under which stored blobs are served.
const MediaRoute = "/media"

// Options configures a LocalStorage.
type Options struct {
	BaseDir           string
	PublicBaseURL     string
	MaxFileSize       int64
	AllowedExtensions []string
	MaxWidth          int
	MaxHeight         int
	JPEGQuality       int
}

// LocalStorage persists normalised images on disk under a base directory and
// hands out public URLs for them.
type LocalStorage struct {
	baseDir   string
	publicURL string
	maxSize   int64
	allowed   map[string]struct{}
	maxWidth  int
	maxHeight int
	quality   int
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(opts Options) (*LocalStorage, error) {
	if opts.BaseDir == "" {
		opts.BaseDir = "./uploads"
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 5 * 1024 * 1024
	}
	if len(opts.AllowedExtensions) == 0 {
		opts.AllowedExtensions = []string{"jpg", "jpeg", "png", "webp"}
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1920
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 1080
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 85
	}
	if err := os.MkdirAll(opts.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &LocalStorage{
		baseDir:   opts.BaseDir,
		publicURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		maxSize:   opts.MaxFileSize,
		allowed:   allowed,
		maxWidth:  opts.MaxWidth,
		maxHeight: opts.MaxHeight,
		quality:   opts.JPEGQuality,
	}, nil
}

// Dir returns the directory served under MediaRoute.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// Upload validates, resizes and stores an image, returning its public URL.
func (s *LocalStorage) Upload(ctx context.Context, data []byte, filename, folder string) (string, error) {
	if err := s.validate(data, filename); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	normalised, err := Normalize(data, s.maxWidth, s.maxHeight, s.quality)
	if err != nil {
		return "", err
	}

	folder = sanitizeFolder(folder)
	rel := path.Join(folder, uuid.NewString()+".jpg")
	target := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to prepare upload directory")
	}
	if err := os.WriteFile(target, normalised, 0o644); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store image")
	}

	return s.publicURL + MediaRoute + "/" + rel, nil
}

// Delete removes a previously uploaded blob. Unknown URLs are ignored.
func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	rel, ok := s.relativePath(url)
	if !ok {
		return nil
	}
	if err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *LocalStorage) validate(data []byte, filename string) error {
	if len(data) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := s.allowed[ext]; !ok {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not allowed", ext))
	}
	if int64(len(data)) > s.maxSize {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxSize))
	}
	return nil
}

func (s *LocalStorage) relativePath(url string) (string, bool) {
	prefix := s.publicURL + MediaRoute + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	rel := path.Clean(strings.TrimPrefix(url, prefix))
	if rel == "." || strings.HasPrefix(rel, "..") || path.IsAbs(rel) {
		return "", false
	}
	return rel, true
}

func sanitizeFolder(folder string) string {
	folder = path.Clean("/" + strings.ReplaceAll(folder, "\\", "/"))
	folder = strings.TrimPrefix(folder, "/")
	if folder == "" || folder == "." {
		return "misc"
	}
	return folder
}
