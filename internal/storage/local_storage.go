package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"reviewhub-backend/internal/logger"

	"github.com/google/uuid"
)

var categories = []string{CategoryOrder, CategoryDelivery, CategoryReview, CategoryPayment, CategoryRecharge}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// LocalStorageService stores uploads on the local filesystem under
// <dir>/<category>/<uuid><ext>. The reference is the relative path.
type LocalStorageService struct {
	dir          string
	maxFileSize  int64
	allowedTypes []string
}

// NewLocalStorageService creates the upload root and one directory per category.
func NewLocalStorageService(cfg Config) (*LocalStorageService, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	for _, c := range categories {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, c), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", c, err)
		}
	}

	s := &LocalStorageService{dir: cfg.Dir, maxFileSize: cfg.MaxFileSize, allowedTypes: cfg.AllowedTypes}
	if s.maxFileSize <= 0 {
		s.maxFileSize = defaultMaxFileSize
	}
	if len(s.allowedTypes) == 0 {
		s.allowedTypes = defaultAllowedTypes
	}
	return s, nil
}

func (s *LocalStorageService) MaxFileSize() int64 {
	return s.maxFileSize
}

func (s *LocalStorageService) StoreUpload(ctx context.Context, data []byte, category, filename string) (string, error) {
	logger.EnterMethod("LocalStorageService.StoreUpload", "category", category, "filename", filename, "size", len(data))

	if !slices.Contains(categories, category) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if len(data) == 0 {
		return "", ErrFileEmpty
	}
	if int64(len(data)) > s.maxFileSize {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, len(data), s.maxFileSize)
	}

	contentType := http.DetectContentType(data)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !slices.Contains(s.allowedTypes, contentType) {
		return "", fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
	}

	ext, ok := extensions[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	ref := path.Join(category, uuid.NewString()+ext)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.WriteFile(s.localPath(ref), data, 0644); err != nil {
		logger.ExitMethodWithError("LocalStorageService.StoreUpload", err, "ref", ref)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	logger.ExitMethod("LocalStorageService.StoreUpload", "ref", ref, "contentType", contentType)
	return ref, nil
}

func (s *LocalStorageService) Open(ref string) (io.ReadCloser, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	file, err := os.Open(s.localPath(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorageService) Delete(ctx context.Context, ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	err := os.Remove(s.localPath(ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorageService) localPath(ref string) string {
	return filepath.Join(s.dir, filepath.FromSlash(ref))
}

// validateRef accepts only <category>/<name> references, so a ref can never
// point outside the upload root.
func validateRef(ref string) error {
	category, name, ok := strings.Cut(ref, "/")
	if !ok || !slices.Contains(categories, category) || name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return nil
}
