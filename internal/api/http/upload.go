package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/storage"
)

const (
	multipartMemory = 8 << 20
	// multipartSlack covers text fields and part headers on top of the files.
	multipartSlack = 1 << 20
)

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// parseMultipart caps the body at files uploads of the store's maximum size
// and then parses it. An oversized body fails with storage.ErrFileTooLarge
// before it is buffered.
func parseMultipart(w http.ResponseWriter, r *http.Request, store storage.UploadStore, files int) error {
	limit := store.MaxFileSize()*int64(files) + multipartSlack
	if r.ContentLength > limit {
		return fmt.Errorf("%w: request body of %d bytes exceeds %d", storage.ErrFileTooLarge, r.ContentLength, limit)
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", storage.ErrFileTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("malformed multipart body: %w", domain.ErrInvalidInput)
	}
	return nil
}

// uploadSet tracks the files stored while handling one request so they can
// be removed if the request fails.
type uploadSet struct {
	store storage.UploadStore
	refs  []string
}

// capture stores the multipart file in field under category. A missing
// field yields an empty reference.
func (u *uploadSet) capture(r *http.Request, field, category string) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}

	ref, err := u.store.StoreUpload(r.Context(), data, category, header.Filename)
	if err != nil {
		return "", err
	}
	u.refs = append(u.refs, ref)
	return ref, nil
}

// discard deletes every captured file. Failures are logged only.
func (u *uploadSet) discard(ctx context.Context) {
	for _, ref := range u.refs {
		if err := u.store.Delete(ctx, ref); err != nil {
			logger.Warn("Failed to remove orphaned upload", "ref", ref, "error", err)
		}
	}
	u.refs = nil
}

// referencedBy reports whether any captured file appears in refs.
func (u *uploadSet) referencedBy(refs []string) bool {
	return slices.ContainsFunc(u.refs, func(ref string) bool {
		return slices.Contains(refs, ref)
	})
}
