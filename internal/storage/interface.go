package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
	ErrFileEmpty       = errors.New("file is empty")
	ErrTypeNotAllowed  = errors.New("file type is not allowed")
	ErrInvalidCategory = errors.New("invalid upload category")
	ErrInvalidRef      = errors.New("invalid upload reference")
)

// Upload categories. Each maps to a subdirectory of the upload root.
const (
	CategoryOrder    = "orders"
	CategoryDelivery = "deliveries"
	CategoryReview   = "reviews"
	CategoryPayment  = "payments"
	CategoryRecharge = "recharges"
)

// UploadStore captures uploaded evidence files and hands back a reference
// string. The workflow core only ever sees the reference.
type UploadStore interface {
	// StoreUpload persists data and returns its reference.
	StoreUpload(ctx context.Context, data []byte, category, filename string) (string, error)

	// Open opens a stored file for reading.
	Open(ref string) (io.ReadCloser, error)

	// Delete removes a stored file. Missing files are not an error.
	Delete(ctx context.Context, ref string) error

	// MaxFileSize is the largest accepted upload in bytes.
	MaxFileSize() int64
}
