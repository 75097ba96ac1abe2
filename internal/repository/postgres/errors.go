package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"reviewhub-backend/internal/repository"

	"github.com/lib/pq"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// IsTransient reports whether err is worth retrying: serialization failures,
// deadlocks, dropped connections and anything in the connection-exception class.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return pqErr.Code.Class() == "08"
}

// classify wraps errors a retry can resolve in repository.ErrTransient. A
// unique violation means a concurrent writer won the key; the next attempt
// reads its committed row. Everything else is returned unchanged.
func classify(err error) error {
	if IsTransient(err) || IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", repository.ErrTransient, err)
	}
	return err
}
