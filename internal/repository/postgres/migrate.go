package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"reviewhub-backend/internal/logger"
)

//go:embed schema.sql
var schema string

// Migrate applies the idempotent schema DDL.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying database schema")
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
