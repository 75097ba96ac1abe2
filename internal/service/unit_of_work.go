package service

import (
	"context"
	"errors"
	"fmt"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/metrics"
	"reviewhub-backend/internal/repository"
)

const unitOfWorkAttempts = 2

// runWithRetry runs fn in a transaction. Client errors are returned as is.
// A failure marked repository.ErrTransient rolls back and is retried once;
// any other failure, or a second transient one, is reported as
// ErrSettlementFailed with the cause kept in the chain. fn must reset its
// captured results on every call.
func runWithRetry(ctx context.Context, tx repository.Transactor, operation string, fn func(uow repository.UnitOfWork) error) error {
	var err error
	for attempt := 1; attempt <= unitOfWorkAttempts; attempt++ {
		err = tx.WithinTx(ctx, fn)
		if err == nil || domain.IsClientError(err) {
			return err
		}
		if !errors.Is(err, repository.ErrTransient) || ctx.Err() != nil {
			break
		}
		if attempt < unitOfWorkAttempts {
			logger.Warn("Unit of work failed, retrying", "operation", operation, "attempt", attempt, "error", err)
			metrics.IncRetry(operation)
		}
	}
	logger.Error("Unit of work failed", "operation", operation, "error", err)
	return fmt.Errorf("%w: %s: %w", domain.ErrSettlementFailed, operation, err)
}
