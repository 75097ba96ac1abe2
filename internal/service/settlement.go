package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/metrics"
	"reviewhub-backend/internal/repository"

	"github.com/shopspring/decimal"
)

// SettlementEngine credits wallets exactly once per source reference. It
// must run inside the caller's unit of work so the payment record and the
// balance change commit or roll back together.
type SettlementEngine struct{}

func NewSettlementEngine() *SettlementEngine {
	return &SettlementEngine{}
}

// ApplyCredit records the payment and then increments the balance. A
// reference that was already settled is a no-op that reports Applied=false
// with the current balance.
func (e *SettlementEngine) ApplyCredit(ctx context.Context, uow repository.UnitOfWork, c domain.Credit) (*domain.Settlement, error) {
	logger.EnterMethod("SettlementEngine.ApplyCredit", "beneficiaryID", c.BeneficiaryID, "reference", c.SourceReference)

	if err := domain.ValidateAmount(c.Amount, decimal.Zero); err != nil {
		return nil, fmt.Errorf("credit %s for %q: %w", c.Amount, c.SourceReference, err)
	}
	if c.BeneficiaryID <= 0 || strings.TrimSpace(c.SourceReference) == "" {
		return nil, fmt.Errorf("credit needs a beneficiary and a source reference: %w", domain.ErrInvalidInput)
	}

	tx := &domain.PaymentTransaction{
		UserID:          c.BeneficiaryID,
		Amount:          c.Amount,
		Kind:            c.Kind,
		Status:          domain.PaymentStatusSuccess,
		SourceReference: c.SourceReference,
		CreatedAt:       time.Now(),
	}
	inserted, err := uow.Payments().Insert(ctx, tx)
	if err != nil {
		logger.ExitMethodWithError("SettlementEngine.ApplyCredit", err, "reference", c.SourceReference)
		return nil, err
	}

	if !inserted {
		balance, err := uow.Wallets().GetBalance(ctx, c.BeneficiaryID)
		if err != nil {
			return nil, err
		}
		logger.Info("Credit already settled, skipping", "reference", c.SourceReference, "beneficiaryID", c.BeneficiaryID)
		metrics.ObserveSettlement(c.Kind, false, nil)
		return &domain.Settlement{Balance: balance, Applied: false}, nil
	}

	balance, err := uow.Wallets().Credit(ctx, c.BeneficiaryID, c.Amount)
	if err != nil {
		logger.ExitMethodWithError("SettlementEngine.ApplyCredit", err, "reference", c.SourceReference)
		return nil, err
	}

	metrics.ObserveSettlement(c.Kind, true, nil)
	logger.ExitMethod("SettlementEngine.ApplyCredit", "reference", c.SourceReference, "balance", balance.StringFixed(domain.MoneyScale))
	return &domain.Settlement{Transaction: tx, Balance: balance, Applied: true}, nil
}
