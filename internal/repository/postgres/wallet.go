package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type walletRepository struct {
	db DBTX
}

func NewWalletRepository(db DBTX) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) GetBalance(ctx context.Context, userID int32) (decimal.Decimal, error) {
	var balance decimal.Decimal
	query := `SELECT balance FROM wallet_ledgers WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	return balance, err
}

func (r *walletRepository) GetLedger(ctx context.Context, userID int32) (*domain.WalletLedger, error) {
	w := &domain.WalletLedger{UserID: userID}
	query := `SELECT balance, total_credited, total_spent, updated_at FROM wallet_ledgers WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&w.Balance, &w.TotalCredited, &w.TotalSpent, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.WalletLedger{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Credit is a single upsert-increment: concurrent credits to one holder are
// serialized by the row lock the upsert takes, never by a read in Go.
func (r *walletRepository) Credit(ctx context.Context, userID int32, amount decimal.Decimal) (decimal.Decimal, error) {
	logger.EnterMethod("walletRepository.Credit", "userID", userID, "amount", amount.StringFixed(domain.MoneyScale))

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("credit of %s: %w", amount, domain.ErrInvalidAmount)
	}

	query := `INSERT INTO wallet_ledgers (user_id, balance, total_credited, total_spent, updated_at)
	          VALUES ($1, $2, $2, 0, $3)
	          ON CONFLICT (user_id) DO UPDATE
	          SET balance = wallet_ledgers.balance + EXCLUDED.balance,
	              total_credited = wallet_ledgers.total_credited + EXCLUDED.total_credited,
	              updated_at = EXCLUDED.updated_at
	          RETURNING balance`
	logger.DatabaseCall("UPSERT", "wallet_ledgers", "userID", userID)

	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, userID, amount, time.Now()).Scan(&balance)
	if err != nil {
		logger.ExitMethodWithError("walletRepository.Credit", err, "userID", userID)
		return decimal.Zero, err
	}

	logger.ExitMethod("walletRepository.Credit", "userID", userID, "balance", balance.StringFixed(domain.MoneyScale))
	return balance, nil
}

func (r *walletRepository) ListLedgers(ctx context.Context) ([]domain.WalletLedger, error) {
	query := `SELECT user_id, balance, total_credited, total_spent, updated_at FROM wallet_ledgers ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ledgers []domain.WalletLedger
	for rows.Next() {
		var w domain.WalletLedger
		if err := rows.Scan(&w.UserID, &w.Balance, &w.TotalCredited, &w.TotalSpent, &w.UpdatedAt); err != nil {
			return nil, err
		}
		ledgers = append(ledgers, w)
	}
	return ledgers, rows.Err()
}
