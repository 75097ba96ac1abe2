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

const paymentColumns = `id, user_id, amount, kind, status, source_reference, created_at`

type paymentRepository struct {
	db DBTX
}

func NewPaymentRepository(db DBTX) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

// Insert relies on the unique source_reference: a second insert for the same
// reference returns no row and is reported as not inserted.
func (r *paymentRepository) Insert(ctx context.Context, p *domain.PaymentTransaction) (bool, error) {
	logger.EnterMethod("paymentRepository.Insert", "userID", p.UserID, "reference", p.SourceReference)

	query := `INSERT INTO payment_transactions (user_id, amount, kind, status, source_reference, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (source_reference) DO NOTHING
	          RETURNING id`
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	logger.DatabaseCall("INSERT", "payment_transactions", "reference", p.SourceReference)
	err := r.db.QueryRowContext(ctx, query, p.UserID, p.Amount, p.Kind, p.Status, p.SourceReference, p.CreatedAt).Scan(&p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.ExitMethod("paymentRepository.Insert", "reference", p.SourceReference, "inserted", false)
		return false, nil
	}
	if err != nil {
		logger.ExitMethodWithError("paymentRepository.Insert", err, "reference", p.SourceReference)
		return false, err
	}

	logger.ExitMethod("paymentRepository.Insert", "paymentID", p.ID, "inserted", true)
	return true, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE source_reference = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %q: %w", reference, domain.ErrNotFound)
	}
	return p, err
}

func scanPayment(row rowScanner) (*domain.PaymentTransaction, error) {
	p := &domain.PaymentTransaction{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Kind, &p.Status, &p.SourceReference, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PaymentTransaction, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM payment_transactions WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)
	query := `SELECT ` + paymentColumns + ` FROM payment_transactions WHERE user_id = $1
	          ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []domain.PaymentTransaction
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *p)
	}
	return txs, count, rows.Err()
}

func (r *paymentRepository) CountByReferencePrefix(ctx context.Context, prefix string) (map[string]int32, error) {
	query := `SELECT source_reference, count(*) FROM payment_transactions
	          WHERE source_reference LIKE $1 GROUP BY source_reference`
	rows, err := r.db.QueryContext(ctx, query, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int32)
	for rows.Next() {
		var ref string
		var n int32
		if err := rows.Scan(&ref, &n); err != nil {
			return nil, err
		}
		counts[ref] = n
	}
	return counts, rows.Err()
}

func (r *paymentRepository) SumByUser(ctx context.Context) (map[int32]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id, SUM(amount) FROM payment_transactions GROUP BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[int32]decimal.Decimal)
	for rows.Next() {
		var userID int32
		var sum decimal.Decimal
		if err := rows.Scan(&userID, &sum); err != nil {
			return nil, err
		}
		sums[userID] = sum
	}
	return sums, rows.Err()
}
