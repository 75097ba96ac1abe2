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
)

const rechargeColumns = `id, seller_id, amount, utr_number, transfer_date, screenshot_ref, status,
	admin_remarks, approved_by, approved_at, created_at`

type rechargeRepository struct {
	db DBTX
}

func NewRechargeRepository(db DBTX) repository.RechargeRepository {
	return &rechargeRepository{db: db}
}

func (r *rechargeRepository) Create(ctx context.Context, req *domain.WalletRechargeRequest) error {
	logger.EnterMethod("rechargeRepository.Create", "sellerID", req.SellerID, "utr", req.UTRNumber)

	query := `INSERT INTO wallet_recharge_requests (seller_id, amount, utr_number, transfer_date, screenshot_ref, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	req.Status = domain.RechargeStatusPending
	req.CreatedAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		req.SellerID, req.Amount, req.UTRNumber, req.TransferDate, req.ScreenshotRef, req.Status, req.CreatedAt,
	).Scan(&req.ID)
	if err != nil {
		logger.ExitMethodWithError("rechargeRepository.Create", err, "sellerID", req.SellerID)
		return err
	}

	logger.ExitMethod("rechargeRepository.Create", "requestID", req.ID)
	return nil
}

func (r *rechargeRepository) GetByID(ctx context.Context, id int32) (*domain.WalletRechargeRequest, error) {
	return r.get(ctx, `SELECT `+rechargeColumns+` FROM wallet_recharge_requests WHERE id = $1`, id)
}

func (r *rechargeRepository) GetForUpdate(ctx context.Context, id int32) (*domain.WalletRechargeRequest, error) {
	return r.get(ctx, `SELECT `+rechargeColumns+` FROM wallet_recharge_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *rechargeRepository) get(ctx context.Context, query string, id int32) (*domain.WalletRechargeRequest, error) {
	req, err := scanRecharge(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recharge request %d: %w", id, domain.ErrNotFound)
	}
	return req, err
}

func scanRecharge(row rowScanner) (*domain.WalletRechargeRequest, error) {
	req := &domain.WalletRechargeRequest{}
	err := row.Scan(&req.ID, &req.SellerID, &req.Amount, &req.UTRNumber, &req.TransferDate, &req.ScreenshotRef,
		&req.Status, &req.AdminRemarks, &req.ApprovedBy, &req.ApprovedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *rechargeRepository) Decide(ctx context.Context, req *domain.WalletRechargeRequest) (bool, error) {
	logger.EnterMethod("rechargeRepository.Decide", "requestID", req.ID, "status", req.Status)

	query := `UPDATE wallet_recharge_requests
	          SET status = $1, admin_remarks = $2, approved_by = $3, approved_at = $4
	          WHERE id = $5 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, req.Status, req.AdminRemarks, req.ApprovedBy, req.ApprovedAt, req.ID)
	if err != nil {
		logger.ExitMethodWithError("rechargeRepository.Decide", err, "requestID", req.ID)
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	logger.DatabaseResult("UPDATE", rows, nil, "requestID", req.ID)

	logger.ExitMethod("rechargeRepository.Decide", "requestID", req.ID, "applied", rows == 1)
	return rows == 1, nil
}

func (r *rechargeRepository) ListBySeller(ctx context.Context, sellerID int32, page, pageSize int32) ([]domain.WalletRechargeRequest, int32, error) {
	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM wallet_recharge_requests WHERE seller_id = $1`, sellerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)
	query := `SELECT ` + rechargeColumns + ` FROM wallet_recharge_requests WHERE seller_id = $1
	          ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, sellerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []domain.WalletRechargeRequest
	for rows.Next() {
		req, err := scanRecharge(rows)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, *req)
	}
	return reqs, count, rows.Err()
}

func (r *rechargeRepository) CountPending(ctx context.Context) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM wallet_recharge_requests WHERE status = 'pending'`).Scan(&count)
	return count, err
}

func (r *rechargeRepository) ListApprovedIDs(ctx context.Context) ([]int32, error) {
	return queryIDs(ctx, r.db, `SELECT id FROM wallet_recharge_requests WHERE status = 'approved' ORDER BY id`)
}
