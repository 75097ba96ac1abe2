package service

import (
	"context"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/repository"

	"github.com/shopspring/decimal"
)

type walletService struct {
	walletRepo  repository.WalletRepository
	paymentRepo repository.PaymentRepository
}

func NewWalletService(walletRepo repository.WalletRepository, paymentRepo repository.PaymentRepository) WalletService {
	return &walletService{walletRepo: walletRepo, paymentRepo: paymentRepo}
}

func (s *walletService) GetBalance(ctx context.Context, userID int32) (decimal.Decimal, error) {
	return s.walletRepo.GetBalance(ctx, userID)
}

func (s *walletService) GetLedger(ctx context.Context, userID int32) (*domain.WalletLedger, error) {
	return s.walletRepo.GetLedger(ctx, userID)
}

func (s *walletService) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PaymentTransaction, int32, error) {
	return s.paymentRepo.ListByUser(ctx, userID, page, pageSize)
}
