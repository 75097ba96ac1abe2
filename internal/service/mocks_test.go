package service_test

import (
	"context"

	"reviewhub-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockActivityRepo
type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Create(ctx context.Context, entry *domain.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockActivityRepo) ListByTask(ctx context.Context, taskID int32) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendAdminNotification(ctx context.Context, subject, message string) error {
	args := m.Called(ctx, subject, message)
	return args.Error(0)
}

// MockWalletRepo
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) GetBalance(ctx context.Context, userID int32) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockWalletRepo) GetLedger(ctx context.Context, userID int32) (*domain.WalletLedger, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletLedger), args.Error(1)
}
func (m *MockWalletRepo) Credit(ctx context.Context, userID int32, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockWalletRepo) ListLedgers(ctx context.Context) ([]domain.WalletLedger, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.WalletLedger), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Insert(ctx context.Context, tx *domain.PaymentTransaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}
func (m *MockPaymentRepo) GetByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}
func (m *MockPaymentRepo) ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PaymentTransaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.PaymentTransaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockPaymentRepo) CountByReferencePrefix(ctx context.Context, prefix string) (map[string]int32, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(map[string]int32), args.Error(1)
}
func (m *MockPaymentRepo) SumByUser(ctx context.Context) (map[int32]decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[int32]decimal.Decimal), args.Error(1)
}
