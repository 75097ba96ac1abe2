package http_test

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/service"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) AssignTask(ctx context.Context, adminID int32, in service.NewTask) (*domain.TaskDetail, error) {
	args := m.Called(ctx, adminID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskDetail), args.Error(1)
}
func (m *MockTaskService) SubmitStepApproval(ctx context.Context, adminID, taskID int32, stepNumber int, payload domain.StepPayload) (*service.StepApprovalResult, error) {
	args := m.Called(ctx, adminID, taskID, stepNumber, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StepApprovalResult), args.Error(1)
}
func (m *MockTaskService) SubmitStep(ctx context.Context, reviewerID, taskID int32, stepNumber int, payload domain.StepPayload) (*domain.TaskStep, error) {
	args := m.Called(ctx, reviewerID, taskID, stepNumber, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskStep), args.Error(1)
}
func (m *MockTaskService) RejectTask(ctx context.Context, adminID, taskID int32, reason string) (*domain.Task, error) {
	args := m.Called(ctx, adminID, taskID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}
func (m *MockTaskService) GetTask(ctx context.Context, taskID int32) (*domain.TaskDetail, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaskDetail), args.Error(1)
}
func (m *MockTaskService) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int32, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Task), args.Get(1).(int32), args.Error(2)
}

type MockRechargeService struct {
	mock.Mock
}

func (m *MockRechargeService) CreateRechargeRequest(ctx context.Context, sellerID int32, in service.NewRechargeRequest) (*domain.WalletRechargeRequest, error) {
	args := m.Called(ctx, sellerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletRechargeRequest), args.Error(1)
}
func (m *MockRechargeService) DecideRecharge(ctx context.Context, requestID int32, decision domain.RechargeDecision, adminID int32, remarks string) (*domain.WalletRechargeRequest, error) {
	args := m.Called(ctx, requestID, decision, adminID, remarks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletRechargeRequest), args.Error(1)
}
func (m *MockRechargeService) ListRechargeRequests(ctx context.Context, sellerID int32, page, pageSize int32) ([]domain.WalletRechargeRequest, int32, error) {
	args := m.Called(ctx, sellerID, page, pageSize)
	return args.Get(0).([]domain.WalletRechargeRequest), args.Get(1).(int32), args.Error(2)
}

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID int32) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockWalletService) GetLedger(ctx context.Context, userID int32) (*domain.WalletLedger, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletLedger), args.Error(1)
}
func (m *MockWalletService) ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PaymentTransaction, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.PaymentTransaction), args.Get(1).(int32), args.Error(2)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}
