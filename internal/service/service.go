package service

import (
	"context"
	"time"

	"reviewhub-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// NewTask is the admin input for assigning a review task.
type NewTask struct {
	AssignedUserID   int32
	ProductLink      string
	CommissionAmount decimal.Decimal
	Priority         domain.TaskPriority
	Deadline         *time.Time
}

// StepApprovalResult is what an approved step hands back to the caller.
// Settlement is set only when step 4 released the commission.
type StepApprovalResult struct {
	Step       *domain.TaskStep   `json:"step"`
	TaskStatus domain.TaskStatus  `json:"task_status"`
	Settlement *domain.Settlement `json:"settlement,omitempty"`
}

// NewRechargeRequest is the seller input for a bank-transfer recharge.
type NewRechargeRequest struct {
	Amount        decimal.Decimal
	UTRNumber     string
	TransferDate  time.Time
	ScreenshotRef string
}

type TaskService interface {
	AssignTask(ctx context.Context, adminID int32, in NewTask) (*domain.TaskDetail, error)
	SubmitStepApproval(ctx context.Context, adminID, taskID int32, stepNumber int, payload domain.StepPayload) (*StepApprovalResult, error)
	SubmitStep(ctx context.Context, reviewerID, taskID int32, stepNumber int, payload domain.StepPayload) (*domain.TaskStep, error)
	RejectTask(ctx context.Context, adminID, taskID int32, reason string) (*domain.Task, error)
	GetTask(ctx context.Context, taskID int32) (*domain.TaskDetail, error)
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int32, error)
}

type RechargeService interface {
	CreateRechargeRequest(ctx context.Context, sellerID int32, in NewRechargeRequest) (*domain.WalletRechargeRequest, error)
	DecideRecharge(ctx context.Context, requestID int32, decision domain.RechargeDecision, adminID int32, remarks string) (*domain.WalletRechargeRequest, error)
	ListRechargeRequests(ctx context.Context, sellerID int32, page, pageSize int32) ([]domain.WalletRechargeRequest, int32, error)
}

type WalletService interface {
	GetBalance(ctx context.Context, userID int32) (decimal.Decimal, error)
	GetLedger(ctx context.Context, userID int32) (*domain.WalletLedger, error)
	ListTransactions(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PaymentTransaction, int32, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

type EmailService interface {
	SendAdminNotification(ctx context.Context, subject, message string) error
}

// EventPublisher accepts committed state changes for asynchronous fan-out.
// Publish must not block the caller.
type EventPublisher interface {
	Publish(evt domain.Event)
}
