package repository

import (
	"context"
	"errors"

	"reviewhub-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrTransient marks a storage failure that may succeed on a fresh attempt:
// the database was unreachable, the transaction lost a deadlock or
// serialization conflict, or a concurrent writer claimed a unique key first.
var ErrTransient = errors.New("transient storage failure")

type TaskRepository interface {
	// CreateWithSteps inserts the task and its four pending steps. Callers
	// must run it inside a unit of work so the five rows commit together.
	CreateWithSteps(ctx context.Context, task *domain.Task) ([]domain.TaskStep, error)
	GetByID(ctx context.Context, id int32) (*domain.Task, error)
	// GetForUpdate reads the task and locks its row until the unit of work ends.
	GetForUpdate(ctx context.Context, id int32) (*domain.Task, error)
	GetSteps(ctx context.Context, taskID int32) ([]domain.TaskStep, error)
	UpdateStep(ctx context.Context, taskID int32, stepNumber int, fields domain.StepFields) (*domain.TaskStep, error)
	UpdateStatus(ctx context.Context, taskID int32, status domain.TaskStatus) error
	SetRefundRequested(ctx context.Context, taskID int32) error
	Reject(ctx context.Context, taskID int32, reason string) error
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int32, error)
	CountPendingRefunds(ctx context.Context) (int32, error)
	ListCompletedIDs(ctx context.Context) ([]int32, error)
}

type WalletRepository interface {
	// GetBalance returns zero when the holder has no ledger row yet.
	GetBalance(ctx context.Context, userID int32) (decimal.Decimal, error)
	GetLedger(ctx context.Context, userID int32) (*domain.WalletLedger, error)
	// Credit adds amount to the balance in a single upsert-increment and
	// returns the new balance.
	Credit(ctx context.Context, userID int32, amount decimal.Decimal) (decimal.Decimal, error)
	ListLedgers(ctx context.Context) ([]domain.WalletLedger, error)
}

type RechargeRepository interface {
	Create(ctx context.Context, req *domain.WalletRechargeRequest) error
	GetByID(ctx context.Context, id int32) (*domain.WalletRechargeRequest, error)
	GetForUpdate(ctx context.Context, id int32) (*domain.WalletRechargeRequest, error)
	// Decide moves a pending request to status. It reports false when the
	// request was no longer pending.
	Decide(ctx context.Context, req *domain.WalletRechargeRequest) (bool, error)
	ListBySeller(ctx context.Context, sellerID int32, page, pageSize int32) ([]domain.WalletRechargeRequest, int32, error)
	CountPending(ctx context.Context) (int32, error)
	ListApprovedIDs(ctx context.Context) ([]int32, error)
}

type PaymentRepository interface {
	// Insert records a transaction unless one already exists for its source
	// reference. It reports false on the no-op path.
	Insert(ctx context.Context, tx *domain.PaymentTransaction) (bool, error)
	GetByReference(ctx context.Context, reference string) (*domain.PaymentTransaction, error)
	ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.PaymentTransaction, int32, error)
	CountByReferencePrefix(ctx context.Context, prefix string) (map[string]int32, error)
	SumByUser(ctx context.Context) (map[int32]decimal.Decimal, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByTask(ctx context.Context, taskID int32) ([]domain.ActivityLog, error)
}

// UnitOfWork exposes repositories bound to one database transaction.
type UnitOfWork interface {
	Tasks() TaskRepository
	Wallets() WalletRepository
	Recharges() RechargeRepository
	Payments() PaymentRepository
}

// Transactor runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
