package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository can run
// standalone or inside a unit of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.TaskRepository
	repository.WalletRepository
	repository.RechargeRepository
	repository.PaymentRepository
	repository.NotificationRepository
	repository.ActivityRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		TaskRepository:         NewTaskRepository(db),
		WalletRepository:       NewWalletRepository(db),
		RechargeRepository:     NewRechargeRepository(db),
		PaymentRepository:      NewPaymentRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		ActivityRepository:     NewActivityRepository(db),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// WithinTx runs fn in a READ COMMITTED transaction. Failures worth another
// attempt come back wrapped in repository.ErrTransient. Serialization between
// concurrent writers comes from the explicit row locks the repositories take
// (GetForUpdate) and the status guards on every conditional update.
func (s *Store) WithinTx(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: tx begin failed: %w", repository.ErrTransient, err)
	}
	defer tx.Rollback()

	if err := fn(newUnitOfWork(tx)); err != nil {
		logger.Debug("Rolling back transaction", "error", err)
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("tx commit failed: %w", err))
	}
	return nil
}

type unitOfWork struct {
	tasks     repository.TaskRepository
	wallets   repository.WalletRepository
	recharges repository.RechargeRepository
	payments  repository.PaymentRepository
}

func newUnitOfWork(tx *sql.Tx) *unitOfWork {
	return &unitOfWork{
		tasks:     NewTaskRepository(tx),
		wallets:   NewWalletRepository(tx),
		recharges: NewRechargeRepository(tx),
		payments:  NewPaymentRepository(tx),
	}
}

func (u *unitOfWork) Tasks() repository.TaskRepository         { return u.tasks }
func (u *unitOfWork) Wallets() repository.WalletRepository     { return u.wallets }
func (u *unitOfWork) Recharges() repository.RechargeRepository { return u.recharges }
func (u *unitOfWork) Payments() repository.PaymentRepository   { return u.payments }
