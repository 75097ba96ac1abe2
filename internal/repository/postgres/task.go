package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository"
)

const taskColumns = `id, assigned_user_id, product_link, commission_amount, priority, deadline,
	status, refund_requested, rejection_reason, created_by, created_at, updated_at`

const stepColumns = `id, task_id, step_number, status, submitted_by_admin, order_number, order_amount,
	order_screenshot_ref, delivery_screenshot_ref, review_screenshot_ref, review_link,
	payment_screenshot_ref, refund_amount, approved_by, approved_at, submitted_at, created_at`

type taskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) CreateWithSteps(ctx context.Context, t *domain.Task) ([]domain.TaskStep, error) {
	logger.EnterMethod("taskRepository.CreateWithSteps", "assignedUserID", t.AssignedUserID)

	query := `INSERT INTO tasks (assigned_user_id, product_link, commission_amount, priority, deadline, status, refund_requested, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $8) RETURNING id, created_at, updated_at`
	now := time.Now()
	logger.DatabaseCall("INSERT", "tasks", "assignedUserID", t.AssignedUserID)
	err := r.db.QueryRowContext(ctx, query,
		t.AssignedUserID, t.ProductLink, t.CommissionAmount, t.Priority, t.Deadline, domain.TaskStatusPending, t.CreatedBy, now,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("taskRepository.CreateWithSteps", err, "stage", "task")
		return nil, err
	}
	t.Status = domain.TaskStatusPending
	t.RefundRequested = false

	// All four steps go in one statement so a task never exists with a partial step set.
	stepsQuery := `INSERT INTO task_steps (task_id, step_number, status, submitted_by_admin, created_at)
	               VALUES ($1, 1, $2, FALSE, $3), ($1, 2, $2, FALSE, $3), ($1, 3, $2, FALSE, $3), ($1, 4, $2, FALSE, $3)
	               RETURNING id, step_number, created_at`
	logger.DatabaseCall("INSERT", "task_steps", "taskID", t.ID)
	rows, err := r.db.QueryContext(ctx, stepsQuery, t.ID, domain.StepStatusPending, now)
	if err != nil {
		logger.ExitMethodWithError("taskRepository.CreateWithSteps", err, "stage", "steps", "taskID", t.ID)
		return nil, err
	}
	defer rows.Close()

	steps := make([]domain.TaskStep, 0, domain.StepCount)
	for rows.Next() {
		s := domain.TaskStep{TaskID: t.ID, Status: domain.StepStatusPending}
		if err := rows.Scan(&s.ID, &s.StepNumber, &s.CreatedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(steps) != domain.StepCount {
		return nil, fmt.Errorf("expected %d steps for task %d, created %d", domain.StepCount, t.ID, len(steps))
	}
	sortSteps(steps)

	logger.ExitMethod("taskRepository.CreateWithSteps", "taskID", t.ID)
	return steps, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id int32) (*domain.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
}

func (r *taskRepository) GetForUpdate(ctx context.Context, id int32) (*domain.Task, error) {
	return r.get(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
}

func (r *taskRepository) get(ctx context.Context, query string, id int32) (*domain.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	t := &domain.Task{}
	err := row.Scan(&t.ID, &t.AssignedUserID, &t.ProductLink, &t.CommissionAmount, &t.Priority, &t.Deadline,
		&t.Status, &t.RefundRequested, &t.RejectionReason, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func scanStep(row rowScanner) (*domain.TaskStep, error) {
	s := &domain.TaskStep{}
	p := &s.Payload
	err := row.Scan(&s.ID, &s.TaskID, &s.StepNumber, &s.Status, &s.SubmittedByAdmin, &p.OrderNumber, &p.OrderAmount,
		&p.OrderScreenshotRef, &p.DeliveryScreenshotRef, &p.ReviewScreenshotRef, &p.ReviewLink,
		&p.PaymentScreenshotRef, &p.RefundAmount, &s.ApprovedBy, &s.ApprovedAt, &s.SubmittedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *taskRepository) GetSteps(ctx context.Context, taskID int32) ([]domain.TaskStep, error) {
	query := `SELECT ` + stepColumns + ` FROM task_steps WHERE task_id = $1 ORDER BY step_number`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.TaskStep
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, *s)
	}
	return steps, rows.Err()
}

// UpdateStep writes fields onto a step that is still pending. Completed steps
// are immutable, so a step that is no longer pending yields ErrOutOfOrderTransition.
func (r *taskRepository) UpdateStep(ctx context.Context, taskID int32, stepNumber int, f domain.StepFields) (*domain.TaskStep, error) {
	logger.EnterMethod("taskRepository.UpdateStep", "taskID", taskID, "step", stepNumber, "status", f.Status)

	p := f.Payload
	query := `UPDATE task_steps SET status = $1, submitted_by_admin = $2, order_number = $3, order_amount = $4,
	              order_screenshot_ref = $5, delivery_screenshot_ref = $6, review_screenshot_ref = $7, review_link = $8,
	              payment_screenshot_ref = $9, refund_amount = $10, approved_by = $11, approved_at = $12, submitted_at = $13
	          WHERE task_id = $14 AND step_number = $15 AND status = 'pending'
	          RETURNING ` + stepColumns
	logger.DatabaseCall("UPDATE", "task_steps", "taskID", taskID, "step", stepNumber)
	s, err := scanStep(r.db.QueryRowContext(ctx, query,
		f.Status, f.SubmittedByAdmin, p.OrderNumber, p.OrderAmount,
		p.OrderScreenshotRef, p.DeliveryScreenshotRef, p.ReviewScreenshotRef, p.ReviewLink,
		p.PaymentScreenshotRef, p.RefundAmount, f.ApprovedBy, f.ApprovedAt, f.SubmittedAt,
		taskID, stepNumber,
	))
	if errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("UPDATE", 0, nil, "taskID", taskID, "step", stepNumber)
		return nil, fmt.Errorf("step %d of task %d is not pending: %w", stepNumber, taskID, domain.ErrOutOfOrderTransition)
	}
	if err != nil {
		logger.ExitMethodWithError("taskRepository.UpdateStep", err, "taskID", taskID)
		return nil, err
	}

	logger.ExitMethod("taskRepository.UpdateStep", "taskID", taskID, "step", stepNumber)
	return s, nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, taskID int32, status domain.TaskStatus) error {
	query := `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3`
	return r.execOne(ctx, "UpdateStatus", query, status, time.Now(), taskID)
}

func (r *taskRepository) SetRefundRequested(ctx context.Context, taskID int32) error {
	query := `UPDATE tasks SET refund_requested = TRUE, updated_at = $1 WHERE id = $2`
	return r.execOne(ctx, "SetRefundRequested", query, time.Now(), taskID)
}

func (r *taskRepository) Reject(ctx context.Context, taskID int32, reason string) error {
	query := `UPDATE tasks SET status = 'rejected', rejection_reason = $1, updated_at = $2
	          WHERE id = $3 AND status IN ('pending', 'in_progress')`
	err := r.execOne(ctx, "Reject", query, reason, time.Now(), taskID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("task %d: %w", taskID, domain.ErrAlreadyProcessed)
	}
	return err
}

func (r *taskRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.ExitMethodWithError("taskRepository."+op, err)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("UPDATE", rows, nil, "op", op)
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *taskRepository) List(ctx context.Context, f domain.TaskFilter) ([]domain.Task, int32, error) {
	where := ` WHERE 1 = 1`
	var args []any
	if f.AssignedUserID > 0 {
		args = append(args, f.AssignedUserID)
		where += fmt.Sprintf(" AND assigned_user_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tasks`+where, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(f.Page, f.PageSize)
	args = append(args, pageSize, (page-1)*pageSize)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, count, rows.Err()
}

// CountPendingRefunds counts tasks whose reviewer requested the refund but
// whose step 4 is not yet approved.
func (r *taskRepository) CountPendingRefunds(ctx context.Context) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM tasks WHERE refund_requested = TRUE AND status NOT IN ('completed', 'rejected')`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (r *taskRepository) ListCompletedIDs(ctx context.Context) ([]int32, error) {
	return queryIDs(ctx, r.db, `SELECT id FROM tasks WHERE status = 'completed' ORDER BY id`)
}

func queryIDs(ctx context.Context, db DBTX, query string) ([]int32, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func sortSteps(steps []domain.TaskStep) {
	slices.SortFunc(steps, func(a, b domain.TaskStep) int { return a.StepNumber - b.StepNumber })
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
