package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository"
)

// Transition is the outcome of one applied step change. Credit is non-nil
// when the change released the task's commission and must be settled in the
// same unit of work.
type Transition struct {
	Task   *domain.Task
	Step   *domain.TaskStep
	Credit *domain.Credit
}

// StepTransitionEngine applies step changes to a task already inside a unit
// of work. It holds no state between calls.
type StepTransitionEngine struct{}

func NewStepTransitionEngine() *StepTransitionEngine {
	return &StepTransitionEngine{}
}

// ApproveStep completes stepNumber on behalf of an admin. The task row is
// locked first, so the ordering check and the write see the same state.
func (e *StepTransitionEngine) ApproveStep(ctx context.Context, tasks repository.TaskRepository, taskID int32, stepNumber int, adminID int32, payload domain.StepPayload, now time.Time) (*Transition, error) {
	logger.EnterMethod("StepTransitionEngine.ApproveStep", "taskID", taskID, "step", stepNumber, "adminID", adminID)

	if err := validateApproval(stepNumber, payload); err != nil {
		return nil, err
	}

	task, target, err := e.lockTarget(ctx, tasks, taskID, stepNumber)
	if err != nil {
		return nil, err
	}

	submittedAt := target.SubmittedAt
	if submittedAt == nil {
		submittedAt = &now
	}
	step, err := tasks.UpdateStep(ctx, taskID, stepNumber, domain.StepFields{
		Status:           domain.StepStatusCompleted,
		SubmittedByAdmin: true,
		Payload:          target.Payload.Merge(payload),
		ApprovedBy:       &adminID,
		ApprovedAt:       &now,
		SubmittedAt:      submittedAt,
	})
	if err != nil {
		return nil, err
	}

	tr := &Transition{Task: task, Step: step}
	if stepNumber == domain.StepRefundRequested {
		if err := tasks.UpdateStatus(ctx, taskID, domain.TaskStatusCompleted); err != nil {
			return nil, err
		}
		task.Status = domain.TaskStatusCompleted
		tr.Credit = &domain.Credit{
			BeneficiaryID:   task.AssignedUserID,
			Amount:          task.CommissionAmount,
			Kind:            domain.PaymentKindRefund,
			SourceReference: task.RefundReference(),
		}
	}

	logger.ExitMethod("StepTransitionEngine.ApproveStep", "taskID", taskID, "step", stepNumber, "taskStatus", task.Status)
	return tr, nil
}

// RecordSubmission stores reviewer-entered data on a pending step. The step
// stays pending until an admin approves it.
func (e *StepTransitionEngine) RecordSubmission(ctx context.Context, tasks repository.TaskRepository, reviewerID, taskID int32, stepNumber int, payload domain.StepPayload, now time.Time) (*Transition, error) {
	logger.EnterMethod("StepTransitionEngine.RecordSubmission", "taskID", taskID, "step", stepNumber, "reviewerID", reviewerID)

	if !domain.ValidStepNumber(stepNumber) {
		return nil, fmt.Errorf("step %d: %w", stepNumber, domain.ErrInvalidStep)
	}
	if err := validateSubmission(stepNumber, payload); err != nil {
		return nil, err
	}

	task, target, err := e.lockTarget(ctx, tasks, taskID, stepNumber)
	if err != nil {
		return nil, err
	}
	if task.AssignedUserID != reviewerID {
		return nil, fmt.Errorf("task %d is not assigned to user %d: %w", taskID, reviewerID, domain.ErrForbidden)
	}

	step, err := tasks.UpdateStep(ctx, taskID, stepNumber, domain.StepFields{
		Status:           domain.StepStatusPending,
		SubmittedByAdmin: false,
		Payload:          target.Payload.Merge(payload),
		SubmittedAt:      &now,
	})
	if err != nil {
		return nil, err
	}

	if stepNumber == domain.StepRefundRequested && !task.RefundRequested {
		if err := tasks.SetRefundRequested(ctx, taskID); err != nil {
			return nil, err
		}
		task.RefundRequested = true
	}
	if task.Status == domain.TaskStatusPending {
		if err := tasks.UpdateStatus(ctx, taskID, domain.TaskStatusInProgress); err != nil {
			return nil, err
		}
		task.Status = domain.TaskStatusInProgress
	}

	logger.ExitMethod("StepTransitionEngine.RecordSubmission", "taskID", taskID, "step", stepNumber)
	return &Transition{Task: task, Step: step}, nil
}

// lockTarget locks the task and checks that stepNumber is the next step in
// order: the task is open, the target is pending and its predecessor is done.
func (e *StepTransitionEngine) lockTarget(ctx context.Context, tasks repository.TaskRepository, taskID int32, stepNumber int) (*domain.Task, *domain.TaskStep, error) {
	task, err := tasks.GetForUpdate(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task.IsClosed() {
		return nil, nil, fmt.Errorf("task %d is %s: %w", taskID, task.Status, domain.ErrOutOfOrderTransition)
	}

	steps, err := tasks.GetSteps(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	byNumber := make(map[int]*domain.TaskStep, len(steps))
	for i := range steps {
		byNumber[steps[i].StepNumber] = &steps[i]
	}

	target, ok := byNumber[stepNumber]
	if !ok {
		return nil, nil, fmt.Errorf("step %d of task %d: %w", stepNumber, taskID, domain.ErrNotFound)
	}
	if target.IsCompleted() {
		return nil, nil, fmt.Errorf("step %d of task %d already completed: %w", stepNumber, taskID, domain.ErrOutOfOrderTransition)
	}
	if stepNumber > domain.StepOrderPlaced {
		prev, ok := byNumber[stepNumber-1]
		if !ok || !prev.IsCompleted() {
			return nil, nil, fmt.Errorf("step %d of task %d requires step %d: %w", stepNumber, taskID, stepNumber-1, domain.ErrOutOfOrderTransition)
		}
	}
	return task, target, nil
}

func validateApproval(stepNumber int, payload domain.StepPayload) error {
	if !domain.ValidStepNumber(stepNumber) {
		return fmt.Errorf("step %d: %w", stepNumber, domain.ErrInvalidStep)
	}
	if stepNumber == domain.StepRefundRequested && strings.TrimSpace(payload.PaymentScreenshotRef) == "" {
		return domain.ErrMissingEvidence
	}
	return nil
}

// validateSubmission checks the evidence a reviewer must attach per step.
func validateSubmission(stepNumber int, p domain.StepPayload) error {
	switch stepNumber {
	case domain.StepOrderPlaced:
		if strings.TrimSpace(p.OrderNumber) == "" {
			return fmt.Errorf("order number is required: %w", domain.ErrInvalidInput)
		}
		if p.OrderAmount.IsNegative() {
			return fmt.Errorf("order amount: %w", domain.ErrInvalidAmount)
		}
	case domain.StepDelivered:
		if p.DeliveryScreenshotRef == "" {
			return fmt.Errorf("delivery screenshot is required: %w", domain.ErrInvalidInput)
		}
	case domain.StepReviewSubmitted:
		if p.ReviewScreenshotRef == "" && strings.TrimSpace(p.ReviewLink) == "" {
			return fmt.Errorf("review screenshot or link is required: %w", domain.ErrInvalidInput)
		}
	case domain.StepRefundRequested:
		if p.PaymentScreenshotRef == "" {
			return domain.ErrMissingEvidence
		}
		if p.RefundAmount.IsNegative() {
			return fmt.Errorf("refund amount: %w", domain.ErrInvalidAmount)
		}
	}
	return nil
}
