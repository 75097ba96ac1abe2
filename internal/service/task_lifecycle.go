package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/metrics"
	"reviewhub-backend/internal/repository"
)

type taskService struct {
	tx          repository.Transactor
	taskRepo    repository.TaskRepository
	transitions *StepTransitionEngine
	settlement  *SettlementEngine
	events      EventPublisher
	now         func() time.Time
}

func NewTaskService(
	tx repository.Transactor,
	taskRepo repository.TaskRepository,
	transitions *StepTransitionEngine,
	settlement *SettlementEngine,
	events EventPublisher,
) TaskService {
	return &taskService{
		tx:          tx,
		taskRepo:    taskRepo,
		transitions: transitions,
		settlement:  settlement,
		events:      events,
		now:         time.Now,
	}
}

// SubmitStepApproval approves one step. For step 4 the commission credit is
// applied in the same transaction as the step write, so a completed task
// always has its payout and an unpaid task is never completed.
func (s *taskService) SubmitStepApproval(ctx context.Context, adminID, taskID int32, stepNumber int, payload domain.StepPayload) (*StepApprovalResult, error) {
	logger.EnterMethod("taskService.SubmitStepApproval", "adminID", adminID, "taskID", taskID, "step", stepNumber)

	var tr *Transition
	var settled *domain.Settlement
	err := runWithRetry(ctx, s.tx, "approve_step", func(uow repository.UnitOfWork) error {
		tr, settled = nil, nil
		var err error
		tr, err = s.transitions.ApproveStep(ctx, uow.Tasks(), taskID, stepNumber, adminID, payload, s.now())
		if err != nil {
			return err
		}
		if tr.Credit != nil {
			settled, err = s.settlement.ApplyCredit(ctx, uow, *tr.Credit)
			if err != nil {
				return err
			}
		}
		return nil
	})
	metrics.ObserveStepApproval(stepNumber, err)
	if err != nil {
		logger.ExitMethodWithError("taskService.SubmitStepApproval", err, "taskID", taskID, "step", stepNumber)
		return nil, err
	}

	s.publishApproval(adminID, tr, settled)

	logger.Info("Step approved", "taskID", taskID, "step", stepNumber, "adminID", adminID, "taskStatus", tr.Task.Status)
	logger.ExitMethod("taskService.SubmitStepApproval", "taskID", taskID, "step", stepNumber)
	return &StepApprovalResult{Step: tr.Step, TaskStatus: tr.Task.Status, Settlement: settled}, nil
}

func (s *taskService) publishApproval(adminID int32, tr *Transition, settled *domain.Settlement) {
	task := tr.Task
	s.publish(domain.Event{
		Kind:     domain.NotificationStepApproved,
		UserID:   task.AssignedUserID,
		TaskID:   &task.ID,
		ActorID:  adminID,
		Message:  fmt.Sprintf("Step %d of task #%d was approved", tr.Step.StepNumber, task.ID),
		Activity: fmt.Sprintf("Admin #%d approved step %d of task #%d", adminID, tr.Step.StepNumber, task.ID),
	})
	if task.Status != domain.TaskStatusCompleted {
		return
	}
	s.publish(domain.Event{
		Kind:     domain.NotificationTaskCompleted,
		UserID:   task.AssignedUserID,
		TaskID:   &task.ID,
		ActorID:  adminID,
		Message:  fmt.Sprintf("Task #%d is complete", task.ID),
		Activity: fmt.Sprintf("Task #%d completed", task.ID),
	})
	if settled != nil && settled.Applied {
		s.publish(domain.Event{
			Kind:     domain.NotificationRefundCredited,
			UserID:   task.AssignedUserID,
			TaskID:   &task.ID,
			ActorID:  adminID,
			Message:  fmt.Sprintf("%s credited to your wallet for task #%d", task.CommissionAmount.StringFixed(domain.MoneyScale), task.ID),
			Activity: fmt.Sprintf("Refund %s credited to user #%d for task #%d", task.CommissionAmount.StringFixed(domain.MoneyScale), task.AssignedUserID, task.ID),
			Email:    true,
		})
	}
}

// SubmitStep records reviewer evidence for the next step in order.
func (s *taskService) SubmitStep(ctx context.Context, reviewerID, taskID int32, stepNumber int, payload domain.StepPayload) (*domain.TaskStep, error) {
	logger.EnterMethod("taskService.SubmitStep", "reviewerID", reviewerID, "taskID", taskID, "step", stepNumber)

	var tr *Transition
	err := runWithRetry(ctx, s.tx, "submit_step", func(uow repository.UnitOfWork) error {
		var err error
		tr, err = s.transitions.RecordSubmission(ctx, uow.Tasks(), reviewerID, taskID, stepNumber, payload, s.now())
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("taskService.SubmitStep", err, "taskID", taskID, "step", stepNumber)
		return nil, err
	}

	s.publish(domain.Event{
		Kind:     domain.NotificationStepSubmitted,
		UserID:   tr.Task.CreatedBy,
		TaskID:   &tr.Task.ID,
		ActorID:  reviewerID,
		Message:  fmt.Sprintf("Step %d of task #%d is waiting for approval", stepNumber, taskID),
		Activity: fmt.Sprintf("User #%d submitted step %d of task #%d", reviewerID, stepNumber, taskID),
	})

	logger.ExitMethod("taskService.SubmitStep", "taskID", taskID, "step", stepNumber)
	return tr.Step, nil
}

func (s *taskService) RejectTask(ctx context.Context, adminID, taskID int32, reason string) (*domain.Task, error) {
	logger.EnterMethod("taskService.RejectTask", "adminID", adminID, "taskID", taskID)

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}

	var task *domain.Task
	err := runWithRetry(ctx, s.tx, "reject_task", func(uow repository.UnitOfWork) error {
		var err error
		task, err = uow.Tasks().GetForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.IsClosed() {
			return fmt.Errorf("task %d is %s: %w", taskID, task.Status, domain.ErrAlreadyProcessed)
		}
		if err := uow.Tasks().Reject(ctx, taskID, reason); err != nil {
			return err
		}
		task.Status = domain.TaskStatusRejected
		task.RejectionReason = reason
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("taskService.RejectTask", err, "taskID", taskID)
		return nil, err
	}

	s.publish(domain.Event{
		Kind:     domain.NotificationTaskRejected,
		UserID:   task.AssignedUserID,
		TaskID:   &task.ID,
		ActorID:  adminID,
		Message:  fmt.Sprintf("Task #%d was rejected: %s", task.ID, reason),
		Activity: fmt.Sprintf("Admin #%d rejected task #%d", adminID, task.ID),
	})

	logger.ExitMethod("taskService.RejectTask", "taskID", taskID)
	return task, nil
}

func (s *taskService) publish(evt domain.Event) {
	if s.events == nil {
		return
	}
	evt.CreatedAt = s.now()
	s.events.Publish(evt)
}
