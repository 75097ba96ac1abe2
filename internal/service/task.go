package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository"

	"github.com/shopspring/decimal"
)

func (s *taskService) AssignTask(ctx context.Context, adminID int32, in NewTask) (*domain.TaskDetail, error) {
	logger.EnterMethod("taskService.AssignTask", "adminID", adminID, "assignedUserID", in.AssignedUserID)

	if err := validateNewTask(&in); err != nil {
		return nil, err
	}

	task := &domain.Task{
		AssignedUserID:   in.AssignedUserID,
		ProductLink:      in.ProductLink,
		CommissionAmount: in.CommissionAmount,
		Priority:         in.Priority,
		Deadline:         in.Deadline,
		CreatedBy:        adminID,
	}
	var steps []domain.TaskStep
	err := s.tx.WithinTx(ctx, func(uow repository.UnitOfWork) error {
		var err error
		steps, err = uow.Tasks().CreateWithSteps(ctx, task)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("taskService.AssignTask", err, "assignedUserID", in.AssignedUserID)
		return nil, err
	}

	s.publish(domain.Event{
		Kind:     domain.NotificationTaskAssigned,
		UserID:   task.AssignedUserID,
		TaskID:   &task.ID,
		ActorID:  adminID,
		Message:  fmt.Sprintf("You have a new review task #%d", task.ID),
		Activity: fmt.Sprintf("Admin #%d assigned task #%d to user #%d", adminID, task.ID, task.AssignedUserID),
	})

	logger.Info("Task assigned", "taskID", task.ID, "assignedUserID", task.AssignedUserID, "adminID", adminID)
	logger.ExitMethod("taskService.AssignTask", "taskID", task.ID)
	return &domain.TaskDetail{Task: *task, Steps: steps}, nil
}

func validateNewTask(in *NewTask) error {
	if in.AssignedUserID <= 0 {
		return fmt.Errorf("assigned user is required: %w", domain.ErrInvalidInput)
	}
	in.ProductLink = strings.TrimSpace(in.ProductLink)
	if in.ProductLink == "" {
		return fmt.Errorf("product link is required: %w", domain.ErrInvalidInput)
	}
	if u, err := url.Parse(in.ProductLink); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("product link %q is not a URL: %w", in.ProductLink, domain.ErrInvalidInput)
	}
	if err := domain.ValidateAmount(in.CommissionAmount, decimal.Zero); err != nil {
		return fmt.Errorf("commission %s: %w", in.CommissionAmount, err)
	}
	switch in.Priority {
	case "":
		in.Priority = domain.TaskPriorityMedium
	case domain.TaskPriorityLow, domain.TaskPriorityMedium, domain.TaskPriorityHigh:
	default:
		return fmt.Errorf("priority %q: %w", in.Priority, domain.ErrInvalidInput)
	}
	return nil
}

func (s *taskService) GetTask(ctx context.Context, taskID int32) (*domain.TaskDetail, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	steps, err := s.taskRepo.GetSteps(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &domain.TaskDetail{Task: *task, Steps: steps}, nil
}

func (s *taskService) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, int32, error) {
	return s.taskRepo.List(ctx, filter)
}
