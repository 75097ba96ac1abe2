package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusRejected   TaskStatus = "rejected"
)

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
)

// Steps of the review lifecycle. Every task owns exactly one step of each number.
const (
	StepOrderPlaced     = 1
	StepDelivered       = 2
	StepReviewSubmitted = 3
	StepRefundRequested = 4

	StepCount = 4
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type Task struct {
	ID               int32           `json:"id"`
	AssignedUserID   int32           `json:"assigned_user_id"`
	ProductLink      string          `json:"product_link"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	Priority         TaskPriority    `json:"priority"`
	Deadline         *time.Time      `json:"deadline,omitempty"`
	Status           TaskStatus      `json:"status"`
	RefundRequested  bool            `json:"refund_requested"`
	RejectionReason  string          `json:"rejection_reason,omitempty"`
	CreatedBy        int32           `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// IsClosed reports whether the task accepts no further step transitions.
func (t *Task) IsClosed() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusRejected
}

// RefundReference is the settlement source reference of the task's commission payout.
func (t *Task) RefundReference() string {
	return TaskRefundReference(t.ID)
}

// StepPayload carries the step-specific data. Step 1 uses the order fields,
// steps 2-4 the screenshot references.
type StepPayload struct {
	OrderNumber           string          `json:"order_number,omitempty"`
	OrderAmount           decimal.Decimal `json:"order_amount"`
	OrderScreenshotRef    string          `json:"order_screenshot_ref,omitempty"`
	DeliveryScreenshotRef string          `json:"delivery_screenshot_ref,omitempty"`
	ReviewScreenshotRef   string          `json:"review_screenshot_ref,omitempty"`
	ReviewLink            string          `json:"review_link,omitempty"`
	PaymentScreenshotRef  string          `json:"payment_screenshot_ref,omitempty"`
	RefundAmount          decimal.Decimal `json:"refund_amount"`
}

// Merge overlays the non-empty fields of p onto the receiver.
func (sp StepPayload) Merge(p StepPayload) StepPayload {
	if p.OrderNumber != "" {
		sp.OrderNumber = p.OrderNumber
	}
	if !p.OrderAmount.IsZero() {
		sp.OrderAmount = p.OrderAmount
	}
	if p.OrderScreenshotRef != "" {
		sp.OrderScreenshotRef = p.OrderScreenshotRef
	}
	if p.DeliveryScreenshotRef != "" {
		sp.DeliveryScreenshotRef = p.DeliveryScreenshotRef
	}
	if p.ReviewScreenshotRef != "" {
		sp.ReviewScreenshotRef = p.ReviewScreenshotRef
	}
	if p.ReviewLink != "" {
		sp.ReviewLink = p.ReviewLink
	}
	if p.PaymentScreenshotRef != "" {
		sp.PaymentScreenshotRef = p.PaymentScreenshotRef
	}
	if !p.RefundAmount.IsZero() {
		sp.RefundAmount = p.RefundAmount
	}
	return sp
}

// ScreenshotRefs returns the non-empty screenshot references.
func (sp StepPayload) ScreenshotRefs() []string {
	var refs []string
	for _, ref := range []string{sp.OrderScreenshotRef, sp.DeliveryScreenshotRef, sp.ReviewScreenshotRef, sp.PaymentScreenshotRef} {
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

type TaskStep struct {
	ID               int32       `json:"id"`
	TaskID           int32       `json:"task_id"`
	StepNumber       int         `json:"step_number"`
	Status           StepStatus  `json:"status"`
	SubmittedByAdmin bool        `json:"submitted_by_admin"`
	Payload          StepPayload `json:"payload"`
	ApprovedBy       *int32      `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time  `json:"approved_at,omitempty"`
	SubmittedAt      *time.Time  `json:"submitted_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

func (s *TaskStep) IsCompleted() bool {
	return s.Status == StepStatusCompleted
}

// ValidStepNumber reports whether n names one of the four lifecycle steps.
func ValidStepNumber(n int) bool {
	return n >= StepOrderPlaced && n <= StepRefundRequested
}

// StepFields is the set of columns a step update writes.
type StepFields struct {
	Status           StepStatus
	SubmittedByAdmin bool
	Payload          StepPayload
	ApprovedBy       *int32
	ApprovedAt       *time.Time
	SubmittedAt      *time.Time
}

// TaskFilter narrows task listings. Zero values match everything.
type TaskFilter struct {
	AssignedUserID int32
	Status         TaskStatus
	Page           int32
	PageSize       int32
}

// TaskDetail is a task together with its steps ordered by step number.
type TaskDetail struct {
	Task  Task       `json:"task"`
	Steps []TaskStep `json:"steps"`
}
