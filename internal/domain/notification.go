package domain

import "time"

type NotificationKind string

const (
	NotificationTaskAssigned     NotificationKind = "task_assigned"
	NotificationStepApproved     NotificationKind = "step_approved"
	NotificationStepSubmitted    NotificationKind = "step_submitted"
	NotificationTaskCompleted    NotificationKind = "task_completed"
	NotificationTaskRejected     NotificationKind = "task_rejected"
	NotificationRefundCredited   NotificationKind = "refund_credited"
	NotificationRechargeApproved NotificationKind = "recharge_approved"
	NotificationRechargeRejected NotificationKind = "recharge_rejected"
)

type Notification struct {
	ID        int32            `json:"id"`
	UserID    int32            `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

type ActivityLog struct {
	ID        int32     `json:"id"`
	Message   string    `json:"message"`
	TaskID    *int32    `json:"task_id,omitempty"`
	UserID    *int32    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is a committed state change fanned out to the notification and
// activity sinks after the transaction that produced it.
type Event struct {
	ID        string
	Kind      NotificationKind
	UserID    int32
	TaskID    *int32
	ActorID   int32
	Message   string
	Activity  string
	Email     bool
	CreatedAt time.Time
}
