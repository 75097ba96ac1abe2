package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// WalletLedger is the balance row of one wallet holder. Sellers hold it for
// recharges, reviewers for commission payouts.
type WalletLedger struct {
	UserID        int32           `json:"user_id"`
	Balance       decimal.Decimal `json:"balance"`
	TotalCredited decimal.Decimal `json:"total_credited"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type RechargeStatus string

const (
	RechargeStatusPending  RechargeStatus = "pending"
	RechargeStatusApproved RechargeStatus = "approved"
	RechargeStatusRejected RechargeStatus = "rejected"
)

type RechargeDecision string

const (
	RechargeDecisionApprove RechargeDecision = "approve"
	RechargeDecisionReject  RechargeDecision = "reject"
)

func (d RechargeDecision) IsValid() bool {
	return d == RechargeDecisionApprove || d == RechargeDecisionReject
}

type WalletRechargeRequest struct {
	ID            int32           `json:"id"`
	SellerID      int32           `json:"seller_id"`
	Amount        decimal.Decimal `json:"amount"`
	UTRNumber     string          `json:"utr_number"`
	TransferDate  time.Time       `json:"transfer_date"`
	ScreenshotRef string          `json:"screenshot_ref"`
	Status        RechargeStatus  `json:"status"`
	AdminRemarks  string          `json:"admin_remarks"`
	ApprovedBy    *int32          `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time      `json:"approved_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SettlementReference is the source reference of the credit an approval produces.
func (r *WalletRechargeRequest) SettlementReference() string {
	return RechargeReference(r.ID)
}

type PaymentKind string

const (
	PaymentKindRecharge PaymentKind = "recharge"
	PaymentKindRefund   PaymentKind = "task_refund"
)

type PaymentStatus string

const PaymentStatusSuccess PaymentStatus = "success"

// PaymentTransaction is an append-only record of one credit event.
type PaymentTransaction struct {
	ID              int32           `json:"id"`
	UserID          int32           `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Kind            PaymentKind     `json:"kind"`
	Status          PaymentStatus   `json:"status"`
	SourceReference string          `json:"source_reference"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Credit is one settlement request handed to the settlement engine.
type Credit struct {
	BeneficiaryID   int32
	Amount          decimal.Decimal
	Kind            PaymentKind
	SourceReference string
}

// Settlement reports what applying a credit did. Applied is false when the
// source reference had already been settled.
type Settlement struct {
	Transaction *PaymentTransaction `json:"transaction,omitempty"`
	Balance     decimal.Decimal     `json:"balance"`
	Applied     bool                `json:"applied"`
}

func TaskRefundReference(taskID int32) string {
	return fmt.Sprintf("task:%d:refund", taskID)
}

func RechargeReference(requestID int32) string {
	return fmt.Sprintf("recharge:%d", requestID)
}
