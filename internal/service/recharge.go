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

	"github.com/shopspring/decimal"
)

type rechargeService struct {
	tx           repository.Transactor
	rechargeRepo repository.RechargeRepository
	settlement   *SettlementEngine
	events       EventPublisher
	maxAmount    decimal.Decimal
	now          func() time.Time
}

// NewRechargeService builds the recharge coordinator. A zero maxAmount
// leaves recharge amounts unbounded.
func NewRechargeService(
	tx repository.Transactor,
	rechargeRepo repository.RechargeRepository,
	settlement *SettlementEngine,
	events EventPublisher,
	maxAmount decimal.Decimal,
) RechargeService {
	return &rechargeService{
		tx:           tx,
		rechargeRepo: rechargeRepo,
		settlement:   settlement,
		events:       events,
		maxAmount:    maxAmount,
		now:          time.Now,
	}
}

func (s *rechargeService) CreateRechargeRequest(ctx context.Context, sellerID int32, in NewRechargeRequest) (*domain.WalletRechargeRequest, error) {
	logger.EnterMethod("rechargeService.CreateRechargeRequest", "sellerID", sellerID, "amount", in.Amount.String())

	if sellerID <= 0 {
		return nil, fmt.Errorf("seller is required: %w", domain.ErrInvalidInput)
	}
	if err := domain.ValidateAmount(in.Amount, s.maxAmount); err != nil {
		return nil, fmt.Errorf("recharge amount %s: %w", in.Amount, err)
	}
	utr := strings.TrimSpace(in.UTRNumber)
	if utr == "" {
		return nil, fmt.Errorf("UTR number is required: %w", domain.ErrInvalidInput)
	}
	if in.TransferDate.IsZero() || in.TransferDate.After(s.now()) {
		return nil, fmt.Errorf("transfer date: %w", domain.ErrInvalidInput)
	}

	req := &domain.WalletRechargeRequest{
		SellerID:      sellerID,
		Amount:        in.Amount,
		UTRNumber:     utr,
		TransferDate:  in.TransferDate,
		ScreenshotRef: in.ScreenshotRef,
	}
	if err := s.rechargeRepo.Create(ctx, req); err != nil {
		logger.ExitMethodWithError("rechargeService.CreateRechargeRequest", err, "sellerID", sellerID)
		return nil, err
	}

	s.publish(domain.Event{
		UserID:   sellerID,
		ActorID:  sellerID,
		Activity: fmt.Sprintf("Seller #%d requested a recharge of %s (UTR %s)", sellerID, req.Amount.StringFixed(domain.MoneyScale), utr),
	})

	logger.ExitMethod("rechargeService.CreateRechargeRequest", "requestID", req.ID)
	return req, nil
}

// DecideRecharge moves a pending request to approved or rejected exactly
// once. Approval credits the seller in the same transaction as the status
// change.
func (s *rechargeService) DecideRecharge(ctx context.Context, requestID int32, decision domain.RechargeDecision, adminID int32, remarks string) (*domain.WalletRechargeRequest, error) {
	logger.EnterMethod("rechargeService.DecideRecharge", "requestID", requestID, "decision", decision, "adminID", adminID)

	remarks = strings.TrimSpace(remarks)
	if !decision.IsValid() {
		return nil, fmt.Errorf("decision %q: %w", decision, domain.ErrInvalidDecision)
	}
	if decision == domain.RechargeDecisionReject && remarks == "" {
		metrics.ObserveRechargeDecision(decision, domain.ErrMissingReason)
		return nil, domain.ErrMissingReason
	}

	var req *domain.WalletRechargeRequest
	var settled *domain.Settlement
	err := runWithRetry(ctx, s.tx, "decide_recharge", func(uow repository.UnitOfWork) error {
		req, settled = nil, nil
		var err error
		req, err = uow.Recharges().GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != domain.RechargeStatusPending {
			return fmt.Errorf("recharge request %d is %s: %w", requestID, req.Status, domain.ErrAlreadyProcessed)
		}

		now := s.now()
		req.Status = domain.RechargeStatusRejected
		if decision == domain.RechargeDecisionApprove {
			req.Status = domain.RechargeStatusApproved
		}
		req.AdminRemarks = remarks
		req.ApprovedBy = &adminID
		req.ApprovedAt = &now

		applied, err := uow.Recharges().Decide(ctx, req)
		if err != nil {
			return err
		}
		if !applied {
			return fmt.Errorf("recharge request %d: %w", requestID, domain.ErrAlreadyProcessed)
		}

		if decision == domain.RechargeDecisionApprove {
			settled, err = s.settlement.ApplyCredit(ctx, uow, domain.Credit{
				BeneficiaryID:   req.SellerID,
				Amount:          req.Amount,
				Kind:            domain.PaymentKindRecharge,
				SourceReference: req.SettlementReference(),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	metrics.ObserveRechargeDecision(decision, err)
	if err != nil {
		logger.ExitMethodWithError("rechargeService.DecideRecharge", err, "requestID", requestID)
		return nil, err
	}

	s.publishDecision(adminID, req, settled)

	logger.Info("Recharge decided", "requestID", requestID, "status", req.Status, "adminID", adminID)
	logger.ExitMethod("rechargeService.DecideRecharge", "requestID", requestID, "status", req.Status)
	return req, nil
}

func (s *rechargeService) publishDecision(adminID int32, req *domain.WalletRechargeRequest, settled *domain.Settlement) {
	amount := req.Amount.StringFixed(domain.MoneyScale)
	if req.Status == domain.RechargeStatusRejected {
		s.publish(domain.Event{
			Kind:     domain.NotificationRechargeRejected,
			UserID:   req.SellerID,
			ActorID:  adminID,
			Message:  fmt.Sprintf("Your recharge of %s was rejected: %s", amount, req.AdminRemarks),
			Activity: fmt.Sprintf("Admin #%d rejected recharge #%d", adminID, req.ID),
		})
		return
	}
	msg := fmt.Sprintf("Your recharge of %s was approved", amount)
	if settled != nil {
		msg = fmt.Sprintf("%s. New balance: %s", msg, settled.Balance.StringFixed(domain.MoneyScale))
	}
	s.publish(domain.Event{
		Kind:     domain.NotificationRechargeApproved,
		UserID:   req.SellerID,
		ActorID:  adminID,
		Message:  msg,
		Activity: fmt.Sprintf("Admin #%d approved recharge #%d of %s for seller #%d", adminID, req.ID, amount, req.SellerID),
		Email:    true,
	})
}

func (s *rechargeService) ListRechargeRequests(ctx context.Context, sellerID int32, page, pageSize int32) ([]domain.WalletRechargeRequest, int32, error) {
	return s.rechargeRepo.ListBySeller(ctx, sellerID, page, pageSize)
}

func (s *rechargeService) publish(evt domain.Event) {
	if s.events == nil {
		return
	}
	evt.CreatedAt = s.now()
	s.events.Publish(evt)
}
