package jobs

import (
	"context"
	"fmt"

	"reviewhub-backend/internal/logger"
)

// SendPendingApprovalDigest emails the admin recipients how many recharge
// requests and refund approvals are waiting. Nothing is sent when both are zero.
func (jr *JobRunner) SendPendingApprovalDigest(ctx context.Context) error {
	recharges, err := jr.repos.Recharges.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending recharges: %w", err)
	}
	refunds, err := jr.repos.Tasks.CountPendingRefunds(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending refunds: %w", err)
	}

	if recharges == 0 && refunds == 0 {
		logger.Info("No pending approvals, digest skipped")
		return nil
	}

	subject := fmt.Sprintf("Pending approvals: %d recharge(s), %d refund(s)", recharges, refunds)
	body := fmt.Sprintf(`Hello,

The following items are waiting for admin review:

  Wallet recharge requests: %d
  Task refund approvals:    %d

Please review them in the admin console.

ReviewHub`, recharges, refunds)

	if err := jr.email.SendAdminNotification(ctx, subject, body); err != nil {
		return fmt.Errorf("failed to send pending approval digest: %w", err)
	}
	logger.Info("Pending approval digest sent", "recharges", recharges, "refunds", refunds)
	return nil
}
