package jobs

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"reviewhub-backend/internal/domain"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/metrics"
)

// Reconciliation checks, also used as metric labels.
const (
	CheckMissingRefund         = "missing_refund"
	CheckOrphanRefund          = "orphan_refund"
	CheckDuplicateCredit       = "duplicate_credit"
	CheckMissingRechargeCredit = "missing_recharge_credit"
	CheckOrphanRechargeCredit  = "orphan_recharge_credit"
	CheckBalanceMismatch       = "balance_mismatch"
)

// Discrepancy is one finding of a reconciliation run
type Discrepancy struct {
	Check     string
	Reference string
	UserID    int32
	Detail    string
}

// ReconcileReport summarizes a reconciliation run
type ReconcileReport struct {
	Discrepancies []Discrepancy
	Counts        map[string]int
}

func (r *ReconcileReport) add(d Discrepancy) {
	r.Discrepancies = append(r.Discrepancies, d)
	r.Counts[d.Check]++
}

// OK reports whether the run found nothing
func (r *ReconcileReport) OK() bool {
	return len(r.Discrepancies) == 0
}

// ReconcileLedger cross-checks closed workflows against the transaction log
// and the transaction log against wallet balances. It only reports; it
// never repairs.
func (jr *JobRunner) ReconcileLedger(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Counts: make(map[string]int)}

	completed, err := jr.repos.Tasks.ListCompletedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed tasks: %w", err)
	}
	refunds, err := jr.repos.Payments.CountByReferencePrefix(ctx, "task:")
	if err != nil {
		return nil, fmt.Errorf("failed to count refund credits: %w", err)
	}
	expected := make([]string, len(completed))
	for i, id := range completed {
		expected[i] = domain.TaskRefundReference(id)
	}
	compareReferences(report, expected, refunds, CheckMissingRefund, CheckOrphanRefund)

	approved, err := jr.repos.Recharges.ListApprovedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved recharges: %w", err)
	}
	recharges, err := jr.repos.Payments.CountByReferencePrefix(ctx, "recharge:")
	if err != nil {
		return nil, fmt.Errorf("failed to count recharge credits: %w", err)
	}
	expected = make([]string, len(approved))
	for i, id := range approved {
		expected[i] = domain.RechargeReference(id)
	}
	compareReferences(report, expected, recharges, CheckMissingRechargeCredit, CheckOrphanRechargeCredit)

	if err := jr.reconcileBalances(ctx, report); err != nil {
		return nil, err
	}

	for _, check := range []string{
		CheckMissingRefund, CheckOrphanRefund, CheckDuplicateCredit,
		CheckMissingRechargeCredit, CheckOrphanRechargeCredit, CheckBalanceMismatch,
	} {
		metrics.SetLedgerDiscrepancies(check, report.Counts[check])
	}

	for _, d := range report.Discrepancies {
		logger.Warn("Ledger discrepancy", "check", d.Check, "reference", d.Reference, "user_id", d.UserID, "detail", d.Detail)
	}
	logger.Info("Ledger reconciliation finished",
		"completed_tasks", len(completed),
		"approved_recharges", len(approved),
		"discrepancies", len(report.Discrepancies))
	return report, nil
}

// compareReferences checks that every expected reference has exactly one
// transaction and that no transaction exists without an expected reference.
func compareReferences(report *ReconcileReport, expected []string, counts map[string]int32, missing, orphan string) {
	want := make(map[string]bool, len(expected))
	for _, ref := range expected {
		want[ref] = true
		switch n := counts[ref]; {
		case n == 0:
			report.add(Discrepancy{Check: missing, Reference: ref})
		case n > 1:
			report.add(Discrepancy{Check: CheckDuplicateCredit, Reference: ref, Detail: fmt.Sprintf("%d transactions", n)})
		}
	}

	refs := make([]string, 0, len(counts))
	for ref := range counts {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		if !want[ref] {
			report.add(Discrepancy{Check: orphan, Reference: ref})
		}
	}
}

// reconcileBalances checks balance == credited - spent and credited == sum
// of the holder's transactions.
func (jr *JobRunner) reconcileBalances(ctx context.Context, report *ReconcileReport) error {
	ledgers, err := jr.repos.Wallets.ListLedgers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list wallet ledgers: %w", err)
	}
	sums, err := jr.repos.Payments.SumByUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to sum transactions: %w", err)
	}

	seen := make(map[int32]bool, len(ledgers))
	for _, l := range ledgers {
		seen[l.UserID] = true
		credited := sums[l.UserID]
		want := credited.Sub(l.TotalSpent)
		if !l.TotalCredited.Equal(credited) || !l.Balance.Equal(want) {
			report.add(Discrepancy{
				Check:  CheckBalanceMismatch,
				UserID: l.UserID,
				Detail: fmt.Sprintf("balance=%s credited=%s spent=%s transactions=%s",
					l.Balance.StringFixed(2), l.TotalCredited.StringFixed(2), l.TotalSpent.StringFixed(2), credited.StringFixed(2)),
			})
		}
	}

	users := make([]int32, 0, len(sums))
	for userID := range sums {
		users = append(users, userID)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	for _, userID := range users {
		if !seen[userID] && !sums[userID].Equal(decimal.Zero) {
			report.add(Discrepancy{
				Check:  CheckBalanceMismatch,
				UserID: userID,
				Detail: "transactions without a wallet ledger: " + sums[userID].StringFixed(2),
			})
		}
	}
	return nil
}
