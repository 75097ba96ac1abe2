package metrics

import (
	"errors"
	"strconv"

	"reviewhub-backend/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewhub_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reviewhub_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	stepApprovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewhub_step_approvals_total",
		Help: "Step approval attempts by step number and outcome",
	}, []string{"step", "outcome"})

	rechargeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewhub_recharge_decisions_total",
		Help: "Recharge decisions by decision and outcome",
	}, []string{"decision", "outcome"})

	settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewhub_settlements_total",
		Help: "Credits handed to the settlement engine by kind and result",
	}, []string{"kind", "result"})

	unitOfWorkRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewhub_unit_of_work_retries_total",
		Help: "Units of work retried after a non-client failure",
	}, []string{"operation"})

	dispatchDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewhub_dispatch_dropped_total",
		Help: "Post-commit events dropped by reason",
	}, []string{"reason"})

	ledgerDiscrepancies = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reviewhub_ledger_discrepancies",
		Help: "Discrepancies found by the last ledger reconciliation run",
	}, []string{"check"})
)

// Outcome buckets an error into ok, client_error or failed.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsClientError(err):
		return "client_error"
	default:
		return "failed"
	}
}

func ObserveStepApproval(step int, err error) {
	stepApprovals.WithLabelValues(strconv.Itoa(step), Outcome(err)).Inc()
}

func ObserveRechargeDecision(decision domain.RechargeDecision, err error) {
	rechargeDecisions.WithLabelValues(string(decision), Outcome(err)).Inc()
}

func ObserveSettlement(kind domain.PaymentKind, applied bool, err error) {
	result := "applied"
	switch {
	case err != nil:
		result = "failed"
	case !applied:
		result = "noop"
	}
	settlements.WithLabelValues(string(kind), result).Inc()
}

func IncRetry(operation string) {
	unitOfWorkRetries.WithLabelValues(operation).Inc()
}

func IncDispatchDropped(reason string) {
	dispatchDropped.WithLabelValues(reason).Inc()
}

func SetLedgerDiscrepancies(check string, n int) {
	ledgerDiscrepancies.WithLabelValues(check).Set(float64(n))
}

// IsSettlementFailure reports whether err should be shown to clients as a
// retryable failure.
func IsSettlementFailure(err error) bool {
	return errors.Is(err, domain.ErrSettlementFailed)
}
