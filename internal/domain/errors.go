package domain

import "errors"

// Client errors. These are returned to callers unmodified and never retried.
var (
	ErrInvalidStep          = errors.New("invalid step number")
	ErrOutOfOrderTransition = errors.New("step transition out of order")
	ErrMissingEvidence      = errors.New("payment screenshot reference is required")
	ErrMissingReason        = errors.New("remarks are required to reject")
	ErrAlreadyProcessed     = errors.New("request already processed")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDecision      = errors.New("decision must be approve or reject")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
)

// ErrSettlementFailed is returned when a unit of work could not be committed
// after its retry. State is unchanged when it is returned.
var ErrSettlementFailed = errors.New("settlement failed")

var clientErrors = []error{
	ErrInvalidStep,
	ErrOutOfOrderTransition,
	ErrMissingEvidence,
	ErrMissingReason,
	ErrAlreadyProcessed,
	ErrInvalidAmount,
	ErrInvalidDecision,
	ErrInvalidInput,
	ErrNotFound,
	ErrForbidden,
}

// IsClientError reports whether err is caused by caller input or workflow order.
func IsClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
