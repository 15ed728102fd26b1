package domain

import (
	"errors"
	"time"
)

// DiagnosticKind classifies a collected problem.
type DiagnosticKind string

const (
	// Booking failures, fatal for their own transaction only.
	DiagAmbiguousElision DiagnosticKind = "ambiguous_elision"
	DiagNoSolution       DiagnosticKind = "no_solution"
	DiagUnbalanced       DiagnosticKind = "unbalanced_transaction"
	DiagNoSuchLot        DiagnosticKind = "no_such_lot"
	DiagInsufficientLots DiagnosticKind = "insufficient_lots"
	DiagAccountClosed    DiagnosticKind = "account_closed"
	DiagUnknownAccount   DiagnosticKind = "unknown_account"
	DiagUnknownCommodity DiagnosticKind = "unknown_commodity"
	DiagOutOfOrder       DiagnosticKind = "out_of_order"
	DiagBookingOther     DiagnosticKind = "booking_error"

	// Non-fatal findings collected during the fold.
	DiagAssertionFailed  DiagnosticKind = "balance_assertion_failed"
	DiagDisagreeingPrice DiagnosticKind = "disagreeing_price"
	DiagUnusedPad        DiagnosticKind = "unused_pad"
)

// DiagnosticSeverity separates transaction-aborting failures from findings
// that leave processing untouched.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
)

// Diagnostic is one collected problem: what went wrong, where it came from,
// and when it was recorded. The ledger keeps processing after recording one;
// callers read the full list when the fold finishes.
type Diagnostic struct {
	Kind       DiagnosticKind
	Severity   DiagnosticSeverity
	Message    string
	Date       time.Time // directive date, zero when not tied to one
	Source     SourceLoc
	RecordedAt time.Time
}

// KindOfBookingError maps a booking failure to its diagnostic kind.
func KindOfBookingError(err error) DiagnosticKind {
	switch {
	case errors.Is(err, ErrAmbiguousElision):
		return DiagAmbiguousElision
	case errors.Is(err, ErrNoSolution):
		return DiagNoSolution
	case errors.Is(err, ErrUnbalancedTransaction):
		return DiagUnbalanced
	case errors.Is(err, ErrNoSuchLot), errors.Is(err, ErrAmbiguousLotMatch):
		return DiagNoSuchLot
	case errors.Is(err, ErrInsufficientLots):
		return DiagInsufficientLots
	case errors.Is(err, ErrAccountClosed), errors.Is(err, ErrAccountNotOpen):
		return DiagAccountClosed
	case errors.Is(err, ErrUnknownAccount):
		return DiagUnknownAccount
	case errors.Is(err, ErrUnknownCommodity), errors.Is(err, ErrCommodityNotAllowed):
		return DiagUnknownCommodity
	case errors.Is(err, ErrOutOfOrder):
		return DiagOutOfOrder
	default:
		return DiagBookingOther
	}
}
