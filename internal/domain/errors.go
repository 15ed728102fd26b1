package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Balancing errors
	ErrAmbiguousElision      = errors.New("more than one posting elides its amount")
	ErrNoSolution            = errors.New("no explicit amount to infer the elided posting from")
	ErrUnbalancedTransaction = errors.New("transaction does not balance")
	ErrElidedAmount          = errors.New("posting amount is elided")
	ErrUnresolvedCost        = errors.New("posting cost is not resolved yet")
	ErrIncompleteCost        = errors.New("augmenting posting needs a complete cost")
	ErrNoPostings            = errors.New("transaction has no postings")

	// Lot matching errors
	ErrNoSuchLot           = errors.New("no matching lot")
	ErrInsufficientLots    = errors.New("insufficient lots")
	ErrAmbiguousLotMatch   = errors.New("lot match is ambiguous")
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	ErrInvalidLot          = errors.New("invalid lot")

	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountClosed        = errors.New("account is closed")
	ErrAccountNotOpen       = errors.New("account is not open yet")
	ErrAccountAlreadyOpen   = errors.New("account is already open")
	ErrAccountAlreadyClosed = errors.New("account is already closed")
	ErrUnknownAccount       = errors.New("unknown account")
	ErrCommodityNotAllowed  = errors.New("commodity not allowed for account")

	// Ledger errors
	ErrUnknownCommodity    = errors.New("unknown commodity")
	ErrOutOfOrder          = errors.New("dated before the last balance checkpoint")
	ErrAssertionFailed     = errors.New("balance assertion failed")
	ErrDisagreeingPrice    = errors.New("disagreeing price")
	ErrPadNotArmed         = errors.New("pad is not armed")
	ErrTooManyErrors       = errors.New("error limit reached")
	ErrAlreadyApplied      = errors.New("booked transaction already applied")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidNumber       = errors.New("invalid decimal number")
)

// UnbalancedError reports the per-currency residuals of a transaction that
// failed the zero-sum check.
type UnbalancedError struct {
	Residuals map[string]decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	currencies := make([]string, 0, len(e.Residuals))
	for c := range e.Residuals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, c := range currencies {
		parts = append(parts, e.Residuals[c].String()+" "+c)
	}
	return fmt.Sprintf("%s: residual %s", ErrUnbalancedTransaction, strings.Join(parts, ", "))
}

func (e *UnbalancedError) Is(target error) bool {
	return target == ErrUnbalancedTransaction
}

// BookingError wraps a failure with the offending transaction's date and
// source location. The transaction it names was rejected whole; the ledger
// is as if it had never been submitted.
type BookingError struct {
	Date      time.Time
	Narration string
	Source    SourceLoc
	Err       error
}

func (e *BookingError) Error() string {
	where := ""
	if e.Source.File != "" {
		where = fmt.Sprintf(" (%s:%d)", e.Source.File, e.Source.Line)
	}
	return fmt.Sprintf("booking %s %q%s: %v", e.Date.Format("2006-01-02"), e.Narration, where, e.Err)
}

func (e *BookingError) Unwrap() error { return e.Err }

// AssertionError reports a failed balance assertion with the expected and
// actual holdings. It is a collected diagnostic, not a processing failure.
type AssertionError struct {
	Account   AccountName
	Commodity string
	Want      decimal.Decimal
	Got       decimal.Decimal
	Date      time.Time
	Source    SourceLoc
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: %s holds %s %s on %s, asserted %s",
		ErrAssertionFailed, e.Account, e.Got, e.Commodity,
		e.Date.Format("2006-01-02"), e.Want)
}

func (e *AssertionError) Is(target error) bool {
	return target == ErrAssertionFailed
}

// Delta returns actual minus asserted holdings.
func (e *AssertionError) Delta() decimal.Decimal {
	return e.Got.Sub(e.Want)
}
