package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidCommodity   = errors.New("invalid commodity symbol")
	ErrMetadataTooLarge   = errors.New("metadata size exceeds limit")
	ErrTooManyPostings    = errors.New("transaction has too many postings")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MaxCommodityLength   = 24
	MaxMetadataSize      = 10240 // 10KB
	MaxPostingsPerTxn    = 1000
)

// Account name segments start with an uppercase letter or digit, then
// letters, digits and dashes. Commodities are uppercase symbols that may
// carry digits, underscores, dots, dashes and apostrophes after the first
// letter, ending on a letter or digit.
var (
	accountSegmentRegex = regexp.MustCompile(`^[\p{Lu}0-9][\p{L}0-9-]*$`)
	commodityRegex      = regexp.MustCompile(`^[A-Z][A-Z0-9'._-]*[A-Z0-9]$|^[A-Z]$`)
)

// ValidateAccountName validates a hierarchical account name such as
// "Assets:US:Brokerage".
func ValidateAccountName(name AccountName) error {
	s := string(name)

	if s == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(s) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	for _, segment := range strings.Split(s, ":") {
		if !accountSegmentRegex.MatchString(segment) {
			return fmt.Errorf("%w: bad segment %q in %q", ErrInvalidAccountName, segment, s)
		}
	}

	return nil
}

// ValidateCommodity validates a commodity symbol such as "USD" or "FOO_X100".
func ValidateCommodity(commodity string) error {
	if commodity == "" {
		return fmt.Errorf("%w: symbol cannot be empty", ErrInvalidCommodity)
	}

	if len(commodity) > MaxCommodityLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidCommodity, commodity, MaxCommodityLength)
	}

	if !commodityRegex.MatchString(commodity) {
		return fmt.Errorf("%w: %q", ErrInvalidCommodity, commodity)
	}

	return nil
}

// ValidateMetadata validates metadata size.
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidateTransactionShape applies structural limits before booking.
func ValidateTransactionShape(txn *Transaction) error {
	if len(txn.Postings) == 0 {
		return ErrNoPostings
	}

	if len(txn.Postings) > MaxPostingsPerTxn {
		return fmt.Errorf("%w: %d postings, limit %d", ErrTooManyPostings, len(txn.Postings), MaxPostingsPerTxn)
	}

	if err := ValidateMetadata(txn.Metadata); err != nil {
		return err
	}

	for i := range txn.Postings {
		if err := ValidateMetadata(txn.Postings[i].Metadata); err != nil {
			return err
		}
	}

	return nil
}
