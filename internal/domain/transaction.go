package domain

import (
	"time"
)

// SourceLoc points at where a directive came from, for error reporting.
// The zero value means the origin is unknown.
type SourceLoc struct {
	File string
	Line int
}

// Transaction is a dated set of postings plus narration metadata. It arrives
// already structured; the balancer resolves elided amounts and lot matches.
type Transaction struct {
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	Postings  []Posting
	Tags      []string
	Links     []string
	Metadata  map[string]any
	Source    SourceLoc
}

// AccountReduction is one realized lot consumption attributed to an account,
// reported by booking for gain/loss computation downstream.
type AccountReduction struct {
	Account   AccountName
	Reduction Reduction
}

// BookedTransaction is the outcome of balancing and lot matching: postings
// fully resolved (elisions filled, reductions split per consumed lot, costs
// pinned), the realized reductions, and the staged inventory state that
// Apply installs.
type BookedTransaction struct {
	Transaction
	ID             string
	Reductions     []AccountReduction
	ImplicitPrices []PricePoint

	updated  map[AccountName]*Inventory
	vivified map[AccountName]*Account
	applied  bool
}

// Flag values used by synthetic transactions the ledger generates itself.
const (
	FlagOk      = "*"
	FlagPadding = "P"
	FlagSummary = "S"
)
