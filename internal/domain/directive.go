package domain

import "time"

// Directive is anything the ledger folds in date order: account lifecycle,
// transactions, balance assertions, pads, prices, commodity declarations.
type Directive interface {
	When() time.Time
	Where() SourceLoc
	Kind() string
}

// Open declares an account as of a date, optionally constraining the
// commodities it may hold and overriding the ledger's booking method.
type Open struct {
	Date        time.Time
	Account     AccountName
	Commodities []string
	Booking     BookingMethod
	Source      SourceLoc
}

// Close ends an account's lifecycle; postings dated after it are rejected.
type Close struct {
	Date    time.Time
	Account AccountName
	Source  SourceLoc
}

// BalanceAssertion asserts an account's total holdings of one commodity as
// of the start of its date.
type BalanceAssertion struct {
	Date    time.Time
	Account AccountName
	Amount  Amount
	Source  SourceLoc
}

// Pad arms an automatic filler: the next balance assertion for Account
// materializes a synthetic transaction against SourceAccount making the
// assertion hold.
type Pad struct {
	Date          time.Time
	Account       AccountName
	SourceAccount AccountName
	Source        SourceLoc
}

// PriceDecl records a market price for one commodity in another.
type PriceDecl struct {
	Date      time.Time
	Commodity string
	Amount    Amount
	Source    SourceLoc
}

// CommodityDecl declares a commodity symbol. Under strict commodity checking
// only declared symbols may appear in postings.
type CommodityDecl struct {
	Date      time.Time
	Commodity string
	Metadata  map[string]any
	Source    SourceLoc
}

func (d Open) When() time.Time  { return d.Date }
func (d Open) Where() SourceLoc { return d.Source }
func (d Open) Kind() string     { return "open" }

func (d Close) When() time.Time  { return d.Date }
func (d Close) Where() SourceLoc { return d.Source }
func (d Close) Kind() string     { return "close" }

func (d BalanceAssertion) When() time.Time  { return d.Date }
func (d BalanceAssertion) Where() SourceLoc { return d.Source }
func (d BalanceAssertion) Kind() string     { return "balance" }

func (d Pad) When() time.Time  { return d.Date }
func (d Pad) Where() SourceLoc { return d.Source }
func (d Pad) Kind() string     { return "pad" }

func (d PriceDecl) When() time.Time  { return d.Date }
func (d PriceDecl) Where() SourceLoc { return d.Source }
func (d PriceDecl) Kind() string     { return "price" }

func (d CommodityDecl) When() time.Time  { return d.Date }
func (d CommodityDecl) Where() SourceLoc { return d.Source }
func (d CommodityDecl) Kind() string     { return "commodity" }

func (t Transaction) When() time.Time  { return t.Date }
func (t Transaction) Where() SourceLoc { return t.Source }
func (t Transaction) Kind() string     { return "transaction" }
