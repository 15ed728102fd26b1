package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Options configure a ledger fold. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// AutoVivify creates accounts on first reference. When false, postings
	// to undeclared accounts fail with ErrUnknownAccount.
	AutoVivify bool
	// RequireCommodities rejects postings in undeclared commodities.
	RequireCommodities bool
	// StrictPrices reports disagreeing implicit prices (duplicate date and
	// pair with a different rate) as warnings. Explicit price directives
	// are always checked.
	StrictPrices bool
	// DefaultBooking picks lots for wildcard reductions when the account
	// does not override it.
	DefaultBooking BookingMethod
	// Tolerance bounds residuals in zero-sum and assertion checks.
	Tolerance Tolerance
	// MaxErrors stops the fold once this many error diagnostics have been
	// recorded. Zero means process everything.
	MaxErrors int
}

// DefaultOptions returns the permissive defaults: auto-created accounts,
// undeclared commodities allowed, FIFO wildcard booking, exact-zero
// tolerance, no error limit.
func DefaultOptions() Options {
	return Options{
		AutoVivify:     true,
		DefaultBooking: BookingFIFO,
		Tolerance:      NewTolerance(),
	}
}

// Ledger folds directives in order: it owns the accounts and their
// inventories, books transactions through the balancer, checks balance
// assertions, materializes pads, accumulates prices, and collects
// diagnostics instead of stopping at the first problem.
type Ledger struct {
	opts        Options
	balancer    *Balancer
	accounts    map[AccountName]*Account
	commodities map[string]CommodityDecl
	prices      *PriceMap
	pads        []*PendingPad
	journal     []*BookedTransaction
	diagnostics []Diagnostic
	errorCount  int
	checkpoint  time.Time
	stopped     bool
	now         func() time.Time
}

// NewLedger returns an empty ledger with the given options.
func NewLedger(opts Options) *Ledger {
	if opts.DefaultBooking == "" {
		opts.DefaultBooking = BookingFIFO
	}
	return &Ledger{
		opts:        opts,
		balancer:    NewBalancer(opts.Tolerance, opts.DefaultBooking),
		accounts:    map[AccountName]*Account{},
		commodities: map[string]CommodityDecl{},
		prices:      NewPriceMap(),
		now:         time.Now,
	}
}

// Options returns the options the ledger was built with.
func (l *Ledger) Options() Options { return l.opts }

// OpenAccount declares an account as of the directive's date.
func (l *Ledger) OpenAccount(d Open) error {
	if l.stopped {
		return ErrTooManyErrors
	}
	if err := ValidateAccountName(d.Account); err != nil {
		return l.recordErr(err, d.When(), d.Where())
	}
	if _, ok := l.accounts[d.Account]; ok {
		return l.recordErr(fmt.Errorf("%w: %s", ErrAccountAlreadyOpen, d.Account), d.When(), d.Where())
	}
	acc := NewAccount(d.Account, d.Date)
	acc.Commodities = append([]string(nil), d.Commodities...)
	acc.Booking = d.Booking
	l.accounts[d.Account] = acc
	return nil
}

// CloseAccount ends an account's lifecycle. The inventory may be non-empty;
// only postings dated after the close are rejected.
func (l *Ledger) CloseAccount(d Close) error {
	if l.stopped {
		return ErrTooManyErrors
	}
	acc, ok := l.accounts[d.Account]
	if !ok {
		return l.recordErr(fmt.Errorf("%w: %s", ErrAccountNotFound, d.Account), d.When(), d.Where())
	}
	if acc.ClosedAt != nil {
		return l.recordErr(fmt.Errorf("%w: %s", ErrAccountAlreadyClosed, d.Account), d.When(), d.Where())
	}
	if d.Date.Before(acc.OpenedAt) {
		return l.recordErr(fmt.Errorf("%w: close predates open of %s", ErrAccountNotOpen, d.Account), d.When(), d.Where())
	}
	closedAt := d.Date
	acc.ClosedAt = &closedAt
	return nil
}

// DeclareCommodity registers a commodity symbol.
func (l *Ledger) DeclareCommodity(d CommodityDecl) error {
	if l.stopped {
		return ErrTooManyErrors
	}
	if err := ValidateCommodity(d.Commodity); err != nil {
		return l.recordErr(err, d.When(), d.Where())
	}
	l.commodities[d.Commodity] = d
	return nil
}

// ArmPad arms a pad: the next balance assertion for the account materializes
// a synthetic transaction against the source account. A newer pad for the
// same account supersedes an armed one, which is then reported unused.
func (l *Ledger) ArmPad(d Pad) error {
	if l.stopped {
		return ErrTooManyErrors
	}
	if _, err := l.resolveAccount(d.Account, d.Date); err != nil {
		return l.recordErr(err, d.When(), d.Where())
	}
	if _, err := l.resolveAccount(d.SourceAccount, d.Date); err != nil {
		return l.recordErr(err, d.When(), d.Where())
	}
	for _, pad := range l.pads {
		if pad.Account == d.Account && pad.Status == PadStatusArmed {
			pad.Status = PadStatusUnused
			l.record(DiagUnusedPad, SeverityWarning,
				fmt.Sprintf("pad for %s superseded before any balance assertion", pad.Account),
				pad.Date, pad.Source)
		}
	}
	l.pads = append(l.pads, &PendingPad{
		Date:          d.Date,
		Account:       d.Account,
		SourceAccount: d.SourceAccount,
		Status:        PadStatusArmed,
		Source:        d.Source,
	})
	return nil
}

// bookView overlays accounts vivified during one Book call on the ledger,
// so a failed booking never leaves new accounts behind.
type bookView struct {
	ledger   *Ledger
	vivified map[AccountName]*Account
}

func (v *bookView) InventoryOf(name AccountName) (*Inventory, BookingMethod, error) {
	if acc, ok := v.vivified[name]; ok {
		return acc.Inventory, acc.Booking, nil
	}
	if acc, ok := v.ledger.accounts[name]; ok {
		return acc.Inventory, acc.Booking, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnknownAccount, name)
}

// Book validates and balances one transaction without mutating the ledger.
// Transactions dated before the last assertion checkpoint are rejected.
// Failures are recorded as diagnostics and wrapped with the transaction's
// context; the ledger stays as if the transaction had never been submitted.
func (l *Ledger) Book(txn Transaction) (*BookedTransaction, error) {
	if l.stopped {
		return nil, ErrTooManyErrors
	}
	if !l.checkpoint.IsZero() && txn.Date.Before(l.checkpoint) {
		return nil, l.bookingFailure(txn, fmt.Errorf("%w: %s before %s", ErrOutOfOrder,
			txn.Date.Format("2006-01-02"), l.checkpoint.Format("2006-01-02")))
	}
	booked, err := l.book(txn)
	if err != nil {
		return nil, l.bookingFailure(txn, err)
	}
	return booked, nil
}

// bookingFailure records a rejected transaction and wraps the cause.
func (l *Ledger) bookingFailure(txn Transaction, err error) error {
	berr := &BookingError{Date: txn.Date, Narration: txn.Narration, Source: txn.Source, Err: err}
	l.record(KindOfBookingError(err), SeverityError, berr.Error(), txn.Date, txn.Source)
	return berr
}

func (l *Ledger) book(txn Transaction) (*BookedTransaction, error) {
	view := &bookView{ledger: l, vivified: map[AccountName]*Account{}}
	for i := range txn.Postings {
		p := &txn.Postings[i]
		acc, ok := l.accounts[p.Account]
		if !ok {
			acc, ok = view.vivified[p.Account]
		}
		if !ok {
			vivified, err := l.vivify(p.Account, txn.Date)
			if err != nil {
				return nil, err
			}
			view.vivified[p.Account] = vivified
			acc = vivified
		}
		if err := acc.ValidatePosting(txn.Date); err != nil {
			return nil, fmt.Errorf("%w: %s", err, p.Account)
		}
		if err := l.checkCommodities(acc, p); err != nil {
			return nil, err
		}
	}

	booked, err := l.balancer.Book(txn, view)
	if err != nil {
		return nil, err
	}
	booked.vivified = view.vivified
	return booked, nil
}

// vivify builds (but does not register) an account for first use.
func (l *Ledger) vivify(name AccountName, date time.Time) (*Account, error) {
	if !l.opts.AutoVivify {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, name)
	}
	if err := ValidateAccountName(name); err != nil {
		return nil, err
	}
	return NewAccount(name, date), nil
}

// checkCommodities applies the account's constraint list and, under strict
// commodity checking, the declared-commodity requirement to every commodity
// the posting mentions.
func (l *Ledger) checkCommodities(acc *Account, p *Posting) error {
	if p.Units != nil {
		if err := acc.ValidateCommodity(p.Units.Commodity); err != nil {
			return fmt.Errorf("%w: %s on %s", err, p.Units.Commodity, acc.Name)
		}
	}
	if !l.opts.RequireCommodities {
		return nil
	}
	for _, c := range postingCommodities(p) {
		if _, ok := l.commodities[c]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCommodity, c)
		}
	}
	return nil
}

func postingCommodities(p *Posting) []string {
	var out []string
	if p.Units != nil {
		out = append(out, p.Units.Commodity)
	}
	if p.Cost != nil && p.Cost.Currency != "" {
		out = append(out, p.Cost.Currency)
	}
	if p.Price != nil {
		out = append(out, p.Price.Amount.Commodity)
	}
	return out
}

// Apply installs a booked transaction: vivified accounts are committed, the
// staged inventories replace the live ones, implicit prices accumulate, and
// the transaction joins the journal. Must be called exactly once per booked
// transaction, in booking order.
func (l *Ledger) Apply(booked *BookedTransaction) error {
	if l.stopped {
		return ErrTooManyErrors
	}
	if booked.applied {
		return ErrAlreadyApplied
	}
	for name, acc := range booked.vivified {
		l.accounts[name] = acc
	}
	for name, inv := range booked.updated {
		acc, ok := l.accounts[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, name)
		}
		acc.Inventory = inv
	}
	for _, p := range booked.ImplicitPrices {
		l.addPricePoint(p)
	}
	booked.applied = true
	l.journal = append(l.journal, booked)
	return nil
}

// AddPrice records an explicit price directive. A disagreeing price for the
// same date and pair is kept but reported as a warning.
func (l *Ledger) AddPrice(d PriceDecl) error {
	if l.stopped {
		return ErrTooManyErrors
	}
	point := PricePoint{
		Date:  d.Date,
		Base:  d.Commodity,
		Quote: d.Amount.Commodity,
		Rate:  d.Amount.Number,
	}
	if err := l.prices.Add(point); err != nil {
		l.record(DiagDisagreeingPrice, SeverityWarning, err.Error(), d.Date, d.Source)
	}
	return nil
}

func (l *Ledger) addPricePoint(p PricePoint) {
	if err := l.prices.Add(p); err != nil && l.opts.StrictPrices {
		l.record(DiagDisagreeingPrice, SeverityWarning, err.Error(), p.Date, SourceLoc{})
	}
}

// AssertBalance checks an account's holdings of one commodity as of the
// start of the assertion date. An armed pad absorbs the difference through a
// synthetic padding transaction; otherwise a mismatch is recorded as a
// non-fatal diagnostic and returned. Either way the assertion becomes the
// ledger's ordering checkpoint.
func (l *Ledger) AssertBalance(d BalanceAssertion) (*AssertionError, error) {
	if l.stopped {
		return nil, ErrTooManyErrors
	}
	acc, err := l.resolveAccount(d.Account, d.Date)
	if err != nil {
		return nil, l.recordErr(err, d.When(), d.Where())
	}

	got := l.balanceAsOf(acc.Name, d.Amount.Commodity, d.Date)
	diff := d.Amount.Number.Sub(got)

	if !l.opts.Tolerance.WithinTolerance(d.Amount.Commodity, diff) {
		if pad := l.usablePad(acc.Name, d.Date); pad != nil {
			if err := l.materializePad(pad, d, diff); err == nil {
				got = d.Amount.Number
				diff = decimal.Zero
			}
		}
	}

	l.advanceCheckpoint(d.Date)

	if l.opts.Tolerance.WithinTolerance(d.Amount.Commodity, diff) {
		return nil, nil
	}
	aerr := &AssertionError{
		Account:   d.Account,
		Commodity: d.Amount.Commodity,
		Want:      d.Amount.Number,
		Got:       got,
		Date:      d.Date,
		Source:    d.Source,
	}
	l.record(DiagAssertionFailed, SeverityWarning, aerr.Error(), d.Date, d.Source)
	return aerr, nil
}

// usablePad finds a pad that can serve an assertion: armed, dated on or
// before the assertion, or already used at this same checkpoint for another
// commodity.
func (l *Ledger) usablePad(account AccountName, date time.Time) *PendingPad {
	for i := len(l.pads) - 1; i >= 0; i-- {
		pad := l.pads[i]
		if pad.Account != account || pad.Date.After(date) {
			continue
		}
		if pad.Status == PadStatusArmed {
			return pad
		}
		if pad.Status == PadStatusMaterialized && pad.UsedAt != nil && pad.UsedAt.Equal(date) {
			return pad
		}
	}
	return nil
}

// materializePad books the synthetic padding transaction moving diff into
// the padded account from the pad source, dated at the pad. The padding
// transaction sits logically before the assertion that consumes it, so it
// sidesteps the checkpoint gate.
func (l *Ledger) materializePad(pad *PendingPad, d BalanceAssertion, diff decimal.Decimal) error {
	units := NewAmount(diff, d.Amount.Commodity)
	txn := Transaction{
		Date: pad.Date,
		Flag: FlagPadding,
		Narration: fmt.Sprintf("(Padding inserted for balance of %s on %s)",
			d.Amount, d.Date.Format("2006-01-02")),
		Postings: []Posting{
			{Account: pad.Account, Units: &units},
			{Account: pad.SourceAccount},
		},
		Source: pad.Source,
	}
	booked, err := l.book(txn)
	if err != nil {
		return l.bookingFailure(txn, err)
	}
	if err := l.Apply(booked); err != nil {
		return err
	}
	if pad.Status == PadStatusArmed {
		if err := pad.Materialize(); err != nil {
			return err
		}
	}
	usedAt := d.Date
	pad.UsedAt = &usedAt
	return nil
}

func (l *Ledger) advanceCheckpoint(date time.Time) {
	if date.After(l.checkpoint) {
		l.checkpoint = date
	}
}

// resolveAccount finds or vivifies an account for a directive.
func (l *Ledger) resolveAccount(name AccountName, date time.Time) (*Account, error) {
	if acc, ok := l.accounts[name]; ok {
		return acc, nil
	}
	acc, err := l.vivify(name, date)
	if err != nil {
		return nil, err
	}
	l.accounts[name] = acc
	return acc, nil
}

// BalanceAsOf sums an account's units of a commodity across all lots over
// transactions dated strictly before date.
func (l *Ledger) BalanceAsOf(account AccountName, commodity string, date time.Time) (Amount, error) {
	if _, ok := l.accounts[account]; !ok {
		return Amount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return NewAmount(l.balanceAsOf(account, commodity, date), commodity), nil
}

func (l *Ledger) balanceAsOf(account AccountName, commodity string, date time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, booked := range l.journal {
		if !booked.Date.Before(date) {
			continue
		}
		for i := range booked.Postings {
			p := &booked.Postings[i]
			if p.Account == account && p.Units != nil && p.Units.Commodity == commodity {
				total = total.Add(p.Units.Number)
			}
		}
	}
	return total
}

// Balance returns the account's current holdings of a commodity across all
// lots.
func (l *Ledger) Balance(account AccountName, commodity string) (Amount, error) {
	acc, ok := l.accounts[account]
	if !ok {
		return Amount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return NewAmount(acc.Inventory.BalanceOf(commodity), commodity), nil
}

// InventorySnapshot returns a copy of the account's current positions.
func (l *Ledger) InventorySnapshot(account AccountName) ([]Position, error) {
	acc, ok := l.accounts[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return acc.Inventory.Positions(), nil
}

// Account looks up an account by name.
func (l *Ledger) Account(name AccountName) (*Account, error) {
	acc, ok := l.accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	return acc, nil
}

// Accounts returns all accounts sorted by name.
func (l *Ledger) Accounts() []*Account {
	out := make([]*Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Journal returns the booked transactions in application order.
func (l *Ledger) Journal() []*BookedTransaction {
	return append([]*BookedTransaction(nil), l.journal...)
}

// Transaction finds a booked transaction by its assigned ID.
func (l *Ledger) Transaction(id string) (*BookedTransaction, error) {
	for _, booked := range l.journal {
		if booked.ID == id {
			return booked, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
}

// Prices exposes the accumulated price table.
func (l *Ledger) Prices() *PriceMap { return l.prices }

// Commodities returns the declared commodity symbols in lexical order.
func (l *Ledger) Commodities() []string {
	out := make([]string, 0, len(l.commodities))
	for c := range l.commodities {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Diagnostics returns everything collected so far.
func (l *Ledger) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), l.diagnostics...)
}

// Checkpoint returns the latest balance-assertion date, the floor for new
// transaction dates.
func (l *Ledger) Checkpoint() time.Time { return l.checkpoint }

// Stopped reports whether the error limit ended the fold.
func (l *Ledger) Stopped() bool { return l.stopped }

// Finish closes the fold: pads never consumed by an assertion are reported
// unused. It returns the full diagnostic list.
func (l *Ledger) Finish() []Diagnostic {
	for _, pad := range l.pads {
		if pad.Status != PadStatusArmed {
			continue
		}
		pad.Status = PadStatusUnused
		l.record(DiagUnusedPad, SeverityWarning,
			fmt.Sprintf("pad for %s never used by a balance assertion", pad.Account),
			pad.Date, pad.Source)
	}
	return l.Diagnostics()
}

// record appends a diagnostic and enforces the MaxErrors cap.
func (l *Ledger) record(kind DiagnosticKind, severity DiagnosticSeverity, msg string, date time.Time, loc SourceLoc) {
	l.diagnostics = append(l.diagnostics, Diagnostic{
		Kind:       kind,
		Severity:   severity,
		Message:    msg,
		Date:       date,
		Source:     loc,
		RecordedAt: l.now(),
	})
	if severity != SeverityError || l.opts.MaxErrors <= 0 {
		return
	}
	errors := 0
	for _, diag := range l.diagnostics {
		if diag.Severity == SeverityError {
			errors++
		}
	}
	if errors >= l.opts.MaxErrors {
		l.stopped = true
	}
}

// recordErr records a directive-level failure and returns it unchanged.
func (l *Ledger) recordErr(err error, date time.Time, loc SourceLoc) error {
	l.record(KindOfBookingError(err), SeverityError, err.Error(), date, loc)
	return err
}
