package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BookingMethod selects how wildcard reductions pick lots.
type BookingMethod string

const (
	BookingStrict  BookingMethod = "STRICT"
	BookingFIFO    BookingMethod = "FIFO"
	BookingLIFO    BookingMethod = "LIFO"
	BookingAverage BookingMethod = "AVERAGE"
)

// ParseBookingMethod validates a booking method name.
func ParseBookingMethod(s string) (BookingMethod, error) {
	switch BookingMethod(s) {
	case BookingStrict, BookingFIFO, BookingLIFO, BookingAverage:
		return BookingMethod(s), nil
	case "":
		return BookingFIFO, nil
	default:
		return "", fmt.Errorf("unknown booking method %q", s)
	}
}

// InventorySource hands the balancer each account's live inventory and
// booking method. Book never mutates what it returns; all lot operations
// stage against clones until the booked transaction is applied.
type InventorySource interface {
	InventoryOf(name AccountName) (*Inventory, BookingMethod, error)
}

// Balancer resolves a transaction's postings: stages lot reductions and
// augmentations, infers at most one elided amount, and verifies the
// zero-sum invariant per weight currency within tolerance.
type Balancer struct {
	Tolerance     Tolerance
	DefaultMethod BookingMethod
}

// NewBalancer returns a balancer with the given tolerance and default
// wildcard booking method.
func NewBalancer(tol Tolerance, method BookingMethod) *Balancer {
	if method == "" {
		method = BookingFIFO
	}
	return &Balancer{Tolerance: tol, DefaultMethod: method}
}

// booking carries one Book call's staging state.
type booking struct {
	balancer   *Balancer
	source     InventorySource
	staged     map[AccountName]*Inventory
	methods    map[AccountName]BookingMethod
	residuals  map[string]decimal.Decimal
	resolved   []Posting
	reductions []AccountReduction
	prices     []PricePoint
}

// Book resolves one transaction. On success the returned value carries fully
// resolved postings, the realized reductions, and the staged inventories;
// nothing visible changes until the ledger applies it. On failure the staged
// clones are discarded and the error reports why.
func (b *Balancer) Book(txn Transaction, source InventorySource) (*BookedTransaction, error) {
	if len(txn.Postings) == 0 {
		return nil, ErrNoPostings
	}

	elided := -1
	explicit := 0
	for i := range txn.Postings {
		if !txn.Postings[i].Elided() {
			explicit++
			continue
		}
		if elided >= 0 {
			return nil, ErrAmbiguousElision
		}
		elided = i
	}
	if elided >= 0 && explicit == 0 {
		return nil, ErrNoSolution
	}

	bk := &booking{
		balancer:  b,
		source:    source,
		staged:    map[AccountName]*Inventory{},
		methods:   map[AccountName]BookingMethod{},
		residuals: map[string]decimal.Decimal{},
	}

	// 1. Resolve every explicit posting, accumulating weights. Reductions
	// run first on each posting so realized costs can serve as weights.
	// Splits shift positions, so remember where the placeholder landed.
	elidedAt := -1
	for i := range txn.Postings {
		if i == elided {
			elidedAt = len(bk.resolved)
			bk.resolved = append(bk.resolved, txn.Postings[i])
			continue
		}
		if err := bk.resolveExplicit(txn, txn.Postings[i]); err != nil {
			return nil, err
		}
	}

	// 2. Fill the elided posting with the negated residual, one resolved
	// posting per currency still out of balance.
	if elided >= 0 {
		if err := bk.fillElided(elidedAt); err != nil {
			return nil, err
		}
	}

	// 3. Zero-sum check per weight currency.
	if err := bk.checkResiduals(); err != nil {
		return nil, err
	}

	booked := &BookedTransaction{
		Transaction:    txn,
		Reductions:     bk.reductions,
		ImplicitPrices: bk.prices,
		updated:        bk.staged,
	}
	booked.Postings = bk.resolved
	return booked, nil
}

// stage returns the cloned inventory for an account, cloning on first touch.
func (bk *booking) stage(name AccountName) (*Inventory, BookingMethod, error) {
	if inv, ok := bk.staged[name]; ok {
		return inv, bk.methods[name], nil
	}
	live, method, err := bk.source.InventoryOf(name)
	if err != nil {
		return nil, "", err
	}
	if method == "" {
		method = bk.balancer.DefaultMethod
	}
	clone := live.Clone()
	bk.staged[name] = clone
	bk.methods[name] = method
	return clone, method, nil
}

func (bk *booking) addResidual(currency string, n decimal.Decimal) {
	bk.residuals[currency] = bk.residuals[currency].Add(n)
}

// resolveExplicit books one posting with explicit units: reduces or augments
// lots when a cost clause is present, otherwise moves plain balance, and in
// all cases adds the posting's weight to its currency's residual.
func (bk *booking) resolveExplicit(txn Transaction, p Posting) error {
	switch {
	case p.Cost != nil && p.Units.IsNegative():
		return bk.reduceLots(txn, p)
	case p.Cost != nil && p.Units.IsPositive():
		return bk.augmentLot(txn, p)
	case p.Cost != nil:
		return fmt.Errorf("%w: zero units with cost on %s", ErrNonPositiveQuantity, p.Account)
	default:
		weight, err := p.Weight()
		if err != nil {
			return err
		}
		bk.addResidual(weight.Commodity, weight.Number)
		inv, _, err := bk.stage(p.Account)
		if err != nil {
			return err
		}
		inv.Add(p.Units.Commodity, p.Units.Number)
		bk.resolved = append(bk.resolved, p)
		bk.collectPrice(txn, p)
		return nil
	}
}

// reduceLots consumes inventory for a negative posting with a cost clause
// and splits the posting per consumed lot, each pinned to its cost. Realized
// costs, negated, are the posting's weights.
func (bk *booking) reduceLots(txn Transaction, p Posting) error {
	inv, method, err := bk.stage(p.Account)
	if err != nil {
		return err
	}
	reductions, err := inv.Reduce(p.Units.Commodity, p.Units.Number.Abs(), p.Cost, method)
	if err != nil {
		return err
	}
	for _, r := range reductions {
		bk.addResidual(r.CostTotal.Commodity, r.CostTotal.Number.Neg())
		bk.reductions = append(bk.reductions, AccountReduction{Account: p.Account, Reduction: r})

		split := p.WithUnits(NewAmount(r.Units.Neg(), p.Units.Commodity)).WithCost(*r.Lot.Cost)
		bk.resolved = append(bk.resolved, split)
		bk.collectPrice(txn, split)
	}
	return nil
}

// augmentLot acquires a new lot for a positive posting with a cost clause.
// A missing acquisition date defaults to the transaction date.
func (bk *booking) augmentLot(txn Transaction, p Posting) error {
	if p.Cost.IsWildcard() {
		return fmt.Errorf("%w: %s %v on %s", ErrIncompleteCost, p.Units, p.Cost, p.Account)
	}
	cost := p.Cost.Cost()
	if cost.Date.IsZero() {
		cost.Date = txn.Date
	}

	inv, _, err := bk.stage(p.Account)
	if err != nil {
		return err
	}
	if err := inv.Augment(CostLot(p.Units.Commodity, cost), p.Units.Number); err != nil {
		return err
	}

	total := cost.Amount.MulScalar(p.Units.Number)
	bk.addResidual(total.Commodity, total.Number)

	resolved := p.WithCost(cost)
	bk.resolved = append(bk.resolved, resolved)
	bk.collectPrice(txn, resolved)
	return nil
}

// fillElided replaces the elided placeholder with one posting per currency
// whose residual is not yet zero, each taking the negated residual.
func (bk *booking) fillElided(at int) error {
	placeholder := bk.resolved[at]
	if placeholder.Cost != nil || placeholder.Price != nil {
		return fmt.Errorf("%w: elided posting cannot carry a cost or price", ErrNoSolution)
	}

	currencies := make([]string, 0, len(bk.residuals))
	for currency, residual := range bk.residuals {
		if !residual.IsZero() {
			currencies = append(currencies, currency)
		}
	}
	sort.Strings(currencies)

	inv, _, err := bk.stage(placeholder.Account)
	if err != nil {
		return err
	}

	fills := make([]Posting, 0, len(currencies))
	for _, currency := range currencies {
		units := NewAmount(bk.residuals[currency].Neg(), currency)
		fills = append(fills, placeholder.WithUnits(units))
		bk.addResidual(currency, units.Number)
		inv.Add(currency, units.Number)
	}

	// A fully balanced transaction leaves nothing to absorb; the elided
	// posting simply drops out.
	bk.resolved = append(bk.resolved[:at], append(fills, bk.resolved[at+1:]...)...)
	return nil
}

// checkResiduals verifies every weight currency sums to zero within its
// tolerance.
func (bk *booking) checkResiduals() error {
	failed := map[string]decimal.Decimal{}
	for currency, residual := range bk.residuals {
		if !bk.balancer.Tolerance.WithinTolerance(currency, residual) {
			failed[currency] = residual
		}
	}
	if len(failed) > 0 {
		return &UnbalancedError{Residuals: failed}
	}
	return nil
}

// collectPrice gathers the implicit price a resolved posting implies. A
// price annotation carries today's rate and wins; a lot posting without one
// contributes its cost rate.
func (bk *booking) collectPrice(txn Transaction, p Posting) {
	if p.Units == nil || p.Units.IsZero() {
		return
	}
	if p.Price != nil {
		rate := p.Price.Amount.Number
		if p.Price.Total {
			rate = p.Price.Amount.Number.Div(p.Units.Number.Abs())
		}
		bk.prices = append(bk.prices, PricePoint{
			Date:     txn.Date,
			Base:     p.Units.Commodity,
			Quote:    p.Price.Amount.Commodity,
			Rate:     rate,
			Implicit: true,
		})
		return
	}
	if p.Cost != nil && !p.Cost.IsWildcard() {
		bk.prices = append(bk.prices, PricePoint{
			Date:     txn.Date,
			Base:     p.Units.Commodity,
			Quote:    p.Cost.Currency,
			Rate:     *p.Cost.Number,
			Implicit: true,
		})
	}
}
