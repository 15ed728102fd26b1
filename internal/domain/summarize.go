package domain

import (
	"fmt"
	"sort"
	"time"
)

// SummaryOptions name the synthetic accounts a Clamp books against and the
// account roots whose accumulated balances move to the earnings account
// instead of opening as themselves.
type SummaryOptions struct {
	OpeningAccount  AccountName
	EarningsAccount AccountName
	EarningsRoots   []AccountName
}

// DefaultSummaryOptions uses the conventional equity accounts and treats
// Income and Expenses roots as earnings.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		OpeningAccount:  "Equity:Opening-Balances",
		EarningsAccount: "Equity:Earnings",
		EarningsRoots:   []AccountName{"Income", "Expenses"},
	}
}

func (o SummaryOptions) isEarnings(name AccountName) bool {
	for _, root := range o.EarningsRoots {
		if name.HasPrefix(root) {
			return true
		}
	}
	return false
}

// Clamp condenses a ledger to the period [begin, end): everything booked
// before begin collapses into one synthetic opening transaction per account,
// dated the day before begin and flagged FlagSummary, balanced against the
// opening account; income and expense balances are folded into the earnings
// account first. Transactions inside the period are re-booked through the
// balancer, so the zero-sum invariant holds for every entry of the result.
// Transactions dated on or after end are dropped. The source ledger is not
// modified. Returns the clamped ledger and the number of synthetic opening
// transactions it starts with.
func Clamp(src *Ledger, begin, end time.Time, opts SummaryOptions) (*Ledger, int, error) {
	if !begin.Before(end) {
		return nil, 0, fmt.Errorf("summarize: begin %s is not before end %s",
			begin.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	openDate := begin.AddDate(0, 0, -1)

	dst := NewLedger(src.opts)
	for name, acc := range src.accounts {
		dst.accounts[name] = cloneAccountShell(acc)
	}
	for symbol, decl := range src.commodities {
		dst.commodities[symbol] = decl
	}
	for _, name := range []AccountName{opts.OpeningAccount, opts.EarningsAccount} {
		if _, ok := dst.accounts[name]; !ok {
			dst.accounts[name] = NewAccount(name, openDate)
		}
	}

	held := replayInventories(src.journal, begin)
	foldEarnings(held, opts)

	opening, err := bookOpenings(dst, held, openDate, opts.OpeningAccount)
	if err != nil {
		return nil, 0, err
	}

	for _, booked := range src.journal {
		if booked.Date.Before(begin) || !booked.Date.Before(end) {
			continue
		}
		rebooked, err := dst.book(booked.Transaction)
		if err != nil {
			return nil, 0, fmt.Errorf("summarize: re-booking %s %q: %w",
				booked.Date.Format("2006-01-02"), booked.Narration, err)
		}
		rebooked.ID = booked.ID
		if err := dst.Apply(rebooked); err != nil {
			return nil, 0, err
		}
	}

	carryPrices(src.prices, dst.prices, begin, end)
	return dst, opening, nil
}

// cloneAccountShell copies an account's declaration with a fresh, empty
// inventory.
func cloneAccountShell(acc *Account) *Account {
	shell := NewAccount(acc.Name, acc.OpenedAt)
	shell.Commodities = append([]string(nil), acc.Commodities...)
	shell.Booking = acc.Booking
	if acc.ClosedAt != nil {
		closedAt := *acc.ClosedAt
		shell.ClosedAt = &closedAt
	}
	return shell
}

// replayInventories rebuilds each account's holdings from postings dated
// strictly before the cutoff. Booked postings are fully pinned, so the
// replay is a plain signed fold per lot.
func replayInventories(journal []*BookedTransaction, cutoff time.Time) map[AccountName]*Inventory {
	held := map[AccountName]*Inventory{}
	for _, booked := range journal {
		if !booked.Date.Before(cutoff) {
			continue
		}
		for i := range booked.Postings {
			p := &booked.Postings[i]
			if p.Units == nil {
				continue
			}
			inv, ok := held[p.Account]
			if !ok {
				inv = NewInventory()
				held[p.Account] = inv
			}
			inv.add(postingLot(p), p.Units.Number)
		}
	}
	return held
}

func postingLot(p *Posting) Lot {
	if p.Cost != nil && !p.Cost.IsWildcard() {
		return CostLot(p.Units.Commodity, p.Cost.Cost())
	}
	return BalanceLot(p.Units.Commodity)
}

// foldEarnings drains income and expense holdings into the earnings account
// at their balancing weight, one plain balance per weight currency.
func foldEarnings(held map[AccountName]*Inventory, opts SummaryOptions) {
	earnings, ok := held[opts.EarningsAccount]
	if !ok {
		earnings = NewInventory()
	}
	moved := false
	for name, inv := range held {
		if !opts.isEarnings(name) {
			continue
		}
		for _, pos := range inv.Positions() {
			weight := pos.Units
			currency := pos.Lot.Commodity
			if pos.Lot.HasCost() {
				weight = pos.Lot.Cost.Amount.Number.Mul(pos.Units)
				currency = pos.Lot.Cost.Amount.Commodity
			}
			earnings.Add(currency, weight)
			moved = true
		}
		delete(held, name)
	}
	if moved {
		held[opts.EarningsAccount] = earnings
	}
}

// bookOpenings books one FlagSummary transaction per account holding a
// non-empty balance, its positions carried as-is (costs pinned) and the
// opening account absorbing each currency's weight. Openings go through the
// balancer only, not directive validation: a closed account may still carry
// a balance into the period.
func bookOpenings(dst *Ledger, held map[AccountName]*Inventory, openDate time.Time, opening AccountName) (int, error) {
	names := make([]AccountName, 0, len(held))
	for name := range held {
		if !held[name].IsEmpty() {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		txn := Transaction{
			Date:      openDate,
			Flag:      FlagSummary,
			Narration: fmt.Sprintf("Opening balance for '%s' (Summarization)", name),
			Postings:  openingPostings(name, held[name], opening),
		}
		view := &bookView{ledger: dst, vivified: map[AccountName]*Account{}}
		booked, err := dst.balancer.Book(txn, view)
		if err != nil {
			return 0, fmt.Errorf("summarize: opening balance for %s: %w", name, err)
		}
		if err := dst.Apply(booked); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

func openingPostings(name AccountName, inv *Inventory, opening AccountName) []Posting {
	positions := inv.Positions()
	postings := make([]Posting, 0, len(positions)+1)
	for _, pos := range positions {
		units := NewAmount(pos.Units, pos.Lot.Commodity)
		p := Posting{Account: name, Units: &units}
		if pos.Lot.HasCost() {
			p = p.WithCost(*pos.Lot.Cost)
		}
		postings = append(postings, p)
	}
	return append(postings, Posting{Account: opening})
}

// carryPrices keeps the latest pre-period point per pair, re-dated as it
// was, plus every point inside the period.
func carryPrices(src, dst *PriceMap, begin, end time.Time) {
	for _, pair := range src.Pairs() {
		series := src.Series(pair[0], pair[1])
		lastBefore := -1
		for i, point := range series {
			switch {
			case point.Date.Before(begin):
				lastBefore = i
			case point.Date.Before(end):
				_ = dst.Add(point)
			}
		}
		if lastBefore >= 0 {
			_ = dst.Add(series[lastBefore])
		}
	}
}
