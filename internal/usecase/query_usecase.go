package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
)

// QueryUseCase answers read-only questions about the ledger: balances,
// inventories, the journal, prices, diagnostics, and the account tree. Every
// query copies its result out under the ledger lock.
type QueryUseCase struct {
	state *LedgerState
}

// NewQueryUseCase creates a new QueryUseCase.
func NewQueryUseCase(state *LedgerState) *QueryUseCase {
	return &QueryUseCase{state: state}
}

// BalanceInput represents input for a balance query. A nil AsOf asks for
// the current balance; otherwise holdings are summed from postings dated
// strictly before AsOf.
type BalanceInput struct {
	Account   string
	Commodity string
	AsOf      *time.Time
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Prefix string
	Limit  int
	Offset int
}

// ListTransactionsInput represents input for listing journal entries.
// Account keeps only transactions touching it; From and To bound dates as
// the half-open range [From, To).
type ListTransactionsInput struct {
	Account string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// AccountRollup is one node of the account tree: its own holdings and the
// subtree total including all descendants. Nodes that exist only as path
// segments of deeper accounts carry Declared=false and no own balances.
type AccountRollup struct {
	Account  string
	Declared bool
	Balances []domain.Amount
	Rollup   []domain.Amount
}

// Ping acquires and releases the ledger lock, verifying reads are served.
func (uc *QueryUseCase) Ping(ctx context.Context) error {
	return uc.state.View(func(*domain.Ledger) error { return nil })
}

// Balance returns one account's holdings of a commodity.
func (uc *QueryUseCase) Balance(ctx context.Context, input BalanceInput) (domain.Amount, error) {
	var out domain.Amount
	err := uc.state.View(func(l *domain.Ledger) error {
		var err error
		if input.AsOf != nil {
			out, err = l.BalanceAsOf(domain.AccountName(input.Account), input.Commodity, *input.AsOf)
		} else {
			out, err = l.Balance(domain.AccountName(input.Account), input.Commodity)
		}
		return err
	})
	return out, err
}

// InventorySnapshot returns an account's positions, lots at cost included.
func (uc *QueryUseCase) InventorySnapshot(ctx context.Context, account string) ([]domain.Position, error) {
	var out []domain.Position
	err := uc.state.View(func(l *domain.Ledger) error {
		positions, err := l.InventorySnapshot(domain.AccountName(account))
		if err != nil {
			return err
		}
		out = positions
		return nil
	})
	return out, err
}

// GetAccount returns one account's declaration and current state.
func (uc *QueryUseCase) GetAccount(ctx context.Context, name string) (*domain.Account, error) {
	var out *domain.Account
	err := uc.state.View(func(l *domain.Ledger) error {
		acc, err := l.Account(domain.AccountName(name))
		if err != nil {
			return err
		}
		out = cloneAccount(acc)
		return nil
	})
	return out, err
}

// ListAccounts lists accounts sorted by name, optionally under a prefix.
func (uc *QueryUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := normalizePage(input.Limit, input.Offset)
	prefix := domain.AccountName(input.Prefix)

	var out []*domain.Account
	err := uc.state.View(func(l *domain.Ledger) error {
		for _, acc := range l.Accounts() {
			if prefix != "" && !acc.Name.HasPrefix(prefix) {
				continue
			}
			out = append(out, cloneAccount(acc))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page(out, limit, offset), nil
}

// cloneAccount copies an account so callers may read it after the ledger
// lock is released.
func cloneAccount(acc *domain.Account) *domain.Account {
	out := *acc
	out.Commodities = append([]string(nil), acc.Commodities...)
	out.Inventory = acc.Inventory.Clone()
	if acc.ClosedAt != nil {
		closedAt := *acc.ClosedAt
		out.ClosedAt = &closedAt
	}
	return &out
}

// AccountTree rolls the account hierarchy up: every node's subtree total is
// the sum of its own holdings and all descendants', per commodity. A
// non-empty prefix narrows the tree to that subtree.
func (uc *QueryUseCase) AccountTree(ctx context.Context, prefix string) ([]AccountRollup, error) {
	var out []AccountRollup
	err := uc.state.View(func(l *domain.Ledger) error {
		out = accountTree(l, prefix)
		return nil
	})
	return out, err
}

// accountTree computes the rollup for a ledger the caller already holds.
func accountTree(l *domain.Ledger, prefix string) []AccountRollup {
	own := map[domain.AccountName]map[string]decimal.Decimal{}
	totals := map[domain.AccountName]map[string]decimal.Decimal{}
	declared := map[domain.AccountName]bool{}

	for _, acc := range l.Accounts() {
		declared[acc.Name] = true
		balances := map[string]decimal.Decimal{}
		for _, commodity := range acc.Inventory.Commodities() {
			balances[commodity] = acc.Inventory.BalanceOf(commodity)
		}
		own[acc.Name] = balances

		for node := acc.Name; node != ""; node = node.Parent() {
			total, ok := totals[node]
			if !ok {
				total = map[string]decimal.Decimal{}
				totals[node] = total
			}
			for commodity, units := range balances {
				total[commodity] = total[commodity].Add(units)
			}
		}
	}

	names := make([]domain.AccountName, 0, len(totals))
	for name := range totals {
		if prefix != "" && !name.HasPrefix(domain.AccountName(prefix)) {
			continue
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	out := make([]AccountRollup, 0, len(names))
	for _, name := range names {
		out = append(out, AccountRollup{
			Account:  string(name),
			Declared: declared[name],
			Balances: toAmounts(own[name]),
			Rollup:   toAmounts(totals[name]),
		})
	}
	return out
}

// GetTransaction returns one booked transaction by ID.
func (uc *QueryUseCase) GetTransaction(ctx context.Context, id string) (*domain.BookedTransaction, error) {
	var out *domain.BookedTransaction
	err := uc.state.View(func(l *domain.Ledger) error {
		txn, err := l.Transaction(id)
		if err != nil {
			return err
		}
		out = txn
		return nil
	})
	return out, err
}

// ListTransactions lists journal entries in booking order.
func (uc *QueryUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.BookedTransaction, error) {
	limit, offset := normalizePage(input.Limit, input.Offset)
	account := domain.AccountName(input.Account)

	var out []*domain.BookedTransaction
	err := uc.state.View(func(l *domain.Ledger) error {
		for _, booked := range l.Journal() {
			if input.From != nil && booked.Date.Before(*input.From) {
				continue
			}
			if input.To != nil && !booked.Date.Before(*input.To) {
				continue
			}
			if account != "" && !touchesAccount(booked, account) {
				continue
			}
			out = append(out, booked)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page(out, limit, offset), nil
}

// Diagnostics returns collected problems, optionally filtered by severity.
func (uc *QueryUseCase) Diagnostics(ctx context.Context, severity string) ([]domain.Diagnostic, error) {
	var out []domain.Diagnostic
	err := uc.state.View(func(l *domain.Ledger) error {
		for _, d := range l.Diagnostics() {
			if severity != "" && string(d.Severity) != severity {
				continue
			}
			out = append(out, d)
		}
		return nil
	})
	return out, err
}

// PriceSeries returns the dated points for one pair in ascending order.
func (uc *QueryUseCase) PriceSeries(ctx context.Context, base, quote string) ([]domain.PricePoint, error) {
	var out []domain.PricePoint
	err := uc.state.View(func(l *domain.Ledger) error {
		out = l.Prices().Series(base, quote)
		return nil
	})
	return out, err
}

// LookupPrice returns the latest price for a pair on or before date.
func (uc *QueryUseCase) LookupPrice(ctx context.Context, base, quote string, date time.Time) (domain.PricePoint, bool, error) {
	var (
		out   domain.PricePoint
		found bool
	)
	err := uc.state.View(func(l *domain.Ledger) error {
		out, found = l.Prices().Lookup(base, quote, date)
		return nil
	})
	return out, found, err
}

// PricePairs lists the known price pairs.
func (uc *QueryUseCase) PricePairs(ctx context.Context) ([][2]string, error) {
	var out [][2]string
	err := uc.state.View(func(l *domain.Ledger) error {
		out = l.Prices().Pairs()
		return nil
	})
	return out, err
}

// ListCommodities lists declared commodity symbols.
func (uc *QueryUseCase) ListCommodities(ctx context.Context) ([]string, error) {
	var out []string
	err := uc.state.View(func(l *domain.Ledger) error {
		out = l.Commodities()
		return nil
	})
	return out, err
}

func touchesAccount(booked *domain.BookedTransaction, account domain.AccountName) bool {
	for i := range booked.Postings {
		if booked.Postings[i].Account == account {
			return true
		}
	}
	return false
}

func toAmounts(balances map[string]decimal.Decimal) []domain.Amount {
	commodities := make([]string, 0, len(balances))
	for commodity, units := range balances {
		if units.IsZero() {
			continue
		}
		commodities = append(commodities, commodity)
	}
	sort.Strings(commodities)

	out := make([]domain.Amount, 0, len(commodities))
	for _, commodity := range commodities {
		out = append(out, domain.NewAmount(balances[commodity], commodity))
	}
	return out
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
