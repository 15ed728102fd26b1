package domain

import (
	"strings"
	"time"
)

// AccountName is a hierarchical colon-delimited account name such as
// "Assets:US:Brokerage".
type AccountName string

// Split returns the name's components.
func (n AccountName) Split() []string {
	return strings.Split(string(n), ":")
}

// Parent returns the name with its last component removed, or "" for a root.
func (n AccountName) Parent() AccountName {
	i := strings.LastIndex(string(n), ":")
	if i < 0 {
		return ""
	}
	return n[:i]
}

// HasPrefix reports whether the name equals prefix or sits under it in the
// hierarchy.
func (n AccountName) HasPrefix(prefix AccountName) bool {
	if n == prefix {
		return true
	}
	return strings.HasPrefix(string(n), string(prefix)+":")
}

// Account is a ledger account: a lifecycle window, optional commodity
// constraints, a booking method override, and the inventory it holds.
// Accounts are never deleted, only closed.
type Account struct {
	Name        AccountName
	OpenedAt    time.Time
	ClosedAt    *time.Time
	Commodities []string      // allowed commodities; empty means unconstrained
	Booking     BookingMethod // "" falls back to the ledger default
	Inventory   *Inventory
}

// NewAccount opens an account as of the given date.
func NewAccount(name AccountName, openedAt time.Time) *Account {
	return &Account{Name: name, OpenedAt: openedAt, Inventory: NewInventory()}
}

// IsOpen reports whether the account accepts postings dated at date.
func (a *Account) IsOpen(date time.Time) bool {
	if date.Before(a.OpenedAt) {
		return false
	}
	if a.ClosedAt != nil && date.After(*a.ClosedAt) {
		return false
	}
	return true
}

// ValidatePosting checks that a posting dated at date may touch the account.
func (a *Account) ValidatePosting(date time.Time) error {
	if a.ClosedAt != nil && date.After(*a.ClosedAt) {
		return ErrAccountClosed
	}
	if date.Before(a.OpenedAt) {
		return ErrAccountNotOpen
	}
	return nil
}

// ValidateCommodity checks a posting's commodity against the account's
// constraint list from its open directive.
func (a *Account) ValidateCommodity(commodity string) error {
	if len(a.Commodities) == 0 {
		return nil
	}
	for _, c := range a.Commodities {
		if c == commodity {
			return nil
		}
	}
	return ErrCommodityNotAllowed
}
