package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cost is the per-unit acquisition basis attached to a lot: a unit price in
// the cost commodity plus an optional acquisition date and label.
type Cost struct {
	Amount Amount
	Date   time.Time // zero when unspecified
	Label  string
}

// Equal reports value equality: unit amount, cost commodity, date and label
// must all match.
func (c Cost) Equal(o Cost) bool {
	return c.Amount.Equal(o.Amount) && c.Date.Equal(o.Date) && c.Label == o.Label
}

// String renders the cost as "{0.80 USD, 2024-05-01, \"first\"}", omitting
// the parts that are unset.
func (c Cost) String() string {
	var b strings.Builder
	b.WriteString("{")
	b.WriteString(c.Amount.String())
	if !c.Date.IsZero() {
		b.WriteString(", ")
		b.WriteString(c.Date.Format("2006-01-02"))
	}
	if c.Label != "" {
		b.WriteString(`, "`)
		b.WriteString(c.Label)
		b.WriteString(`"`)
	}
	b.WriteString("}")
	return b.String()
}

// CostSpec is the cost clause carried by a posting. A nil *CostSpec means the
// posting has no cost clause at all. A spec with only Empty set is the
// wildcard form, valid on reductions, which defers lot selection to the
// account's booking method. A spec carrying a number pins lots exactly.
type CostSpec struct {
	Number   *decimal.Decimal // per-unit cost number
	Currency string
	Date     *time.Time
	Label    string
	Empty    bool // "{}": match by booking method
}

// IsWildcard reports whether the spec leaves lot selection to the booking
// method rather than pinning a lot.
func (s *CostSpec) IsWildcard() bool {
	return s == nil || s.Empty || s.Number == nil
}

// Cost materializes a complete spec into the Cost it pins or creates. The
// spec must carry a number and currency.
func (s *CostSpec) Cost() Cost {
	c := Cost{Amount: Amount{Number: *s.Number, Commodity: s.Currency}, Label: s.Label}
	if s.Date != nil {
		c.Date = *s.Date
	}
	return c
}

// Matches reports whether a held cost satisfies the spec's given parts. Parts
// the spec leaves out match anything.
func (s *CostSpec) Matches(c Cost) bool {
	if s == nil || s.Empty {
		return true
	}
	if s.Number != nil && !s.Number.Equal(c.Amount.Number) {
		return false
	}
	if s.Currency != "" && s.Currency != c.Amount.Commodity {
		return false
	}
	if s.Date != nil && !s.Date.Equal(c.Date) {
		return false
	}
	if s.Label != "" && s.Label != c.Label {
		return false
	}
	return true
}
