package domain

import "github.com/shopspring/decimal"

// Tolerance holds the per-commodity epsilon used for zero-sum and balance
// assertion checks. The default is exact zero.
type Tolerance struct {
	Default      decimal.Decimal
	PerCommodity map[string]decimal.Decimal
}

// NewTolerance returns a tolerance requiring exact balance in every commodity.
func NewTolerance() Tolerance {
	return Tolerance{PerCommodity: map[string]decimal.Decimal{}}
}

// With returns a copy of t with an override for one commodity.
func (t Tolerance) With(commodity string, eps decimal.Decimal) Tolerance {
	per := make(map[string]decimal.Decimal, len(t.PerCommodity)+1)
	for c, e := range t.PerCommodity {
		per[c] = e
	}
	per[commodity] = eps
	return Tolerance{Default: t.Default, PerCommodity: per}
}

// For returns the epsilon for a commodity, falling back to the default.
func (t Tolerance) For(commodity string) decimal.Decimal {
	if eps, ok := t.PerCommodity[commodity]; ok {
		return eps
	}
	return t.Default
}

// WithinTolerance reports whether n is zero for balancing purposes in the
// given commodity.
func (t Tolerance) WithinTolerance(commodity string, n decimal.Decimal) bool {
	return n.Abs().LessThanOrEqual(t.For(commodity).Abs())
}
