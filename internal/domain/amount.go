package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal quantity of a single commodity.
type Amount struct {
	Number    decimal.Decimal
	Commodity string
}

// NewAmount builds an Amount from a decimal number and a commodity symbol.
func NewAmount(number decimal.Decimal, commodity string) Amount {
	return Amount{Number: number, Commodity: commodity}
}

// ParseAmount builds an Amount from a decimal string and a commodity symbol.
func ParseAmount(number, commodity string) (Amount, error) {
	n, err := decimal.NewFromString(number)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidNumber, number)
	}
	return Amount{Number: n, Commodity: commodity}, nil
}

// MustAmount is ParseAmount for literals known to be valid. It panics on a
// malformed number and is intended for tests and fixtures.
func MustAmount(number, commodity string) Amount {
	a, err := ParseAmount(number, commodity)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a+b. Both amounts must share a commodity; mixing commodities
// is a programming error, not a data error, and panics.
func (a Amount) Add(b Amount) Amount {
	if a.Commodity != b.Commodity {
		panic(fmt.Sprintf("amount: cannot add %s to %s", b.Commodity, a.Commodity))
	}
	return Amount{Number: a.Number.Add(b.Number), Commodity: a.Commodity}
}

// Sub returns a-b. Both amounts must share a commodity; mixing commodities
// panics, same as Add.
func (a Amount) Sub(b Amount) Amount {
	if a.Commodity != b.Commodity {
		panic(fmt.Sprintf("amount: cannot subtract %s from %s", b.Commodity, a.Commodity))
	}
	return Amount{Number: a.Number.Sub(b.Number), Commodity: a.Commodity}
}

// MulScalar returns the amount scaled by n, keeping the commodity.
func (a Amount) MulScalar(n decimal.Decimal) Amount {
	return Amount{Number: a.Number.Mul(n), Commodity: a.Commodity}
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	return Amount{Number: a.Number.Neg(), Commodity: a.Commodity}
}

// Abs returns the amount with a non-negative number.
func (a Amount) Abs() Amount {
	return Amount{Number: a.Number.Abs(), Commodity: a.Commodity}
}

// IsZero reports whether the number is exactly zero.
func (a Amount) IsZero() bool {
	return a.Number.IsZero()
}

// IsNegative reports whether the number is strictly below zero.
func (a Amount) IsNegative() bool {
	return a.Number.IsNegative()
}

// IsPositive reports whether the number is strictly above zero.
func (a Amount) IsPositive() bool {
	return a.Number.IsPositive()
}

// Equal reports value equality of number and commodity.
func (a Amount) Equal(b Amount) bool {
	return a.Commodity == b.Commodity && a.Number.Equal(b.Number)
}

// String renders the amount as "12.34 USD".
func (a Amount) String() string {
	return a.Number.String() + " " + a.Commodity
}
