package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one dated price for a base commodity quoted in another.
// Implicit points come from transaction costs and price annotations rather
// than explicit price directives.
type PricePoint struct {
	Date     time.Time
	Base     string
	Quote    string
	Rate     decimal.Decimal
	Implicit bool
}

type pricePair struct {
	base  string
	quote string
}

// PriceMap accumulates dated prices per (base, quote) pair and answers
// point-in-time lookups by carrying the latest price forward.
type PriceMap struct {
	series map[pricePair][]PricePoint
}

// NewPriceMap returns an empty price table.
func NewPriceMap() *PriceMap {
	return &PriceMap{series: map[pricePair][]PricePoint{}}
}

// Add records a price point. A point for the same date and pair with a
// different rate is kept but reported through ErrDisagreeingPrice so the
// caller can surface the conflict; an equal duplicate is dropped silently.
func (m *PriceMap) Add(p PricePoint) error {
	key := pricePair{base: p.Base, quote: p.Quote}
	series := m.series[key]

	var disagrees *PricePoint
	for i := range series {
		if !series[i].Date.Equal(p.Date) {
			continue
		}
		if series[i].Rate.Equal(p.Rate) {
			return nil
		}
		disagrees = &series[i]
	}

	i := sort.Search(len(series), func(i int) bool { return series[i].Date.After(p.Date) })
	series = append(series, PricePoint{})
	copy(series[i+1:], series[i:])
	series[i] = p
	m.series[key] = series

	if disagrees != nil {
		return fmt.Errorf("%w: %s/%s on %s: %s vs %s",
			ErrDisagreeingPrice, p.Base, p.Quote,
			p.Date.Format("2006-01-02"), disagrees.Rate, p.Rate)
	}
	return nil
}

// Lookup returns the latest price point for base quoted in quote on or
// before date.
func (m *PriceMap) Lookup(base, quote string, date time.Time) (PricePoint, bool) {
	series := m.series[pricePair{base: base, quote: quote}]
	i := sort.Search(len(series), func(i int) bool { return series[i].Date.After(date) })
	if i == 0 {
		return PricePoint{}, false
	}
	return series[i-1], true
}

// Series returns the dated points for a pair in ascending date order.
func (m *PriceMap) Series(base, quote string) []PricePoint {
	return append([]PricePoint(nil), m.series[pricePair{base: base, quote: quote}]...)
}

// Pairs lists the known (base, quote) pairs in lexical order.
func (m *PriceMap) Pairs() [][2]string {
	out := make([][2]string, 0, len(m.series))
	for key := range m.series {
		out = append(out, [2]string{key.base, key.quote})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}
