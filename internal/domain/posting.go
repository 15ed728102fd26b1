package domain

// PriceAnnotation is a conversion rate attached to a posting: per-unit for
// the "@" form, a signed-total for the "@@" form. It affects only the
// posting's balancing weight, never inventory state.
type PriceAnnotation struct {
	Amount Amount
	Total  bool
}

// Posting is one leg of a transaction. A nil Units means the amount is
// elided and left for the balancer to infer.
type Posting struct {
	Account  AccountName
	Units    *Amount
	Cost     *CostSpec
	Price    *PriceAnnotation
	Flag     string
	Metadata map[string]any
}

// Elided reports whether the posting's amount is left to inference.
func (p *Posting) Elided() bool {
	return p.Units == nil
}

// WeightCurrency returns the currency the posting balances in: the cost
// commodity when a complete cost is present, else the price commodity, else
// the posting's own. A price never overrides a cost. Elided postings and
// wildcard costs return "" until the balancer resolves them.
func (p *Posting) WeightCurrency() string {
	if p.Cost != nil {
		if p.Cost.IsWildcard() {
			return ""
		}
		return p.Cost.Currency
	}
	if p.Price != nil {
		return p.Price.Amount.Commodity
	}
	if p.Units != nil {
		return p.Units.Commodity
	}
	return ""
}

// Weight computes the posting's contribution to the zero-sum check: units
// times the cost rate when a cost is present, else units times the price
// rate (or the signed total for a total price), else the units themselves.
// Elided units and unresolved wildcard costs have no weight yet; the
// balancer derives those from inference and from matched lots.
func (p *Posting) Weight() (Amount, error) {
	if p.Units == nil {
		return Amount{}, ErrElidedAmount
	}
	if p.Cost != nil {
		if p.Cost.IsWildcard() {
			return Amount{}, ErrUnresolvedCost
		}
		cost := p.Cost.Cost()
		return cost.Amount.MulScalar(p.Units.Number), nil
	}
	if p.Price != nil {
		if p.Price.Total {
			total := p.Price.Amount
			if p.Units.IsNegative() {
				return total.Neg(), nil
			}
			return total, nil
		}
		return p.Price.Amount.MulScalar(p.Units.Number), nil
	}
	return *p.Units, nil
}

// WithUnits returns a copy of the posting with explicit units.
func (p Posting) WithUnits(units Amount) Posting {
	p.Units = &units
	return p
}

// WithCost returns a copy of the posting pinned to a concrete cost.
func (p Posting) WithCost(cost Cost) Posting {
	number := cost.Amount.Number
	spec := &CostSpec{
		Number:   &number,
		Currency: cost.Amount.Commodity,
		Label:    cost.Label,
	}
	if !cost.Date.IsZero() {
		date := cost.Date
		spec.Date = &date
	}
	p.Cost = spec
	return p
}
