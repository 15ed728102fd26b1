package domain

// Lot identifies a matchable inventory unit: a commodity held either at a
// specific cost basis or, when Cost is nil, as a plain costless balance.
type Lot struct {
	Commodity string
	Cost      *Cost
}

// CostLot builds a lot held at cost.
func CostLot(commodity string, cost Cost) Lot {
	return Lot{Commodity: commodity, Cost: &cost}
}

// BalanceLot builds a costless lot for plain balance holdings.
func BalanceLot(commodity string) Lot {
	return Lot{Commodity: commodity}
}

// HasCost reports whether the lot carries a cost basis.
func (l Lot) HasCost() bool {
	return l.Cost != nil
}

// Equal reports lot identity: same commodity and value-equal cost, where two
// nil costs are equal.
func (l Lot) Equal(o Lot) bool {
	if l.Commodity != o.Commodity {
		return false
	}
	if (l.Cost == nil) != (o.Cost == nil) {
		return false
	}
	if l.Cost == nil {
		return true
	}
	return l.Cost.Equal(*o.Cost)
}

// String renders "FOO_X100 {0.80 USD}" or just the commodity for costless lots.
func (l Lot) String() string {
	if l.Cost == nil {
		return l.Commodity
	}
	return l.Commodity + " " + l.Cost.String()
}
