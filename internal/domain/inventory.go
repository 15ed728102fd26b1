package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Position is one inventory entry: a lot and its remaining quantity.
type Position struct {
	Lot   Lot
	Units decimal.Decimal
}

// Reduction records one lot consumption: which lot, how many units, and the
// realized cost total those units carried.
type Reduction struct {
	Lot       Lot
	Units     decimal.Decimal
	CostTotal Amount
}

// Inventory is the set of lots held by one account. Entries keep insertion
// order so same-date lots reduce deterministically. A quantity that reaches
// exactly zero removes its entry.
type Inventory struct {
	positions []Position
}

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{}
}

// Augment acquires quantity units of a lot held at cost. Quantity must be
// positive; an existing entry for an equal lot absorbs the units.
func (inv *Inventory) Augment(lot Lot, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: augment quantity %s", ErrNonPositiveQuantity, quantity)
	}
	if !lot.HasCost() {
		return fmt.Errorf("%w: lot %s has no cost", ErrInvalidLot, lot)
	}
	inv.add(lot, quantity)
	return nil
}

// Add applies a signed plain balance movement for a commodity, outside lot
// bookkeeping. Costless balances may go negative.
func (inv *Inventory) Add(commodity string, quantity decimal.Decimal) {
	inv.add(BalanceLot(commodity), quantity)
}

func (inv *Inventory) add(lot Lot, quantity decimal.Decimal) {
	for i := range inv.positions {
		if inv.positions[i].Lot.Equal(lot) {
			inv.positions[i].Units = inv.positions[i].Units.Add(quantity)
			if inv.positions[i].Units.IsZero() {
				inv.remove(i)
			}
			return
		}
	}
	if quantity.IsZero() {
		return
	}
	inv.positions = append(inv.positions, Position{Lot: lot, Units: quantity})
}

func (inv *Inventory) remove(i int) {
	inv.positions = append(inv.positions[:i], inv.positions[i+1:]...)
}

// Reduce consumes quantity units of a commodity from lots held at cost.
// Quantity is the magnitude of a negative posting and must be positive.
//
// Resolution order: a spec carrying a cost number pins lots exactly and fails
// with ErrNoSuchLot when nothing (or not enough, or more than one lot)
// matches, never spilling over into other lots. A wildcard spec selects lots
// by the booking method: STRICT demands a single unambiguous match, FIFO and
// LIFO consume across lots in acquisition-date order, AVERAGE first collapses
// the commodity's lots into one synthetic lot at the weighted-average cost.
//
// Every successful reduce reports the consumed (lot, units, realized cost)
// records. The inventory is unchanged when an error is returned.
func (inv *Inventory) Reduce(commodity string, quantity decimal.Decimal, spec *CostSpec, method BookingMethod) ([]Reduction, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: reduce quantity %s", ErrNonPositiveQuantity, quantity)
	}

	candidates := inv.matchingLots(commodity, spec)

	if spec != nil && !spec.IsWildcard() {
		return inv.reducePinned(commodity, quantity, spec, candidates)
	}

	switch method {
	case BookingStrict:
		return inv.reduceStrict(commodity, quantity, candidates)
	case BookingLIFO:
		return inv.reduceOrdered(commodity, quantity, candidates, false)
	case BookingAverage:
		return inv.reduceAverage(commodity, quantity, candidates)
	default: // FIFO
		return inv.reduceOrdered(commodity, quantity, candidates, true)
	}
}

// matchingLots returns indexes of cost-bearing positions of the commodity
// that satisfy the given parts of the spec, in insertion order.
func (inv *Inventory) matchingLots(commodity string, spec *CostSpec) []int {
	var idx []int
	for i, p := range inv.positions {
		if p.Lot.Commodity != commodity || !p.Lot.HasCost() {
			continue
		}
		if spec != nil && !spec.Matches(*p.Lot.Cost) {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

func (inv *Inventory) reducePinned(commodity string, quantity decimal.Decimal, spec *CostSpec, candidates []int) ([]Reduction, error) {
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: no lot of %s matches %s", ErrNoSuchLot, commodity, spec.Cost().String())
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d lots of %s match %s", ErrAmbiguousLotMatch, len(candidates), commodity, spec.Cost().String())
	}
	i := candidates[0]
	if inv.positions[i].Units.LessThan(quantity) {
		return nil, fmt.Errorf("%w: lot %s holds %s, need %s",
			ErrNoSuchLot, inv.positions[i].Lot, inv.positions[i].Units, quantity)
	}
	return []Reduction{inv.consume(i, quantity)}, nil
}

func (inv *Inventory) reduceStrict(commodity string, quantity decimal.Decimal, candidates []int) ([]Reduction, error) {
	switch len(candidates) {
	case 0:
		return nil, fmt.Errorf("%w: no lot of %s held", ErrNoSuchLot, commodity)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d lots of %s held, reduction must pin one", ErrAmbiguousLotMatch, len(candidates), commodity)
	}
	i := candidates[0]
	if inv.positions[i].Units.LessThan(quantity) {
		return nil, fmt.Errorf("%w: lot %s holds %s, need %s",
			ErrInsufficientLots, inv.positions[i].Lot, inv.positions[i].Units, quantity)
	}
	return []Reduction{inv.consume(i, quantity)}, nil
}

// reduceOrdered consumes across candidate lots in acquisition-date order,
// oldest first for FIFO and newest first for LIFO. Dateless lots count as
// oldest; insertion order breaks ties.
func (inv *Inventory) reduceOrdered(commodity string, quantity decimal.Decimal, candidates []int, oldestFirst bool) ([]Reduction, error) {
	if total := inv.totalUnits(candidates); total.LessThan(quantity) {
		return nil, fmt.Errorf("%w: %s of %s held, need %s", ErrInsufficientLots, total, commodity, quantity)
	}

	ordered := append([]int(nil), candidates...)
	sort.SliceStable(ordered, func(a, b int) bool {
		da := inv.positions[ordered[a]].Lot.Cost.Date
		db := inv.positions[ordered[b]].Lot.Cost.Date
		if oldestFirst {
			return da.Before(db)
		}
		return da.After(db)
	})

	var reductions []Reduction
	remaining := quantity
	for _, i := range ordered {
		if remaining.IsZero() {
			break
		}
		take := decimal.Min(remaining, inv.positions[i].Units)
		reductions = append(reductions, Reduction{
			Lot:       inv.positions[i].Lot,
			Units:     take,
			CostTotal: inv.positions[i].Lot.Cost.Amount.MulScalar(take),
		})
		remaining = remaining.Sub(take)
	}

	// Mutate only after the whole request is satisfiable.
	for _, r := range reductions {
		inv.add(r.Lot, r.Units.Neg())
	}
	return reductions, nil
}

// reduceAverage collapses all candidate lots into one synthetic lot carrying
// the weighted-average unit cost, then decrements it.
func (inv *Inventory) reduceAverage(commodity string, quantity decimal.Decimal, candidates []int) ([]Reduction, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no lot of %s held", ErrNoSuchLot, commodity)
	}

	costCurrency := inv.positions[candidates[0]].Lot.Cost.Amount.Commodity
	totalUnits := decimal.Zero
	totalCost := decimal.Zero
	for _, i := range candidates {
		cost := inv.positions[i].Lot.Cost
		if cost.Amount.Commodity != costCurrency {
			return nil, fmt.Errorf("%w: %s lots carry mixed cost commodities %s and %s",
				ErrAmbiguousLotMatch, commodity, costCurrency, cost.Amount.Commodity)
		}
		totalUnits = totalUnits.Add(inv.positions[i].Units)
		totalCost = totalCost.Add(cost.Amount.Number.Mul(inv.positions[i].Units))
	}
	if totalUnits.LessThan(quantity) {
		return nil, fmt.Errorf("%w: %s of %s held, need %s", ErrInsufficientLots, totalUnits, commodity, quantity)
	}

	average := CostLot(commodity, Cost{Amount: Amount{
		Number:    totalCost.Div(totalUnits),
		Commodity: costCurrency,
	}})

	// Replace the matched lots with the merged one, then consume from it.
	sort.Sort(sort.Reverse(sort.IntSlice(candidates)))
	for _, i := range candidates {
		inv.remove(i)
	}
	inv.add(average, totalUnits.Sub(quantity))

	return []Reduction{{
		Lot:       average,
		Units:     quantity,
		CostTotal: average.Cost.Amount.MulScalar(quantity),
	}}, nil
}

// consume removes quantity units from position i and reports the reduction.
func (inv *Inventory) consume(i int, quantity decimal.Decimal) Reduction {
	r := Reduction{
		Lot:       inv.positions[i].Lot,
		Units:     quantity,
		CostTotal: inv.positions[i].Lot.Cost.Amount.MulScalar(quantity),
	}
	inv.add(inv.positions[i].Lot, quantity.Neg())
	return r
}

func (inv *Inventory) totalUnits(idx []int) decimal.Decimal {
	total := decimal.Zero
	for _, i := range idx {
		total = total.Add(inv.positions[i].Units)
	}
	return total
}

// HasCostLots reports whether the inventory holds any cost-bearing lot of
// the commodity. Negative postings in such commodities must reduce lots.
func (inv *Inventory) HasCostLots(commodity string) bool {
	for _, p := range inv.positions {
		if p.Lot.Commodity == commodity && p.Lot.HasCost() {
			return true
		}
	}
	return false
}

// BalanceOf sums units of a commodity across every lot, costless included.
func (inv *Inventory) BalanceOf(commodity string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range inv.positions {
		if p.Lot.Commodity == commodity {
			total = total.Add(p.Units)
		}
	}
	return total
}

// Commodities returns the distinct commodities held, in insertion order.
func (inv *Inventory) Commodities() []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range inv.positions {
		if !seen[p.Lot.Commodity] {
			seen[p.Lot.Commodity] = true
			out = append(out, p.Lot.Commodity)
		}
	}
	return out
}

// Positions returns a snapshot copy of all entries in insertion order.
func (inv *Inventory) Positions() []Position {
	return append([]Position(nil), inv.positions...)
}

// IsEmpty reports whether no entries remain.
func (inv *Inventory) IsEmpty() bool {
	return len(inv.positions) == 0
}

// Clone returns a deep copy. Booking stages reductions against clones so a
// failed transaction leaves the live inventory untouched.
func (inv *Inventory) Clone() *Inventory {
	return &Inventory{positions: append([]Position(nil), inv.positions...)}
}

// String renders entries as "(4 FOO_X100 {0.80 USD}, 100 USD)".
func (inv *Inventory) String() string {
	parts := make([]string, 0, len(inv.positions))
	for _, p := range inv.positions {
		parts = append(parts, p.Units.String()+" "+p.Lot.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
