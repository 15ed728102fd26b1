package domain

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands the balancer inventories from a plain map, vivifying
// empty ones on demand.
type fakeSource struct {
	inventories map[AccountName]*Inventory
	methods     map[AccountName]BookingMethod
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		inventories: map[AccountName]*Inventory{},
		methods:     map[AccountName]BookingMethod{},
	}
}

func (s *fakeSource) InventoryOf(name AccountName) (*Inventory, BookingMethod, error) {
	inv, ok := s.inventories[name]
	if !ok {
		inv = NewInventory()
		s.inventories[name] = inv
	}
	return inv, s.methods[name], nil
}

// apply installs a booked transaction's staged inventories, standing in for
// the ledger.
func (s *fakeSource) apply(booked *BookedTransaction) {
	for name, inv := range booked.updated {
		s.inventories[name] = inv
	}
}

func units(number, commodity string) *Amount {
	a := MustAmount(number, commodity)
	return &a
}

func costSpec(number, currency string) *CostSpec {
	return &CostSpec{Number: numberPtr(number), Currency: currency}
}

func atPrice(number, currency string) *PriceAnnotation {
	return &PriceAnnotation{Amount: MustAmount(number, currency)}
}

func totalPrice(number, currency string) *PriceAnnotation {
	return &PriceAnnotation{Amount: MustAmount(number, currency), Total: true}
}

func TestBalancer_ExplicitBalancedTransaction(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)
	source := newFakeSource()

	booked, err := b.Book(Transaction{
		Date:      date("2024-03-01"),
		Narration: "groceries",
		Postings: []Posting{
			{Account: "Expenses:Food", Units: units("34.50", "USD")},
			{Account: "Assets:Cash", Units: units("-34.50", "USD")},
		},
	}, source)

	require.NoError(t, err)
	require.Len(t, booked.Postings, 2)

	source.apply(booked)
	assert.True(t, source.inventories["Expenses:Food"].BalanceOf("USD").Equal(qty("34.50")))
	assert.True(t, source.inventories["Assets:Cash"].BalanceOf("USD").Equal(qty("-34.50")))
}

func TestBalancer_InfersElidedAmount(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)

	booked, err := b.Book(Transaction{
		Date:      date("2024-03-01"),
		Narration: "salary",
		Postings: []Posting{
			{Account: "Income:Salary", Units: units("-10000", "USD")},
			{Account: "Expenses:Taxes", Units: units("3600", "USD")},
			{Account: "Assets:Checking"}, // elided
		},
	}, newFakeSource())

	require.NoError(t, err)
	require.Len(t, booked.Postings, 3)

	filled := booked.Postings[2]
	assert.Equal(t, AccountName("Assets:Checking"), filled.Account)
	require.NotNil(t, filled.Units)
	assert.True(t, filled.Units.Equal(MustAmount("6400", "USD")))

	// Re-deriving the weights from the booked postings sums to zero.
	total := decimal.Zero
	for i := range booked.Postings {
		w, err := booked.Postings[i].Weight()
		require.NoError(t, err)
		total = total.Add(w.Number)
	}
	assert.True(t, total.IsZero())
}

func TestBalancer_ElidedFillsPerCurrency(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)

	booked, err := b.Book(Transaction{
		Date:      date("2024-03-02"),
		Narration: "cross-currency settlement",
		Postings: []Posting{
			{Account: "Assets:US:Checking", Units: units("-5000", "USD")},
			{Account: "Assets:CA:Checking", Units: units("6000", "CAD")},
			{Account: "Equity:Conversions"}, // elided, absorbs both residuals
		},
	}, newFakeSource())

	require.NoError(t, err)
	require.Len(t, booked.Postings, 4, "one filled posting per unbalanced currency")

	var currencies []string
	for _, p := range booked.Postings[2:] {
		currencies = append(currencies, p.Units.Commodity)
	}
	assert.Equal(t, []string{"CAD", "USD"}, currencies)
}

func TestBalancer_ElisionFailures(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)

	_, err := b.Book(Transaction{
		Date: date("2024-03-01"),
		Postings: []Posting{
			{Account: "Assets:A", Units: units("10", "USD")},
			{Account: "Assets:B"},
			{Account: "Assets:C"},
		},
	}, newFakeSource())
	assert.ErrorIs(t, err, ErrAmbiguousElision)

	_, err = b.Book(Transaction{
		Date: date("2024-03-01"),
		Postings: []Posting{
			{Account: "Assets:A"},
		},
	}, newFakeSource())
	assert.ErrorIs(t, err, ErrNoSolution)

	_, err = b.Book(Transaction{Date: date("2024-03-01")}, newFakeSource())
	assert.ErrorIs(t, err, ErrNoPostings)
}

func TestBalancer_UnbalancedTransaction(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)
	source := newFakeSource()

	_, err := b.Book(Transaction{
		Date:      date("2024-03-01"),
		Narration: "book-keeping slip",
		Postings: []Posting{
			{Account: "Expenses:Food", Units: units("35.00", "USD")},
			{Account: "Assets:Cash", Units: units("-34.50", "USD")},
		},
	}, source)

	require.ErrorIs(t, err, ErrUnbalancedTransaction)

	var unbalanced *UnbalancedError
	require.ErrorAs(t, err, &unbalanced)
	residual, ok := unbalanced.Residuals["USD"]
	require.True(t, ok)
	assert.True(t, residual.Equal(qty("0.50")))

	for name, inv := range source.inventories {
		assert.True(t, inv.IsEmpty(), "failed booking must not leave state in %s", name)
	}
}

func TestBalancer_ToleranceAbsorbsRounding(t *testing.T) {
	tol := NewTolerance().With("USD", decimal.NewFromFloat(0.005))
	b := NewBalancer(tol, BookingFIFO)

	_, err := b.Book(Transaction{
		Date: date("2024-03-01"),
		Postings: []Posting{
			{Account: "Assets:A", Units: units("33.333", "USD")},
			{Account: "Assets:B", Units: units("-33.33", "USD")},
		},
	}, newFakeSource())

	assert.NoError(t, err, "residual 0.003 within the 0.005 epsilon")
}

func TestBalancer_PriceAnnotationSetsWeight(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)

	booked, err := b.Book(Transaction{
		Date:      date("2024-03-02"),
		Narration: "buy CAD",
		Postings: []Posting{
			{Account: "Assets:US:Checking", Units: units("-5000", "USD")},
			{Account: "Assets:CA:Checking", Units: units("6000", "CAD"), Price: atPrice("0.8333333333333333", "USD")},
		},
	}, newFakeSource())

	require.Error(t, err, "5000 vs 4999.99... must fail on exact tolerance")

	tol := NewTolerance().With("USD", decimal.NewFromFloat(0.01))
	b = NewBalancer(tol, BookingFIFO)
	booked, err = b.Book(Transaction{
		Date: date("2024-03-02"),
		Postings: []Posting{
			{Account: "Assets:US:Checking", Units: units("-5000", "USD")},
			{Account: "Assets:CA:Checking", Units: units("6000", "CAD"), Price: atPrice("0.8333333333333333", "USD")},
		},
	}, newFakeSource())
	require.NoError(t, err)

	// The annotation contributes an implicit price point.
	require.Len(t, booked.ImplicitPrices, 1)
	assert.Equal(t, "CAD", booked.ImplicitPrices[0].Base)
	assert.Equal(t, "USD", booked.ImplicitPrices[0].Quote)
}

func TestBalancer_TotalPriceAnnotation(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)

	booked, err := b.Book(Transaction{
		Date:      date("2024-03-02"),
		Narration: "sold euros",
		Postings: []Posting{
			{Account: "Assets:EUR", Units: units("-100", "EUR"), Price: totalPrice("108.40", "USD")},
			{Account: "Assets:USD", Units: units("108.40", "USD")},
		},
	}, newFakeSource())

	require.NoError(t, err)

	// Implicit rate is total divided by unit magnitude.
	require.Len(t, booked.ImplicitPrices, 1)
	assert.True(t, booked.ImplicitPrices[0].Rate.Equal(qty("1.084")))
}

func TestBalancer_AugmentCreatesLot(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)
	source := newFakeSource()

	booked, err := b.Book(Transaction{
		Date:      date("2024-05-01"),
		Narration: "buy options",
		Postings: []Posting{
			{Account: "Assets:Options", Units: units("8", "FOO_X100"), Cost: costSpec("0.80", "USD")},
			{Account: "Assets:Cash", Units: units("-6.40", "USD")},
		},
	}, source)

	require.NoError(t, err)
	source.apply(booked)

	positions := source.inventories["Assets:Options"].Positions()
	require.Len(t, positions, 1)
	assert.True(t, positions[0].Units.Equal(qty("8")))
	require.True(t, positions[0].Lot.HasCost())
	assert.True(t, positions[0].Lot.Cost.Amount.Equal(MustAmount("0.80", "USD")))
	assert.True(t, positions[0].Lot.Cost.Date.Equal(date("2024-05-01")), "acquisition date defaults to the transaction date")
}

func TestBalancer_ReduceSplitsPerLot(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)
	source := newFakeSource()
	inv := NewInventory()
	require.NoError(t, inv.Augment(CostLot("GOOG", costAt("500", "USD", "2024-01-10")), qty("10")))
	require.NoError(t, inv.Augment(CostLot("GOOG", costAt("510", "USD", "2024-02-10")), qty("10")))
	source.inventories["Assets:Brokerage"] = inv

	booked, err := b.Book(Transaction{
		Date:      date("2024-03-01"),
		Narration: "sell across lots",
		Postings: []Posting{
			{Account: "Assets:Brokerage", Units: units("-12", "GOOG"), Cost: &CostSpec{Empty: true}},
			{Account: "Assets:Cash", Units: units("6200", "USD")},
			{Account: "Income:Gains"}, // elided: realized gain
		},
	}, source)

	require.NoError(t, err)
	require.Len(t, booked.Reductions, 2)

	// Weights: -(10*500 + 2*510) = -6020; cash +6200; gain fills -180.
	gain := booked.Postings[len(booked.Postings)-1]
	assert.Equal(t, AccountName("Income:Gains"), gain.Account)
	assert.True(t, gain.Units.Equal(MustAmount("-180", "USD")))

	// The reducing posting is split per consumed lot with its cost pinned.
	var splitUnits []string
	for _, p := range booked.Postings {
		if p.Account == "Assets:Brokerage" {
			splitUnits = append(splitUnits, fmt.Sprintf("%s@%s", p.Units.Number, *p.Cost.Number))
		}
	}
	assert.Equal(t, []string{"-10@500", "-2@510"}, splitUnits)
}

// The worked option-contract scenario: acquire 8 contracts at 0.80, exercise
// 4 of them into stock at 120.00, then sell the stock at 121.00.
func TestBalancer_OptionExerciseScenario(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)
	source := newFakeSource()

	buy := Transaction{
		Date:      date("2024-05-01"),
		Narration: "buy 8 calls",
		Postings: []Posting{
			{Account: "Assets:Options", Units: units("8", "FOO_X100"), Cost: costSpec("0.80", "USD")},
			{Account: "Assets:Cash", Units: units("-6.40", "USD")},
		},
	}
	booked, err := b.Book(buy, source)
	require.NoError(t, err)
	source.apply(booked)

	exercise := Transaction{
		Date:      date("2024-06-15"),
		Narration: "exercise 4 calls",
		Postings: []Posting{
			{Account: "Assets:Options", Units: units("-4", "FOO_X100"), Cost: costSpec("0.80", "USD"), Price: atPrice("120.00", "USD")},
			{Account: "Expenses:Fees", Units: units("3.20", "USD")},
			{Account: "Assets:Stock", Units: units("4", "FOO"), Cost: costSpec("120.00", "USD")},
			{Account: "Assets:Cash", Units: units("-400.00", "USD")},
			{Account: "Income:Gains", Units: units("-80.00", "USD")},
		},
	}
	booked, err = b.Book(exercise, source)
	require.NoError(t, err, "USD weight group must balance to zero")
	source.apply(booked)

	// 4 contracts remain at cost 0.80.
	options := source.inventories["Assets:Options"].Positions()
	require.Len(t, options, 1)
	assert.True(t, options[0].Units.Equal(qty("4")))
	assert.True(t, options[0].Lot.Cost.Amount.Equal(MustAmount("0.80", "USD")))

	sell := Transaction{
		Date:      date("2024-07-20"),
		Narration: "sell the stock",
		Postings: []Posting{
			{Account: "Assets:Stock", Units: units("-4", "FOO"), Cost: costSpec("120.00", "USD"), Price: atPrice("121.00", "USD")},
			{Account: "Assets:Cash", Units: units("484.00", "USD")},
			{Account: "Income:Gains", Units: units("-4.00", "USD")},
		},
	}
	booked, err = b.Book(sell, source)
	require.NoError(t, err)
	source.apply(booked)

	assert.False(t, source.inventories["Assets:Stock"].HasCostLots("FOO"), "no FOO lots remain after the sale")
	assert.True(t, source.inventories["Assets:Cash"].BalanceOf("USD").Equal(qty("77.60")))
}

func TestBalancer_ReduceFailureIsAtomic(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)
	source := newFakeSource()
	inv := NewInventory()
	require.NoError(t, inv.Augment(CostLot("GOOG", costAt("500", "USD", "2024-01-10")), qty("10")))
	source.inventories["Assets:Brokerage"] = inv

	_, err := b.Book(Transaction{
		Date:      date("2024-03-01"),
		Narration: "oversell",
		Postings: []Posting{
			{Account: "Assets:Brokerage", Units: units("-12", "GOOG"), Cost: &CostSpec{Empty: true}},
			{Account: "Assets:Cash", Units: units("6000", "USD")},
		},
	}, source)

	require.ErrorIs(t, err, ErrInsufficientLots)
	assert.True(t, source.inventories["Assets:Brokerage"].BalanceOf("GOOG").Equal(qty("10")),
		"the live inventory must be untouched after a failed booking")
}

func TestBalancer_ElidedPostingCannotCarryCostOrPrice(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)

	_, err := b.Book(Transaction{
		Date: date("2024-03-01"),
		Postings: []Posting{
			{Account: "Assets:A", Units: units("10", "USD")},
			{Account: "Assets:B", Price: atPrice("1.2", "CAD")},
		},
	}, newFakeSource())

	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestBalancer_AccountBookingMethodOverride(t *testing.T) {
	b := NewBalancer(NewTolerance(), BookingFIFO)
	source := newFakeSource()
	inv := NewInventory()
	require.NoError(t, inv.Augment(CostLot("GOOG", costAt("500", "USD", "2024-01-10")), qty("10")))
	require.NoError(t, inv.Augment(CostLot("GOOG", costAt("510", "USD", "2024-02-10")), qty("10")))
	source.inventories["Assets:Brokerage"] = inv
	source.methods["Assets:Brokerage"] = BookingLIFO

	booked, err := b.Book(Transaction{
		Date:      date("2024-03-01"),
		Narration: "sell with account override",
		Postings: []Posting{
			{Account: "Assets:Brokerage", Units: units("-5", "GOOG"), Cost: &CostSpec{Empty: true}},
			{Account: "Assets:Cash", Units: units("2550", "USD")},
		},
	}, source)

	require.NoError(t, err)
	require.Len(t, booked.Reductions, 1)
	assert.True(t, booked.Reductions[0].Reduction.Lot.Cost.Date.Equal(date("2024-02-10")),
		"account-level LIFO override must win over the ledger default")
}

func TestParseBookingMethod(t *testing.T) {
	for _, valid := range []string{"STRICT", "FIFO", "LIFO", "AVERAGE"} {
		got, err := ParseBookingMethod(valid)
		require.NoError(t, err)
		assert.Equal(t, BookingMethod(valid), got)
	}

	got, err := ParseBookingMethod("")
	require.NoError(t, err)
	assert.Equal(t, BookingFIFO, got, "empty defaults to FIFO")

	_, err = ParseBookingMethod("NEWEST")
	assert.Error(t, err)
}
