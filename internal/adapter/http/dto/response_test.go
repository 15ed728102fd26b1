package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/usecase"
)

func TestTransactionFromDomain(t *testing.T) {
	costNumber := decimal.RequireFromString("0.80")
	costDate := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	units := domain.NewAmount(decimal.RequireFromString("-50"), "FOO")
	cash := domain.NewAmount(decimal.RequireFromString("40"), "USD")

	booked := &domain.BookedTransaction{
		ID: "txn-1",
		Transaction: domain.Transaction{
			Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Flag:      "*",
			Narration: "sell",
			Postings: []domain.Posting{
				{
					Account: "Assets:Brokerage",
					Units:   &units,
					Cost:    &domain.CostSpec{Number: &costNumber, Currency: "USD", Date: &costDate},
				},
				{Account: "Assets:Cash", Units: &cash},
			},
			Source: domain.SourceLoc{File: "main.journal", Line: 40},
		},
		Reductions: []domain.AccountReduction{
			{
				Account: "Assets:Brokerage",
				Reduction: domain.Reduction{
					Lot: domain.Lot{
						Commodity: "FOO",
						Cost:      &domain.Cost{Amount: domain.NewAmount(costNumber, "USD"), Date: costDate},
					},
					Units:     decimal.RequireFromString("50"),
					CostTotal: domain.NewAmount(decimal.RequireFromString("40"), "USD"),
				},
			},
		},
	}

	got := TransactionFromDomain(booked)
	if got.ID != "txn-1" || got.Flag != "*" {
		t.Fatalf("header = %+v", got)
	}
	if got.Date.Format("2006-01-02") != "2024-06-01" {
		t.Fatalf("date = %s", got.Date)
	}
	if len(got.Postings) != 2 {
		t.Fatalf("postings = %d", len(got.Postings))
	}
	if got.Postings[0].Cost == nil || got.Postings[0].Cost.Number == nil {
		t.Fatalf("cost = %+v", got.Postings[0].Cost)
	}
	if got.Postings[0].Cost.Date == nil || got.Postings[0].Cost.Date.Format("2006-01-02") != "2024-05-01" {
		t.Fatalf("cost date = %+v", got.Postings[0].Cost.Date)
	}
	if len(got.Reductions) != 1 {
		t.Fatalf("reductions = %d", len(got.Reductions))
	}
	red := got.Reductions[0]
	if red.Commodity != "FOO" || !red.Units.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("reduction = %+v", red)
	}
	if !red.CostTotal.Number.Equal(decimal.RequireFromString("40")) || red.CostTotal.Commodity != "USD" {
		t.Fatalf("cost total = %+v", red.CostTotal)
	}
	if got.Source == nil || got.Source.Line != 40 {
		t.Fatalf("source = %+v", got.Source)
	}
}

func TestAccountFromDomain(t *testing.T) {
	opened := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closed := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	acc := domain.NewAccount("Assets:Cash", opened)
	acc.Commodities = []string{"USD"}
	acc.Booking = domain.BookingFIFO
	acc.ClosedAt = &closed
	acc.Inventory.Add("USD", decimal.RequireFromString("120.50"))

	got := AccountFromDomain(acc)
	if got.Name != "Assets:Cash" || got.Booking != "FIFO" {
		t.Fatalf("account = %+v", got)
	}
	if got.ClosedAt == nil || got.ClosedAt.Format("2006-01-02") != "2024-12-31" {
		t.Fatalf("closed_at = %+v", got.ClosedAt)
	}
	if len(got.Balances) != 1 || !got.Balances[0].Number.Equal(decimal.RequireFromString("120.50")) {
		t.Fatalf("balances = %+v", got.Balances)
	}
}

func TestAccountFromDomain_EmptyInventory(t *testing.T) {
	acc := domain.NewAccount("Expenses:Food", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	got := AccountFromDomain(acc)
	if got.Balances == nil || len(got.Balances) != 0 {
		t.Fatalf("balances = %#v, want empty non-nil slice", got.Balances)
	}
	if got.ClosedAt != nil {
		t.Fatalf("closed_at = %+v, want nil", got.ClosedAt)
	}
}

func TestAssertionFromUseCase(t *testing.T) {
	held := AssertionFromUseCase(&usecase.AssertBalanceResult{Padded: true})
	if !held.Ok || !held.Padded || held.Failure != nil {
		t.Fatalf("held = %+v", held)
	}

	failed := AssertionFromUseCase(&usecase.AssertBalanceResult{
		Failure: &domain.AssertionError{
			Account:   "Assets:Checking",
			Commodity: "USD",
			Want:      decimal.RequireFromString("100"),
			Got:       decimal.RequireFromString("90"),
			Date:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	if failed.Ok || failed.Failure == nil {
		t.Fatalf("failed = %+v", failed)
	}
	if !failed.Failure.Got.Equal(decimal.RequireFromString("90")) {
		t.Fatalf("got = %s", failed.Failure.Got)
	}
}

func TestOptionsFromDomain(t *testing.T) {
	opts := domain.Options{
		AutoVivify:     true,
		DefaultBooking: domain.BookingFIFO,
		MaxErrors:      25,
		Tolerance:      domain.NewTolerance().With("USD", decimal.RequireFromString("0.005")),
	}

	got := OptionsFromDomain(opts)
	if !got.AutoVivify || got.DefaultBooking != "FIFO" || got.MaxErrors != 25 {
		t.Fatalf("options = %+v", got)
	}
	if !got.Tolerances["USD"].Equal(decimal.RequireFromString("0.005")) {
		t.Fatalf("tolerances = %+v", got.Tolerances)
	}
}
