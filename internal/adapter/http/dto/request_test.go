package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "valid", in: `"2024-05-01"`, want: "2024-05-01"},
		{name: "empty means zero", in: `""`, want: "0001-01-01"},
		{name: "null means zero", in: `null`, want: "0001-01-01"},
		{name: "datetime rejected", in: `"2024-05-01T10:00:00Z"`, wantErr: true},
		{name: "garbage rejected", in: `"yesterday"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := d.Format("2006-01-02"); got != tt.want {
				t.Fatalf("parsed %s, want %s", got, tt.want)
			}
		})
	}

	out, err := json.Marshal(NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-05-01"` {
		t.Fatalf("marshal = %s, want %q", out, "2024-05-01")
	}
}

func TestOpenAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &OpenAccountRequest{
		Date:        NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Account:     "Assets:Brokerage",
		Commodities: []string{"FOO", "USD"},
		Booking:     "LIFO",
		Metadata:    map[string]any{"desk": "equities"},
		Source:      &SourceRef{File: "main.journal", Line: 12},
	}

	got := req.ToUseCaseInput()
	if got.Account != "Assets:Brokerage" || got.Booking != "LIFO" {
		t.Fatalf("ToUseCaseInput() = %+v", got)
	}
	if len(got.Commodities) != 2 || got.Commodities[0] != "FOO" {
		t.Fatalf("commodities = %v", got.Commodities)
	}
	if got.Source.File != "main.journal" || got.Source.Line != 12 {
		t.Fatalf("source = %+v", got.Source)
	}
	if !got.Date.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %s", got.Date)
	}
}

func TestSubmitTransactionRequest_ToUseCaseInput(t *testing.T) {
	costNumber := decimal.RequireFromString("0.80")
	costDate := NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	req := &SubmitTransactionRequest{
		Date:      NewDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		Narration: "sell at cost",
		Postings: []PostingPayload{
			{
				Account: "Assets:Brokerage",
				Units:   &AmountPayload{Number: decimal.RequireFromString("-50"), Commodity: "FOO"},
				Cost:    &CostPayload{Number: &costNumber, Currency: "USD", Date: &costDate, Label: "first"},
				Price:   &PricePayload{Number: decimal.RequireFromString("1.10"), Commodity: "USD", Total: false},
			},
			{Account: "Assets:Cash"},
		},
		Tags: []string{"trip"},
	}

	got := req.ToUseCaseInput()
	if got.Flag != "" || got.Narration != "sell at cost" {
		t.Fatalf("header = %+v", got)
	}
	if len(got.Postings) != 2 {
		t.Fatalf("postings = %d, want 2", len(got.Postings))
	}

	first := got.Postings[0]
	if first.Units == nil || !first.Units.Number.Equal(decimal.RequireFromString("-50")) {
		t.Fatalf("units = %+v", first.Units)
	}
	if first.Cost == nil || first.Cost.Number == nil || !first.Cost.Number.Equal(costNumber) {
		t.Fatalf("cost = %+v", first.Cost)
	}
	if first.Cost.Date == nil || !first.Cost.Date.Equal(costDate.Time) {
		t.Fatalf("cost date = %v", first.Cost.Date)
	}
	if first.Price == nil || first.Price.Total {
		t.Fatalf("price = %+v", first.Price)
	}

	second := got.Postings[1]
	if second.Units != nil {
		t.Fatalf("expected elided units, got %+v", second.Units)
	}
	if second.Cost != nil || second.Price != nil {
		t.Fatalf("expected bare posting, got %+v", second)
	}
}

func TestPostingPayload_WildcardCost(t *testing.T) {
	p := &PostingPayload{
		Account: "Assets:Brokerage",
		Units:   &AmountPayload{Number: decimal.RequireFromString("-10"), Commodity: "FOO"},
		Cost:    &CostPayload{Empty: true},
	}

	got := p.toInput()
	if got.Cost == nil || !got.Cost.Empty || got.Cost.Number != nil {
		t.Fatalf("cost = %+v, want empty wildcard", got.Cost)
	}
}

func TestAssertBalanceRequest_ToUseCaseInput(t *testing.T) {
	req := &AssertBalanceRequest{
		Date:   NewDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		Amount: AmountPayload{Number: decimal.RequireFromString("120"), Commodity: "USD"},
	}

	got := req.ToUseCaseInput("Assets:Checking")
	if got.Account != "Assets:Checking" {
		t.Fatalf("account = %s", got.Account)
	}
	if !got.Amount.Number.Equal(decimal.RequireFromString("120")) || got.Amount.Commodity != "USD" {
		t.Fatalf("amount = %+v", got.Amount)
	}
}

func TestClampRequest_ToUseCaseInput(t *testing.T) {
	req := &ClampRequest{
		Begin:          NewDate(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
		End:            NewDate(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		OpeningAccount: "Equity:Opened",
	}

	got := req.ToUseCaseInput()
	if !got.Begin.Before(got.End) {
		t.Fatalf("period = [%s, %s)", got.Begin, got.End)
	}
	if got.OpeningAccount != "Equity:Opened" || got.EarningsAccount != "" {
		t.Fatalf("accounts = %+v", got)
	}
}
