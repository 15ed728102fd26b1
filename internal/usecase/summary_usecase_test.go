package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
)

func TestSummaryUseCase_Clamp(t *testing.T) {
	state := NewLedgerState(domain.DefaultOptions())
	ledger := NewLedgerUseCase(state, &seqIDGenerator{}, nil, nil, nil)
	summary := NewSummaryUseCase(state, &seqIDGenerator{}, nil)
	ctx := context.Background()

	txns := []SubmitTransactionInput{
		{
			Date:      date("2024-01-05"),
			Narration: "paycheck jan",
			Postings: []PostingInput{
				{Account: "Assets:Checking", Units: unitsOf("5000", "USD")},
				{Account: "Income:Salary", Units: unitsOf("-5000", "USD")},
			},
		},
		{
			Date:      date("2024-02-05"),
			Narration: "paycheck feb",
			Postings: []PostingInput{
				{Account: "Assets:Checking", Units: unitsOf("5000", "USD")},
				{Account: "Income:Salary", Units: unitsOf("-5000", "USD")},
			},
		},
	}
	for _, txn := range txns {
		if _, err := ledger.SubmitTransaction(ctx, txn); err != nil {
			t.Fatalf("seed %q: %v", txn.Narration, err)
		}
	}

	result, err := summary.Clamp(ctx, ClampInput{Begin: date("2024-02-01"), End: date("2024-03-01")})
	if err != nil {
		t.Fatalf("clamp: %v", err)
	}

	if result.OpeningCount != 2 {
		t.Fatalf("openings = %d, want Assets:Checking and Equity:Earnings", result.OpeningCount)
	}
	if len(result.Journal) != 3 {
		t.Fatalf("journal = %d, want 2 openings + 1 period txn", len(result.Journal))
	}
	for i, booked := range result.Journal {
		if booked.ID == "" {
			t.Fatalf("journal[%d] has no ID", i)
		}
	}
	// Period transactions keep their original identity.
	if result.Journal[2].Narration != "paycheck feb" {
		t.Fatalf("journal[2] = %q", result.Journal[2].Narration)
	}
	if result.Journal[2].ID != "id-0002" {
		t.Fatalf("period txn ID = %s, want the original id-0002", result.Journal[2].ID)
	}

	var checking *AccountRollup
	for i := range result.Accounts {
		if result.Accounts[i].Account == "Assets:Checking" {
			checking = &result.Accounts[i]
		}
	}
	if checking == nil {
		t.Fatal("missing Assets:Checking rollup")
	}
	if len(checking.Rollup) != 1 || !checking.Rollup[0].Number.Equal(decimal.RequireFromString("10000")) {
		t.Fatalf("checking rollup = %v, want 10000 USD", checking.Rollup)
	}

	// The shared ledger is untouched by summarization.
	query := NewQueryUseCase(state)
	all, err := query.ListTransactions(ctx, ListTransactionsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("source journal = %d, want 2", len(all))
	}
}

func TestSummaryUseCase_Clamp_CustomAccounts(t *testing.T) {
	state := NewLedgerState(domain.DefaultOptions())
	ledger := NewLedgerUseCase(state, &seqIDGenerator{}, nil, nil, nil)
	summary := NewSummaryUseCase(state, &seqIDGenerator{}, nil)
	ctx := context.Background()

	if _, err := ledger.SubmitTransaction(ctx, SubmitTransactionInput{
		Date:      date("2024-01-05"),
		Narration: "seed",
		Postings: []PostingInput{
			{Account: "Assets:Checking", Units: unitsOf("100", "USD")},
			{Account: "Income:Misc", Units: unitsOf("-100", "USD")},
		},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := summary.Clamp(ctx, ClampInput{
		Begin:           date("2024-02-01"),
		End:             date("2024-03-01"),
		OpeningAccount:  "Equity:Start",
		EarningsAccount: "Equity:Retained",
	})
	if err != nil {
		t.Fatalf("clamp: %v", err)
	}

	found := map[string]bool{}
	for _, node := range result.Accounts {
		found[node.Account] = true
	}
	if !found["Equity:Start"] || !found["Equity:Retained"] {
		t.Fatalf("custom accounts missing from rollup: %v", found)
	}

	if result.Journal[1].Narration != "Opening balance for 'Equity:Retained' (Summarization)" {
		t.Fatalf("narration = %q", result.Journal[1].Narration)
	}
}

func TestSummaryUseCase_Clamp_RejectsBadRange(t *testing.T) {
	summary := NewSummaryUseCase(NewLedgerState(domain.DefaultOptions()), &seqIDGenerator{}, nil)
	if _, err := summary.Clamp(context.Background(), ClampInput{
		Begin: date("2024-03-01"),
		End:   date("2024-02-01"),
	}); err == nil {
		t.Fatal("expected range error")
	}
}
