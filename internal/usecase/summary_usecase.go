package usecase

import (
	"context"
	"time"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/infrastructure/metrics"
)

// SummaryUseCase builds period summaries: the ledger clamped to [Begin, End)
// with everything earlier collapsed into synthetic opening transactions.
type SummaryUseCase struct {
	state   *LedgerState
	idGen   IDGenerator
	metrics *metrics.Metrics
}

// NewSummaryUseCase creates a new SummaryUseCase.
func NewSummaryUseCase(state *LedgerState, idGen IDGenerator, metrics *metrics.Metrics) *SummaryUseCase {
	return &SummaryUseCase{state: state, idGen: idGen, metrics: metrics}
}

// ClampInput represents input for building a period summary. Zero-valued
// accounts fall back to the conventional equity accounts.
type ClampInput struct {
	Begin           time.Time
	End             time.Time
	OpeningAccount  string
	EarningsAccount string
}

// ClampResult is a period summary: the synthetic openings followed by the
// period's journal, plus the rolled-up balances of every account in it.
type ClampResult struct {
	Begin        time.Time
	End          time.Time
	OpeningCount int
	Journal      []*domain.BookedTransaction
	Accounts     []AccountRollup
}

// Clamp condenses the ledger to one period. The shared ledger is read, never
// modified; the summary is built on a private copy and discarded after
// rendering.
func (uc *SummaryUseCase) Clamp(ctx context.Context, input ClampInput) (*ClampResult, error) {
	opts := domain.DefaultSummaryOptions()
	if input.OpeningAccount != "" {
		opts.OpeningAccount = domain.AccountName(input.OpeningAccount)
	}
	if input.EarningsAccount != "" {
		opts.EarningsAccount = domain.AccountName(input.EarningsAccount)
	}

	start := time.Now()
	var (
		clamped  *domain.Ledger
		openings int
	)
	err := uc.state.View(func(l *domain.Ledger) error {
		var err error
		clamped, openings, err = domain.Clamp(l, input.Begin, input.End, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	journal := clamped.Journal()
	for _, booked := range journal {
		if booked.ID == "" {
			booked.ID = uc.idGen.Generate()
		}
	}

	if uc.metrics != nil {
		uc.metrics.SummariesBuilt.Inc()
		uc.metrics.SummaryDuration.Observe(time.Since(start).Seconds())
	}

	return &ClampResult{
		Begin:        input.Begin,
		End:          input.End,
		OpeningCount: openings,
		Journal:      journal,
		Accounts:     accountTree(clamped, ""),
	}, nil
}
