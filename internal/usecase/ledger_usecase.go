package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/infrastructure/metrics"
)

// LedgerUseCase handles the write side of the fold: directives arrive here,
// get validated and booked against the shared ledger, and leave as applied
// state changes with events published for each.
type LedgerUseCase struct {
	state   *LedgerState
	idGen   IDGenerator
	events  EventPublisher
	clock   Clock
	metrics *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	state *LedgerState,
	idGen IDGenerator,
	events EventPublisher,
	clock Clock,
	metrics *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		state:   state,
		idGen:   idGen,
		events:  events,
		clock:   clock,
		metrics: metrics,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	Date        time.Time
	Account     string
	Commodities []string
	Booking     string
	Metadata    map[string]any
	Source      domain.SourceLoc
}

// CloseAccountInput represents input for closing an account.
type CloseAccountInput struct {
	Date    time.Time
	Account string
	Source  domain.SourceLoc
}

// DeclareCommodityInput represents input for declaring a commodity.
type DeclareCommodityInput struct {
	Date      time.Time
	Commodity string
	Metadata  map[string]any
	Source    domain.SourceLoc
}

// PadInput represents input for arming a pad.
type PadInput struct {
	Date          time.Time
	Account       string
	SourceAccount string
	Source        domain.SourceLoc
}

// AddPriceInput represents input for recording an explicit price.
type AddPriceInput struct {
	Date      time.Time
	Commodity string
	Amount    AmountInput
	Source    domain.SourceLoc
}

// AssertBalanceInput represents input for a balance assertion.
type AssertBalanceInput struct {
	Date    time.Time
	Account string
	Amount  AmountInput
	Source  domain.SourceLoc
}

// AmountInput is a number with its commodity.
type AmountInput struct {
	Number    decimal.Decimal
	Commodity string
}

// CostInput is a posting's cost clause. Empty marks the wildcard form;
// otherwise Number and Currency pin a lot, with Date and Label narrowing
// further.
type CostInput struct {
	Number   *decimal.Decimal
	Currency string
	Date     *time.Time
	Label    string
	Empty    bool
}

// PriceInput is a posting's price annotation. Total marks a total-price
// annotation rather than a per-unit one.
type PriceInput struct {
	Amount AmountInput
	Total  bool
}

// PostingInput represents one leg of a transaction. A nil Units elides the
// amount, leaving it to balancing inference.
type PostingInput struct {
	Account  string
	Units    *AmountInput
	Cost     *CostInput
	Price    *PriceInput
	Flag     string
	Metadata map[string]any
}

// SubmitTransactionInput represents input for booking a transaction.
type SubmitTransactionInput struct {
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	Postings  []PostingInput
	Tags      []string
	Links     []string
	Metadata  map[string]any
	Source    domain.SourceLoc
}

// AssertBalanceResult reports one checked assertion. Failure is nil when the
// assertion held or was fixed by a pad.
type AssertBalanceResult struct {
	Padded  bool
	Failure *domain.AssertionError
}

// OpenAccount declares an account.
func (uc *LedgerUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	booking, err := domain.ParseBookingMethod(input.Booking)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, err
	}

	var opened *domain.Account
	err = uc.state.Update(func(l *domain.Ledger) error {
		if err := l.OpenAccount(domain.Open{
			Date:        input.Date,
			Account:     domain.AccountName(input.Account),
			Commodities: input.Commodities,
			Booking:     booking,
			Source:      input.Source,
		}); err != nil {
			return err
		}
		opened, _ = l.Account(domain.AccountName(input.Account))
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, domain.EventTypeAccountOpened, domain.AggregateTypeAccount, input.Account,
		domain.AccountOpenedEvent{
			Account:     input.Account,
			Date:        input.Date.Format("2006-01-02"),
			Commodities: input.Commodities,
			Booking:     string(booking),
		})
	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	return opened, nil
}

// CloseAccount ends an account's lifecycle.
func (uc *LedgerUseCase) CloseAccount(ctx context.Context, input CloseAccountInput) (*domain.Account, error) {
	var closed *domain.Account
	err := uc.state.Update(func(l *domain.Ledger) error {
		if err := l.CloseAccount(domain.Close{
			Date:    input.Date,
			Account: domain.AccountName(input.Account),
			Source:  input.Source,
		}); err != nil {
			return err
		}
		closed, _ = l.Account(domain.AccountName(input.Account))
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, domain.EventTypeAccountClosed, domain.AggregateTypeAccount, input.Account,
		domain.AccountClosedEvent{
			Account: input.Account,
			Date:    input.Date.Format("2006-01-02"),
		})
	if uc.metrics != nil {
		uc.metrics.AccountsClosed.Inc()
	}

	return closed, nil
}

// DeclareCommodity registers a commodity symbol.
func (uc *LedgerUseCase) DeclareCommodity(ctx context.Context, input DeclareCommodityInput) error {
	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return err
	}
	err := uc.state.Update(func(l *domain.Ledger) error {
		return l.DeclareCommodity(domain.CommodityDecl{
			Date:      input.Date,
			Commodity: input.Commodity,
			Metadata:  input.Metadata,
			Source:    input.Source,
		})
	})
	if err != nil {
		return err
	}
	if uc.metrics != nil {
		uc.metrics.CommoditiesDeclared.Inc()
	}
	return nil
}

// ArmPad arms a pad for the next balance assertion on the account.
func (uc *LedgerUseCase) ArmPad(ctx context.Context, input PadInput) error {
	err := uc.state.Update(func(l *domain.Ledger) error {
		return l.ArmPad(domain.Pad{
			Date:          input.Date,
			Account:       domain.AccountName(input.Account),
			SourceAccount: domain.AccountName(input.SourceAccount),
			Source:        input.Source,
		})
	})
	if err != nil {
		return err
	}
	if uc.metrics != nil {
		uc.metrics.PadsArmed.Inc()
	}
	return nil
}

// AddPrice records an explicit price point.
func (uc *LedgerUseCase) AddPrice(ctx context.Context, input AddPriceInput) error {
	err := uc.state.Update(func(l *domain.Ledger) error {
		return l.AddPrice(domain.PriceDecl{
			Date:      input.Date,
			Commodity: input.Commodity,
			Amount:    domain.NewAmount(input.Amount.Number, input.Amount.Commodity),
			Source:    input.Source,
		})
	})
	if err != nil {
		return err
	}
	if uc.metrics != nil {
		uc.metrics.PricesRecorded.Inc()
	}
	return nil
}

// SubmitTransaction books and applies one transaction atomically: on any
// failure the ledger is untouched apart from the recorded diagnostic.
func (uc *LedgerUseCase) SubmitTransaction(ctx context.Context, input SubmitTransactionInput) (*domain.BookedTransaction, error) {
	txn := toTransaction(input)
	if err := domain.ValidateTransactionShape(&txn); err != nil {
		return nil, err
	}

	start := time.Now()
	var booked *domain.BookedTransaction
	err := uc.state.Update(func(l *domain.Ledger) error {
		b, err := l.Book(txn)
		if err != nil {
			return err
		}
		b.ID = uc.idGen.Generate()
		if err := l.Apply(b); err != nil {
			return err
		}
		booked = b
		return nil
	})
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.BookingErrors.WithLabelValues(string(domain.KindOfBookingError(err))).Inc()
		}
		return nil, err
	}

	accounts := make([]string, 0, len(booked.Postings))
	seen := map[string]bool{}
	for i := range booked.Postings {
		name := string(booked.Postings[i].Account)
		if !seen[name] {
			seen[name] = true
			accounts = append(accounts, name)
		}
	}
	uc.publish(ctx, domain.EventTypeTransactionBooked, domain.AggregateTypeTransaction, booked.ID,
		domain.TransactionBookedEvent{
			TransactionID: booked.ID,
			Date:          booked.Date.Format("2006-01-02"),
			Narration:     booked.Narration,
			Postings:      len(booked.Postings),
			Accounts:      accounts,
			Reductions:    len(booked.Reductions),
		})
	if uc.metrics != nil {
		uc.metrics.TransactionsBooked.Inc()
		uc.metrics.PostingsBooked.Add(float64(len(booked.Postings)))
		uc.metrics.LotsReduced.Add(float64(len(booked.Reductions)))
		uc.metrics.BookingDuration.Observe(time.Since(start).Seconds())
	}

	return booked, nil
}

// AssertBalance checks an account's balance as of the start of a date. A
// failed assertion is a diagnostic, not an error: the result carries the
// mismatch and, when a pad absorbed the difference, the synthetic padding
// transaction has already been applied.
func (uc *LedgerUseCase) AssertBalance(ctx context.Context, input AssertBalanceInput) (*AssertBalanceResult, error) {
	var (
		failure *domain.AssertionError
		padTxn  *domain.BookedTransaction
	)
	err := uc.state.Update(func(l *domain.Ledger) error {
		before := len(l.Journal())
		aerr, err := l.AssertBalance(domain.BalanceAssertion{
			Date:    input.Date,
			Account: domain.AccountName(input.Account),
			Amount:  domain.NewAmount(input.Amount.Number, input.Amount.Commodity),
			Source:  input.Source,
		})
		if err != nil {
			return err
		}
		failure = aerr
		if journal := l.Journal(); len(journal) > before {
			padTxn = journal[len(journal)-1]
			padTxn.ID = uc.idGen.Generate()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AssertionsChecked.Inc()
		if failure != nil {
			uc.metrics.AssertionsFailed.Inc()
		}
	}
	if padTxn != nil {
		var amount, source string
		for i := range padTxn.Postings {
			p := &padTxn.Postings[i]
			if p.Account == domain.AccountName(input.Account) {
				if p.Units != nil {
					amount = p.Units.String()
				}
			} else if source == "" {
				source = string(p.Account)
			}
		}
		uc.publish(ctx, domain.EventTypePadMaterialized, domain.AggregateTypeTransaction, padTxn.ID,
			domain.PadMaterializedEvent{
				Account:       input.Account,
				SourceAccount: source,
				PadDate:       padTxn.Date.Format("2006-01-02"),
				AssertionDate: input.Date.Format("2006-01-02"),
				Amount:        amount,
			})
		if uc.metrics != nil {
			uc.metrics.PadsMaterialized.Inc()
		}
	}

	return &AssertBalanceResult{Padded: padTxn != nil, Failure: failure}, nil
}

// Finish ends the fold: unused pads are reported and the full diagnostic
// list is returned.
func (uc *LedgerUseCase) Finish(ctx context.Context) ([]domain.Diagnostic, error) {
	var diags []domain.Diagnostic
	err := uc.state.Update(func(l *domain.Ledger) error {
		diags = l.Finish()
		return nil
	})
	return diags, err
}

// Options returns the engine options the ledger runs with.
func (uc *LedgerUseCase) Options() domain.Options {
	var opts domain.Options
	_ = uc.state.View(func(l *domain.Ledger) error {
		opts = l.Options()
		return nil
	})
	return opts
}

func (uc *LedgerUseCase) publish(ctx context.Context, eventType, aggregateType, aggregateID string, payload any) {
	if uc.events == nil {
		return
	}
	event := &domain.Event{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		OccurredAt:    uc.now(),
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		if uc.metrics != nil {
			uc.metrics.EventsDropped.Inc()
		}
		return
	}
	if uc.metrics != nil {
		uc.metrics.EventsPublished.WithLabelValues(eventType).Inc()
	}
}

func (uc *LedgerUseCase) now() time.Time {
	if uc.clock != nil {
		return uc.clock.Now()
	}
	return time.Now().UTC()
}

// toTransaction converts transaction input into the domain shape.
func toTransaction(input SubmitTransactionInput) domain.Transaction {
	flag := input.Flag
	if flag == "" {
		flag = domain.FlagOk
	}
	postings := make([]domain.Posting, 0, len(input.Postings))
	for _, p := range input.Postings {
		postings = append(postings, toPosting(p))
	}
	return domain.Transaction{
		Date:      input.Date,
		Flag:      flag,
		Payee:     input.Payee,
		Narration: input.Narration,
		Postings:  postings,
		Tags:      input.Tags,
		Links:     input.Links,
		Metadata:  input.Metadata,
		Source:    input.Source,
	}
}

func toPosting(p PostingInput) domain.Posting {
	out := domain.Posting{
		Account:  domain.AccountName(p.Account),
		Flag:     p.Flag,
		Metadata: p.Metadata,
	}
	if p.Units != nil {
		units := domain.NewAmount(p.Units.Number, p.Units.Commodity)
		out.Units = &units
	}
	if p.Cost != nil {
		out.Cost = &domain.CostSpec{
			Number:   p.Cost.Number,
			Currency: p.Cost.Currency,
			Date:     p.Cost.Date,
			Label:    p.Cost.Label,
			Empty:    p.Cost.Empty,
		}
	}
	if p.Price != nil {
		out.Price = &domain.PriceAnnotation{
			Amount: domain.NewAmount(p.Price.Amount.Number, p.Price.Amount.Commodity),
			Total:  p.Price.Total,
		}
	}
	return out
}
