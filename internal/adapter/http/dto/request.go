package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/usecase"
)

// DateLayout is the wire format for directive dates.
const DateLayout = "2006-01-02"

// Date is a calendar day on the wire, encoded as "2006-01-02".
type Date struct {
	time.Time
}

// NewDate wraps a time as a wire date.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// UnmarshalJSON parses a quoted "2006-01-02" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// MarshalJSON renders the date as a quoted "2006-01-02" string.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// SourceRef locates the journal line a directive came from.
type SourceRef struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
}

func (s *SourceRef) toDomain() domain.SourceLoc {
	if s == nil {
		return domain.SourceLoc{}
	}
	return domain.SourceLoc{File: s.File, Line: s.Line}
}

// AmountPayload is a number with its commodity.
type AmountPayload struct {
	Number    decimal.Decimal `json:"number"`
	Commodity string          `json:"commodity"`
}

func (a *AmountPayload) toInput() usecase.AmountInput {
	return usecase.AmountInput{Number: a.Number, Commodity: a.Commodity}
}

// CostPayload is a posting's cost clause. Empty true is the explicit
// wildcard "{}"; a nil Number without Empty also defers to the account's
// booking method.
type CostPayload struct {
	Number   *decimal.Decimal `json:"number,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Date     *Date            `json:"date,omitempty"`
	Label    string           `json:"label,omitempty"`
	Empty    bool             `json:"empty,omitempty"`
}

func (c *CostPayload) toInput() *usecase.CostInput {
	if c == nil {
		return nil
	}
	in := &usecase.CostInput{
		Number:   c.Number,
		Currency: c.Currency,
		Label:    c.Label,
		Empty:    c.Empty,
	}
	if c.Date != nil && !c.Date.IsZero() {
		t := c.Date.Time
		in.Date = &t
	}
	return in
}

// PricePayload is a posting's price annotation. Total marks "@@": the amount
// prices the whole posting rather than one unit.
type PricePayload struct {
	Number    decimal.Decimal `json:"number"`
	Commodity string          `json:"commodity"`
	Total     bool            `json:"total,omitempty"`
}

func (p *PricePayload) toInput() *usecase.PriceInput {
	if p == nil {
		return nil
	}
	return &usecase.PriceInput{
		Amount: usecase.AmountInput{Number: p.Number, Commodity: p.Commodity},
		Total:  p.Total,
	}
}

// PostingPayload is one transaction leg. A missing units object elides the
// amount and leaves it to balancing inference.
type PostingPayload struct {
	Account  string         `json:"account"`
	Units    *AmountPayload `json:"units,omitempty"`
	Cost     *CostPayload   `json:"cost,omitempty"`
	Price    *PricePayload  `json:"price,omitempty"`
	Flag     string         `json:"flag,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (p *PostingPayload) toInput() usecase.PostingInput {
	in := usecase.PostingInput{
		Account:  p.Account,
		Cost:     p.Cost.toInput(),
		Price:    p.Price.toInput(),
		Flag:     p.Flag,
		Metadata: p.Metadata,
	}
	if p.Units != nil {
		units := p.Units.toInput()
		in.Units = &units
	}
	return in
}

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	Date        Date           `json:"date"`
	Account     string         `json:"account"`
	Commodities []string       `json:"commodities,omitempty"`
	Booking     string         `json:"booking,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Source      *SourceRef     `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		Date:        r.Date.Time,
		Account:     r.Account,
		Commodities: r.Commodities,
		Booking:     r.Booking,
		Metadata:    r.Metadata,
		Source:      r.Source.toDomain(),
	}
}

// CloseAccountRequest represents a request to close an account. The account
// name comes from the URL.
type CloseAccountRequest struct {
	Date   Date       `json:"date"`
	Source *SourceRef `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CloseAccountRequest) ToUseCaseInput(account string) usecase.CloseAccountInput {
	return usecase.CloseAccountInput{
		Date:    r.Date.Time,
		Account: account,
		Source:  r.Source.toDomain(),
	}
}

// DeclareCommodityRequest represents a request to declare a commodity.
type DeclareCommodityRequest struct {
	Date      Date           `json:"date"`
	Commodity string         `json:"commodity"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Source    *SourceRef     `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DeclareCommodityRequest) ToUseCaseInput() usecase.DeclareCommodityInput {
	return usecase.DeclareCommodityInput{
		Date:      r.Date.Time,
		Commodity: r.Commodity,
		Metadata:  r.Metadata,
		Source:    r.Source.toDomain(),
	}
}

// PadRequest represents a request to arm a pad against a source account. The
// padded account name comes from the URL.
type PadRequest struct {
	Date          Date       `json:"date"`
	SourceAccount string     `json:"source_account"`
	Source        *SourceRef `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PadRequest) ToUseCaseInput(account string) usecase.PadInput {
	return usecase.PadInput{
		Date:          r.Date.Time,
		Account:       account,
		SourceAccount: r.SourceAccount,
		Source:        r.Source.toDomain(),
	}
}

// AssertBalanceRequest represents a balance assertion. The account name
// comes from the URL.
type AssertBalanceRequest struct {
	Date   Date          `json:"date"`
	Amount AmountPayload `json:"amount"`
	Source *SourceRef    `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AssertBalanceRequest) ToUseCaseInput(account string) usecase.AssertBalanceInput {
	return usecase.AssertBalanceInput{
		Date:    r.Date.Time,
		Account: account,
		Amount:  r.Amount.toInput(),
		Source:  r.Source.toDomain(),
	}
}

// AddPriceRequest represents a request to record an explicit price point.
type AddPriceRequest struct {
	Date      Date          `json:"date"`
	Commodity string        `json:"commodity"`
	Amount    AmountPayload `json:"amount"`
	Source    *SourceRef    `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AddPriceRequest) ToUseCaseInput() usecase.AddPriceInput {
	return usecase.AddPriceInput{
		Date:      r.Date.Time,
		Commodity: r.Commodity,
		Amount:    r.Amount.toInput(),
		Source:    r.Source.toDomain(),
	}
}

// SubmitTransactionRequest represents a transaction to book.
type SubmitTransactionRequest struct {
	Date      Date             `json:"date"`
	Flag      string           `json:"flag,omitempty"`
	Payee     string           `json:"payee,omitempty"`
	Narration string           `json:"narration"`
	Postings  []PostingPayload `json:"postings"`
	Tags      []string         `json:"tags,omitempty"`
	Links     []string         `json:"links,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	Source    *SourceRef       `json:"source,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SubmitTransactionRequest) ToUseCaseInput() usecase.SubmitTransactionInput {
	postings := make([]usecase.PostingInput, len(r.Postings))
	for i := range r.Postings {
		postings[i] = r.Postings[i].toInput()
	}
	return usecase.SubmitTransactionInput{
		Date:      r.Date.Time,
		Flag:      r.Flag,
		Payee:     r.Payee,
		Narration: r.Narration,
		Postings:  postings,
		Tags:      r.Tags,
		Links:     r.Links,
		Metadata:  r.Metadata,
		Source:    r.Source.toDomain(),
	}
}

// ClampRequest represents a request to summarize the ledger to one period,
// [begin, end) by date.
type ClampRequest struct {
	Begin           Date   `json:"begin"`
	End             Date   `json:"end"`
	OpeningAccount  string `json:"opening_account,omitempty"`
	EarningsAccount string `json:"earnings_account,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ClampRequest) ToUseCaseInput() usecase.ClampInput {
	return usecase.ClampInput{
		Begin:           r.Begin.Time,
		End:             r.End.Time,
		OpeningAccount:  r.OpeningAccount,
		EarningsAccount: r.EarningsAccount,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
