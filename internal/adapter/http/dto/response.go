package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/usecase"
)

// AmountFromDomain converts a domain amount to its payload.
func AmountFromDomain(a domain.Amount) AmountPayload {
	return AmountPayload{Number: a.Number, Commodity: a.Commodity}
}

// AmountsFromDomain converts a slice of domain amounts.
func AmountsFromDomain(amounts []domain.Amount) []AmountPayload {
	result := make([]AmountPayload, len(amounts))
	for i, a := range amounts {
		result[i] = AmountFromDomain(a)
	}
	return result
}

// CostResponse represents a lot's cost basis in API responses.
type CostResponse struct {
	Number   *decimal.Decimal `json:"number,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Date     *Date            `json:"date,omitempty"`
	Label    string           `json:"label,omitempty"`
}

// CostFromDomain converts a pinned cost to a response.
func CostFromDomain(c *domain.Cost) *CostResponse {
	if c == nil {
		return nil
	}
	number := c.Amount.Number
	out := &CostResponse{Number: &number, Currency: c.Amount.Commodity, Label: c.Label}
	if !c.Date.IsZero() {
		d := NewDate(c.Date)
		out.Date = &d
	}
	return out
}

// CostFromSpec converts a posting's cost spec to a response. Booked postings
// carry complete specs; an unresolved wildcard keeps a nil number.
func CostFromSpec(s *domain.CostSpec) *CostResponse {
	if s == nil {
		return nil
	}
	out := &CostResponse{Currency: s.Currency, Label: s.Label}
	if s.Number != nil {
		number := *s.Number
		out.Number = &number
	}
	if s.Date != nil {
		d := NewDate(*s.Date)
		out.Date = &d
	}
	return out
}

// PostingResponse represents one transaction leg in API responses.
type PostingResponse struct {
	Account  string         `json:"account"`
	Units    *AmountPayload `json:"units,omitempty"`
	Cost     *CostResponse  `json:"cost,omitempty"`
	Price    *PricePayload  `json:"price,omitempty"`
	Flag     string         `json:"flag,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PostingFromDomain converts a domain posting to a response.
func PostingFromDomain(p *domain.Posting) PostingResponse {
	out := PostingResponse{
		Account:  string(p.Account),
		Cost:     CostFromSpec(p.Cost),
		Flag:     p.Flag,
		Metadata: p.Metadata,
	}
	if p.Units != nil {
		units := AmountFromDomain(*p.Units)
		out.Units = &units
	}
	if p.Price != nil {
		out.Price = &PricePayload{
			Number:    p.Price.Amount.Number,
			Commodity: p.Price.Amount.Commodity,
			Total:     p.Price.Total,
		}
	}
	return out
}

// ReductionResponse represents one realized lot consumption.
type ReductionResponse struct {
	Account   string          `json:"account"`
	Commodity string          `json:"commodity"`
	Units     decimal.Decimal `json:"units"`
	Cost      *CostResponse   `json:"cost,omitempty"`
	CostTotal AmountPayload   `json:"cost_total"`
}

// ReductionFromDomain converts a realized reduction to a response.
func ReductionFromDomain(r domain.AccountReduction) ReductionResponse {
	return ReductionResponse{
		Account:   string(r.Account),
		Commodity: r.Reduction.Lot.Commodity,
		Units:     r.Reduction.Units,
		Cost:      CostFromDomain(r.Reduction.Lot.Cost),
		CostTotal: AmountFromDomain(r.Reduction.CostTotal),
	}
}

// PricePointResponse represents one dated price in API responses.
type PricePointResponse struct {
	Date     Date            `json:"date"`
	Base     string          `json:"base"`
	Quote    string          `json:"quote"`
	Rate     decimal.Decimal `json:"rate"`
	Implicit bool            `json:"implicit,omitempty"`
}

// PricePointFromDomain converts a domain price point to a response.
func PricePointFromDomain(p domain.PricePoint) PricePointResponse {
	return PricePointResponse{
		Date:     NewDate(p.Date),
		Base:     p.Base,
		Quote:    p.Quote,
		Rate:     p.Rate,
		Implicit: p.Implicit,
	}
}

// PricePointsFromDomain converts a slice of domain price points.
func PricePointsFromDomain(points []domain.PricePoint) []PricePointResponse {
	result := make([]PricePointResponse, len(points))
	for i, p := range points {
		result[i] = PricePointFromDomain(p)
	}
	return result
}

// TransactionResponse represents a booked transaction in API responses.
type TransactionResponse struct {
	ID             string               `json:"id"`
	Date           Date                 `json:"date"`
	Flag           string               `json:"flag"`
	Payee          string               `json:"payee,omitempty"`
	Narration      string               `json:"narration"`
	Postings       []PostingResponse    `json:"postings"`
	Tags           []string             `json:"tags,omitempty"`
	Links          []string             `json:"links,omitempty"`
	Metadata       map[string]any       `json:"metadata,omitempty"`
	Reductions     []ReductionResponse  `json:"reductions,omitempty"`
	ImplicitPrices []PricePointResponse `json:"implicit_prices,omitempty"`
	Source         *SourceRef           `json:"source,omitempty"`
}

// TransactionFromDomain converts a booked transaction to a response.
func TransactionFromDomain(t *domain.BookedTransaction) *TransactionResponse {
	postings := make([]PostingResponse, len(t.Postings))
	for i := range t.Postings {
		postings[i] = PostingFromDomain(&t.Postings[i])
	}
	out := &TransactionResponse{
		ID:        t.ID,
		Date:      NewDate(t.Date),
		Flag:      t.Flag,
		Payee:     t.Payee,
		Narration: t.Narration,
		Postings:  postings,
		Tags:      t.Tags,
		Links:     t.Links,
		Metadata:  t.Metadata,
	}
	if len(t.Reductions) > 0 {
		out.Reductions = make([]ReductionResponse, len(t.Reductions))
		for i, r := range t.Reductions {
			out.Reductions[i] = ReductionFromDomain(r)
		}
	}
	if len(t.ImplicitPrices) > 0 {
		out.ImplicitPrices = PricePointsFromDomain(t.ImplicitPrices)
	}
	if t.Source != (domain.SourceLoc{}) {
		out.Source = &SourceRef{File: t.Source.File, Line: t.Source.Line}
	}
	return out
}

// TransactionsFromDomain converts booked transactions to responses.
func TransactionsFromDomain(txns []*domain.BookedTransaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txns))
	for i, t := range txns {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// PositionResponse represents one inventory lot in API responses.
type PositionResponse struct {
	Commodity string          `json:"commodity"`
	Units     decimal.Decimal `json:"units"`
	Cost      *CostResponse   `json:"cost,omitempty"`
}

// PositionsFromDomain converts inventory positions to responses.
func PositionsFromDomain(positions []domain.Position) []PositionResponse {
	result := make([]PositionResponse, len(positions))
	for i, p := range positions {
		result[i] = PositionResponse{
			Commodity: p.Lot.Commodity,
			Units:     p.Units,
			Cost:      CostFromDomain(p.Lot.Cost),
		}
	}
	return result
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Name        string          `json:"name"`
	OpenedAt    Date            `json:"opened_at"`
	ClosedAt    *Date           `json:"closed_at,omitempty"`
	Commodities []string        `json:"commodities,omitempty"`
	Booking     string          `json:"booking,omitempty"`
	Balances    []AmountPayload `json:"balances"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	balances := []AmountPayload{}
	for _, commodity := range a.Inventory.Commodities() {
		balances = append(balances, AmountPayload{
			Number:    a.Inventory.BalanceOf(commodity),
			Commodity: commodity,
		})
	}
	out := &AccountResponse{
		Name:        string(a.Name),
		OpenedAt:    NewDate(a.OpenedAt),
		Commodities: a.Commodities,
		Booking:     string(a.Booking),
		Balances:    balances,
	}
	if a.ClosedAt != nil {
		d := NewDate(*a.ClosedAt)
		out.ClosedAt = &d
	}
	return out
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps an account listing.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
}

// ListTransactionsResponse wraps a journal listing.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int                    `json:"total"`
}

// BalanceResponse represents one account's holdings of a commodity.
type BalanceResponse struct {
	Account   string          `json:"account"`
	Number    decimal.Decimal `json:"number"`
	Commodity string          `json:"commodity"`
	AsOf      *Date           `json:"as_of,omitempty"`
}

// InventoryResponse represents an account's full lot inventory.
type InventoryResponse struct {
	Account   string             `json:"account"`
	Positions []PositionResponse `json:"positions"`
}

// RollupResponse is one node of the account tree.
type RollupResponse struct {
	Account  string          `json:"account"`
	Declared bool            `json:"declared"`
	Balances []AmountPayload `json:"balances"`
	Rollup   []AmountPayload `json:"rollup"`
}

// RollupsFromUseCase converts tree nodes to responses.
func RollupsFromUseCase(nodes []usecase.AccountRollup) []RollupResponse {
	result := make([]RollupResponse, len(nodes))
	for i, n := range nodes {
		result[i] = RollupResponse{
			Account:  n.Account,
			Declared: n.Declared,
			Balances: AmountsFromDomain(n.Balances),
			Rollup:   AmountsFromDomain(n.Rollup),
		}
	}
	return result
}

// AccountTreeResponse wraps the account tree rollup.
type AccountTreeResponse struct {
	Accounts []RollupResponse `json:"accounts"`
}

// AssertionFailure describes one failed balance assertion.
type AssertionFailure struct {
	Account   string          `json:"account"`
	Commodity string          `json:"commodity"`
	Want      decimal.Decimal `json:"want"`
	Got       decimal.Decimal `json:"got"`
	Date      Date            `json:"date"`
}

// AssertionResponse reports one checked balance assertion. Ok is true when
// the assertion held, padded or not.
type AssertionResponse struct {
	Ok      bool              `json:"ok"`
	Padded  bool              `json:"padded"`
	Failure *AssertionFailure `json:"failure,omitempty"`
}

// AssertionFromUseCase converts an assertion result to a response.
func AssertionFromUseCase(r *usecase.AssertBalanceResult) *AssertionResponse {
	out := &AssertionResponse{Ok: r.Failure == nil, Padded: r.Padded}
	if r.Failure != nil {
		out.Failure = &AssertionFailure{
			Account:   string(r.Failure.Account),
			Commodity: r.Failure.Commodity,
			Want:      r.Failure.Want,
			Got:       r.Failure.Got,
			Date:      NewDate(r.Failure.Date),
		}
	}
	return out
}

// DiagnosticResponse represents one collected problem.
type DiagnosticResponse struct {
	Kind       string     `json:"kind"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Date       *Date      `json:"date,omitempty"`
	Source     *SourceRef `json:"source,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// DiagnosticsFromDomain converts domain diagnostics to responses.
func DiagnosticsFromDomain(diags []domain.Diagnostic) []DiagnosticResponse {
	result := make([]DiagnosticResponse, len(diags))
	for i, d := range diags {
		result[i] = DiagnosticResponse{
			Kind:       string(d.Kind),
			Severity:   string(d.Severity),
			Message:    d.Message,
			RecordedAt: d.RecordedAt,
		}
		if !d.Date.IsZero() {
			date := NewDate(d.Date)
			result[i].Date = &date
		}
		if d.Source != (domain.SourceLoc{}) {
			result[i].Source = &SourceRef{File: d.Source.File, Line: d.Source.Line}
		}
	}
	return result
}

// DiagnosticsResponse wraps a diagnostics listing.
type DiagnosticsResponse struct {
	Diagnostics []DiagnosticResponse `json:"diagnostics"`
	Total       int                  `json:"total"`
}

// CommodityResponse echoes a declared commodity.
type CommodityResponse struct {
	Commodity string `json:"commodity"`
	Date      Date   `json:"date"`
}

// CommoditiesResponse lists declared commodity symbols.
type CommoditiesResponse struct {
	Commodities []string `json:"commodities"`
}

// PricePairResponse is one known (base, quote) pair.
type PricePairResponse struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// PricePairsResponse lists the known price pairs.
type PricePairsResponse struct {
	Pairs []PricePairResponse `json:"pairs"`
}

// PriceSeriesResponse is the dated series for one pair.
type PriceSeriesResponse struct {
	Base   string               `json:"base"`
	Quote  string               `json:"quote"`
	Points []PricePointResponse `json:"points"`
}

// OptionsResponse reports the engine options the ledger runs with.
type OptionsResponse struct {
	AutoVivify         bool                       `json:"auto_vivify"`
	RequireCommodities bool                       `json:"require_commodities"`
	StrictPrices       bool                       `json:"strict_prices"`
	DefaultBooking     string                     `json:"default_booking"`
	MaxErrors          int                        `json:"max_errors"`
	ToleranceDefault   decimal.Decimal            `json:"tolerance_default"`
	Tolerances         map[string]decimal.Decimal `json:"tolerances,omitempty"`
}

// OptionsFromDomain converts engine options to a response.
func OptionsFromDomain(o domain.Options) *OptionsResponse {
	out := &OptionsResponse{
		AutoVivify:         o.AutoVivify,
		RequireCommodities: o.RequireCommodities,
		StrictPrices:       o.StrictPrices,
		DefaultBooking:     string(o.DefaultBooking),
		MaxErrors:          o.MaxErrors,
		ToleranceDefault:   o.Tolerance.Default,
	}
	if len(o.Tolerance.PerCommodity) > 0 {
		out.Tolerances = make(map[string]decimal.Decimal, len(o.Tolerance.PerCommodity))
		for c, eps := range o.Tolerance.PerCommodity {
			out.Tolerances[c] = eps
		}
	}
	return out
}

// SummaryResponse represents a clamped period: synthetic openings followed
// by the period's journal, plus the rolled-up account balances.
type SummaryResponse struct {
	Begin        Date                   `json:"begin"`
	End          Date                   `json:"end"`
	OpeningCount int                    `json:"opening_count"`
	Transactions []*TransactionResponse `json:"transactions"`
	Accounts     []RollupResponse       `json:"accounts"`
}

// SummaryFromUseCase converts a clamp result to a response.
func SummaryFromUseCase(r *usecase.ClampResult) *SummaryResponse {
	return &SummaryResponse{
		Begin:        NewDate(r.Begin),
		End:          NewDate(r.End),
		OpeningCount: r.OpeningCount,
		Transactions: TransactionsFromDomain(r.Journal),
		Accounts:     RollupsFromUseCase(r.Accounts),
	}
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// LoginResponse carries a signed API token.
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      MeResponse `json:"user"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
