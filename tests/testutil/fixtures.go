package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/iho/bookd/internal/adapter/http"
	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/adapter/http/handler"
	"github.com/iho/bookd/internal/adapter/memory"
	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/infrastructure/auth"
	"github.com/iho/bookd/internal/infrastructure/eventpublisher"
	"github.com/iho/bookd/internal/infrastructure/metrics"
	"github.com/iho/bookd/internal/usecase"
)

// LedgerStack is a fully wired booking stack around one in-memory ledger:
// use cases, handlers and the HTTP router, with idempotency backed by the
// in-process store.
type LedgerStack struct {
	Router    http.Handler
	LedgerUC  *usecase.LedgerUseCase
	QueryUC   *usecase.QueryUseCase
	SummaryUC *usecase.SummaryUseCase
	t         *testing.T
}

// NewLedgerStack wires a stack with an open (unauthenticated) API folding
// with the given options.
func NewLedgerStack(t *testing.T, opts domain.Options) *LedgerStack {
	return newLedgerStack(t, opts, nil, nil)
}

// NewAuthLedgerStack wires a stack behind JWT auth. Users is the
// "email:password:role" credential list accepted by the login endpoint.
func NewAuthLedgerStack(t *testing.T, opts domain.Options, secret, users string) *LedgerStack {
	t.Helper()

	credentials, err := auth.ParseCredentials(users)
	if err != nil {
		t.Fatalf("failed to parse credentials: %v", err)
	}
	return newLedgerStack(t, opts, auth.NewJWTManager(secret, time.Hour), credentials)
}

func newLedgerStack(t *testing.T, opts domain.Options, jwtManager *auth.JWTManager, credentials auth.Credentials) *LedgerStack {
	t.Helper()

	state := usecase.NewLedgerState(opts)
	idGen := memory.NewULIDGenerator()
	clock := memory.SystemClock{}
	m := metrics.NewWith(prometheus.NewRegistry())
	events := eventpublisher.NewLogPublisher(zerolog.Nop())

	ledgerUC := usecase.NewLedgerUseCase(state, idGen, events, clock, m)
	queryUC := usecase.NewQueryUseCase(state)
	summaryUC := usecase.NewSummaryUseCase(state, idGen, m)

	var authHandler *handler.AuthHandler
	if jwtManager != nil {
		authHandler = handler.NewAuthHandler(jwtManager, credentials)
	}

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(ledgerUC, queryUC),
		TransactionHandler: handler.NewTransactionHandler(ledgerUC, queryUC),
		CommodityHandler:   handler.NewCommodityHandler(ledgerUC, queryUC),
		PriceHandler:       handler.NewPriceHandler(ledgerUC, queryUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC, queryUC),
		SummaryHandler:     handler.NewSummaryHandler(summaryUC),
		AuthHandler:        authHandler,
		HealthHandler:      handler.NewHealthHandler(queryUC),
		Logger:             zerolog.Nop(),
		IdempotencyStore:   memory.NewIdempotencyStore(time.Minute),
		JWTManager:         jwtManager,
	})

	return &LedgerStack{
		Router:    router,
		LedgerUC:  ledgerUC,
		QueryUC:   queryUC,
		SummaryUC: summaryUC,
		t:         t,
	}
}

// Do serves one JSON request through the router and returns the recorder.
func (s *LedgerStack) Do(method, path string, payload any) *httptest.ResponseRecorder {
	return s.DoWithHeaders(method, path, payload, nil)
}

// DoWithHeaders serves one JSON request with extra headers set.
func (s *LedgerStack) DoWithHeaders(method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(method, path, body)
	r.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		r.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, r)
	return w
}

// Decode unmarshals a recorded response body, failing the test on bad JSON.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
	return out
}

// OpenAccount opens an account through the API, failing the test on error.
func (s *LedgerStack) OpenAccount(date, name string, commodities ...string) {
	s.t.Helper()

	w := s.Do(http.MethodPost, "/api/v1/accounts", dto.OpenAccountRequest{
		Date:        Date(date),
		Account:     name,
		Commodities: commodities,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("failed to open %s: %d %s", name, w.Code, w.Body.String())
	}
}

// OpenAccountWithBooking opens an account with a booking method override.
func (s *LedgerStack) OpenAccountWithBooking(date, name, booking string) {
	s.t.Helper()

	w := s.Do(http.MethodPost, "/api/v1/accounts", dto.OpenAccountRequest{
		Date:    Date(date),
		Account: name,
		Booking: booking,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("failed to open %s: %d %s", name, w.Code, w.Body.String())
	}
}

// Submit books a transaction through the API, failing the test on rejection.
func (s *LedgerStack) Submit(date, narration string, postings ...dto.PostingPayload) dto.TransactionResponse {
	s.t.Helper()

	w := s.Do(http.MethodPost, "/api/v1/transactions", dto.SubmitTransactionRequest{
		Date:      Date(date),
		Narration: narration,
		Postings:  postings,
	})
	if w.Code != http.StatusCreated {
		s.t.Fatalf("failed to book %q: %d %s", narration, w.Code, w.Body.String())
	}
	return Decode[dto.TransactionResponse](s.t, w)
}

// Balance reads an account's current balance of a commodity through the API.
func (s *LedgerStack) Balance(account, commodity string) decimal.Decimal {
	s.t.Helper()

	w := s.Do(http.MethodGet, "/api/v1/accounts/"+account+"/balance?commodity="+commodity, nil)
	if w.Code != http.StatusOK {
		s.t.Fatalf("failed to read balance of %s: %d %s", account, w.Code, w.Body.String())
	}
	return Decode[dto.BalanceResponse](s.t, w).Number
}

// Login obtains a token from the login endpoint, failing the test on a
// rejected credential.
func (s *LedgerStack) Login(email, password string) string {
	s.t.Helper()

	w := s.Do(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: email, Password: password})
	if w.Code != http.StatusOK {
		s.t.Fatalf("login failed for %s: %d %s", email, w.Code, w.Body.String())
	}
	return Decode[dto.LoginResponse](s.t, w).Token
}

// Date converts a "2006-01-02" literal to a wire date.
func Date(s string) dto.Date {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		panic(fmt.Sprintf("bad test date %q: %v", s, err))
	}
	return dto.NewDate(t)
}

// Posting builds a transaction leg with explicit units.
func Posting(account, number, commodity string) dto.PostingPayload {
	return dto.PostingPayload{
		Account: account,
		Units:   &dto.AmountPayload{Number: decimal.RequireFromString(number), Commodity: commodity},
	}
}

// ElidedPosting builds a leg whose amount is left to balancing inference.
func ElidedPosting(account string) dto.PostingPayload {
	return dto.PostingPayload{Account: account}
}

// Amount builds a wire amount.
func Amount(number, commodity string) dto.AmountPayload {
	return dto.AmountPayload{Number: decimal.RequireFromString(number), Commodity: commodity}
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
