package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/usecase"
)

// AccountCommandService defines the directive behavior needed by AccountHandler.
type AccountCommandService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	CloseAccount(ctx context.Context, input usecase.CloseAccountInput) (*domain.Account, error)
	ArmPad(ctx context.Context, input usecase.PadInput) error
	AssertBalance(ctx context.Context, input usecase.AssertBalanceInput) (*usecase.AssertBalanceResult, error)
}

// AccountQueryService defines the read behavior needed by AccountHandler.
type AccountQueryService interface {
	GetAccount(ctx context.Context, name string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	AccountTree(ctx context.Context, prefix string) ([]usecase.AccountRollup, error)
	Balance(ctx context.Context, input usecase.BalanceInput) (domain.Amount, error)
	InventorySnapshot(ctx context.Context, account string) ([]domain.Position, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommandService
	queries  AccountQueryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(commands AccountCommandService, queries AccountQueryService) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

// Open declares an account.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Date.IsZero() || req.Account == "" {
		writeError(w, http.StatusBadRequest, "date and account are required", "")
		return
	}

	account, err := h.commands.OpenAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to open account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Close ends an account's lifecycle.
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req dto.CloseAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required", "")
		return
	}

	account, err := h.commands.CloseAccount(r.Context(), req.ToUseCaseInput(name))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to close account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Get retrieves an account by name.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	account, err := h.queries.GetAccount(r.Context(), name)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts, optionally under a prefix.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.queries.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Prefix: r.URL.Query().Get("prefix"),
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    len(accounts),
	})
}

// Tree returns the hierarchical rollup of account balances.
func (h *AccountHandler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.queries.AccountTree(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build account tree", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountTreeResponse{
		Accounts: dto.RollupsFromUseCase(nodes),
	})
}

// Balance returns an account's holdings of one commodity, current or as of a
// date.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	commodity := r.URL.Query().Get("commodity")
	if commodity == "" {
		writeError(w, http.StatusBadRequest, "commodity is required", "")
		return
	}
	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err.Error())
		return
	}

	amount, err := h.queries.Balance(r.Context(), usecase.BalanceInput{
		Account:   name,
		Commodity: commodity,
		AsOf:      asOf,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	resp := dto.BalanceResponse{
		Account:   name,
		Number:    amount.Number,
		Commodity: amount.Commodity,
	}
	if asOf != nil {
		d := dto.NewDate(*asOf)
		resp.AsOf = &d
	}
	writeJSON(w, http.StatusOK, resp)
}

// Inventory returns an account's positions, lots at cost included.
func (h *AccountHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	positions, err := h.queries.InventorySnapshot(r.Context(), name)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get inventory", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InventoryResponse{
		Account:   name,
		Positions: dto.PositionsFromDomain(positions),
	})
}

// Pad arms a pad: the next balance assertion for the account absorbs any
// difference from the source account.
func (h *AccountHandler) Pad(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req dto.PadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Date.IsZero() || req.SourceAccount == "" {
		writeError(w, http.StatusBadRequest, "date and source_account are required", "")
		return
	}

	if err := h.commands.ArmPad(r.Context(), req.ToUseCaseInput(name)); err != nil {
		writeError(w, mapDomainError(err), "failed to arm pad", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Assert checks the account's balance as of the start of a date. A failed
// assertion is reported in the body, not as an HTTP error: the ledger
// collects it and keeps going.
func (h *AccountHandler) Assert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req dto.AssertBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Date.IsZero() || req.Amount.Commodity == "" {
		writeError(w, http.StatusBadRequest, "date and amount are required", "")
		return
	}

	result, err := h.commands.AssertBalance(r.Context(), req.ToUseCaseInput(name))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check assertion", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AssertionFromUseCase(result))
}
