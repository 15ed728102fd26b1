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

// TransactionService defines the booking behavior needed by TransactionHandler.
type TransactionService interface {
	SubmitTransaction(ctx context.Context, input usecase.SubmitTransactionInput) (*domain.BookedTransaction, error)
}

// TransactionQueryService defines the read behavior needed by TransactionHandler.
type TransactionQueryService interface {
	GetTransaction(ctx context.Context, id string) (*domain.BookedTransaction, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.BookedTransaction, error)
}

// TransactionHandler handles journal-related HTTP requests.
type TransactionHandler struct {
	booking TransactionService
	queries TransactionQueryService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(booking TransactionService, queries TransactionQueryService) *TransactionHandler {
	return &TransactionHandler{booking: booking, queries: queries}
}

// Submit books one transaction. The whole transaction is applied or none of
// it is; a rejection reports the balancing or lot-matching failure.
func (h *TransactionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required", "")
		return
	}

	booked, err := h.booking.SubmitTransaction(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to book transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(booked))
}

// Get retrieves a booked transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	booked, err := h.queries.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(booked))
}

// List lists journal entries in booking order, optionally filtered by
// account and the date range [from, to).
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateQuery(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date", err.Error())
		return
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date", err.Error())
		return
	}

	txns, err := h.queries.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		Account: r.URL.Query().Get("account"),
		From:    from,
		To:      to,
		Limit:   parseIntQuery(r, "limit", 0),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txns),
		Total:        len(txns),
	})
}
