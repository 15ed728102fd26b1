package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes. Malformed input is
// 400, a missing resource 404, a directive the ledger's state refuses 409,
// and a transaction the balancer rejects 422.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountAlreadyOpen),
		errors.Is(err, domain.ErrAccountAlreadyClosed),
		errors.Is(err, domain.ErrAlreadyApplied),
		errors.Is(err, domain.ErrOutOfOrder),
		errors.Is(err, domain.ErrTooManyErrors):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnbalancedTransaction),
		errors.Is(err, domain.ErrAmbiguousElision),
		errors.Is(err, domain.ErrNoSolution),
		errors.Is(err, domain.ErrNoSuchLot),
		errors.Is(err, domain.ErrInsufficientLots),
		errors.Is(err, domain.ErrAmbiguousLotMatch),
		errors.Is(err, domain.ErrAccountClosed),
		errors.Is(err, domain.ErrAccountNotOpen),
		errors.Is(err, domain.ErrUnknownAccount),
		errors.Is(err, domain.ErrUnknownCommodity),
		errors.Is(err, domain.ErrCommodityNotAllowed),
		errors.Is(err, domain.ErrPadNotArmed),
		errors.Is(err, domain.ErrIncompleteCost):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidAccountName),
		errors.Is(err, domain.ErrInvalidCommodity),
		errors.Is(err, domain.ErrMetadataTooLarge),
		errors.Is(err, domain.ErrTooManyPostings),
		errors.Is(err, domain.ErrNoPostings),
		errors.Is(err, domain.ErrNonPositiveQuantity),
		errors.Is(err, domain.ErrInvalidLot),
		errors.Is(err, domain.ErrInvalidNumber):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateQuery parses a "2006-01-02" query parameter. A missing parameter
// returns nil; a malformed one returns an error for the caller to 400.
func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
