package handler

import (
	"context"
	"net/http"

	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/domain"
)

// LedgerService defines the fold-level behavior needed by LedgerHandler.
type LedgerService interface {
	Finish(ctx context.Context) ([]domain.Diagnostic, error)
	Options() domain.Options
}

// DiagnosticService defines the diagnostics read needed by LedgerHandler.
type DiagnosticService interface {
	Diagnostics(ctx context.Context, severity string) ([]domain.Diagnostic, error)
}

// LedgerHandler handles ledger-wide HTTP requests: diagnostics, options and
// finishing the fold.
type LedgerHandler struct {
	ledgerUC LedgerService
	queries  DiagnosticService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService, queries DiagnosticService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, queries: queries}
}

// Diagnostics lists collected problems, optionally filtered by severity.
func (h *LedgerHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	diags, err := h.queries.Diagnostics(r.Context(), r.URL.Query().Get("severity"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list diagnostics", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DiagnosticsResponse{
		Diagnostics: dto.DiagnosticsFromDomain(diags),
		Total:       len(diags),
	})
}

// Options reports the engine options the ledger runs with.
func (h *LedgerHandler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.OptionsFromDomain(h.ledgerUC.Options()))
}

// Finish ends the fold: unused pads are reported and the full diagnostic
// list is returned.
func (h *LedgerHandler) Finish(w http.ResponseWriter, r *http.Request) {
	diags, err := h.ledgerUC.Finish(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to finish ledger", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.DiagnosticsResponse{
		Diagnostics: dto.DiagnosticsFromDomain(diags),
		Total:       len(diags),
	})
}
