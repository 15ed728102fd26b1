package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/usecase"
)

// SummaryService defines the behavior needed by SummaryHandler.
type SummaryService interface {
	Clamp(ctx context.Context, input usecase.ClampInput) (*usecase.ClampResult, error)
}

// SummaryHandler handles period summarization requests.
type SummaryHandler struct {
	summaryUC SummaryService
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryUC SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryUC: summaryUC}
}

// Clamp condenses the ledger to the period [begin, end): everything earlier
// collapses into synthetic opening balances, everything later is dropped.
func (h *SummaryHandler) Clamp(w http.ResponseWriter, r *http.Request) {
	var req dto.ClampRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Begin.IsZero() || req.End.IsZero() {
		writeError(w, http.StatusBadRequest, "begin and end are required", "")
		return
	}
	if !req.Begin.Before(req.End.Time) {
		writeError(w, http.StatusBadRequest, "begin must be before end", "")
		return
	}

	result, err := h.summaryUC.Clamp(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to summarize", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryFromUseCase(result))
}
