package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/usecase"
)

// CommodityService defines the directive behavior needed by CommodityHandler.
type CommodityService interface {
	DeclareCommodity(ctx context.Context, input usecase.DeclareCommodityInput) error
}

// CommodityQueryService defines the read behavior needed by CommodityHandler.
type CommodityQueryService interface {
	ListCommodities(ctx context.Context) ([]string, error)
}

// CommodityHandler handles commodity-related HTTP requests.
type CommodityHandler struct {
	commands CommodityService
	queries  CommodityQueryService
}

// NewCommodityHandler creates a new CommodityHandler.
func NewCommodityHandler(commands CommodityService, queries CommodityQueryService) *CommodityHandler {
	return &CommodityHandler{commands: commands, queries: queries}
}

// Declare registers a commodity symbol.
func (h *CommodityHandler) Declare(w http.ResponseWriter, r *http.Request) {
	var req dto.DeclareCommodityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Date.IsZero() || req.Commodity == "" {
		writeError(w, http.StatusBadRequest, "date and commodity are required", "")
		return
	}

	if err := h.commands.DeclareCommodity(r.Context(), req.ToUseCaseInput()); err != nil {
		writeError(w, mapDomainError(err), "failed to declare commodity", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.CommodityResponse{
		Commodity: req.Commodity,
		Date:      req.Date,
	})
}

// List lists declared commodity symbols.
func (h *CommodityHandler) List(w http.ResponseWriter, r *http.Request) {
	commodities, err := h.queries.ListCommodities(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list commodities", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CommoditiesResponse{Commodities: commodities})
}
