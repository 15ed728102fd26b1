package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/usecase"
)

// PriceService defines the directive behavior needed by PriceHandler.
type PriceService interface {
	AddPrice(ctx context.Context, input usecase.AddPriceInput) error
}

// PriceQueryService defines the read behavior needed by PriceHandler.
type PriceQueryService interface {
	PriceSeries(ctx context.Context, base, quote string) ([]domain.PricePoint, error)
	LookupPrice(ctx context.Context, base, quote string, date time.Time) (domain.PricePoint, bool, error)
	PricePairs(ctx context.Context) ([][2]string, error)
}

// PriceHandler handles price-related HTTP requests.
type PriceHandler struct {
	commands PriceService
	queries  PriceQueryService
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(commands PriceService, queries PriceQueryService) *PriceHandler {
	return &PriceHandler{commands: commands, queries: queries}
}

// Add records an explicit price point.
func (h *PriceHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req dto.AddPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Date.IsZero() || req.Commodity == "" || req.Amount.Commodity == "" {
		writeError(w, http.StatusBadRequest, "date, commodity and amount are required", "")
		return
	}

	if err := h.commands.AddPrice(r.Context(), req.ToUseCaseInput()); err != nil {
		writeError(w, mapDomainError(err), "failed to add price", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.PricePointResponse{
		Date:  req.Date,
		Base:  req.Commodity,
		Quote: req.Amount.Commodity,
		Rate:  req.Amount.Number,
	})
}

// Pairs lists the known (base, quote) pairs.
func (h *PriceHandler) Pairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := h.queries.PricePairs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list price pairs", err.Error())
		return
	}

	resp := dto.PricePairsResponse{Pairs: make([]dto.PricePairResponse, len(pairs))}
	for i, p := range pairs {
		resp.Pairs[i] = dto.PricePairResponse{Base: p[0], Quote: p[1]}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Series returns the dated points for one pair in ascending order.
func (h *PriceHandler) Series(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	quote := chi.URLParam(r, "quote")

	points, err := h.queries.PriceSeries(r.Context(), base, quote)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get price series", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PriceSeriesResponse{
		Base:   base,
		Quote:  quote,
		Points: dto.PricePointsFromDomain(points),
	})
}

// Latest returns a pair's latest price on or before a date, today when no
// date is given.
func (h *PriceHandler) Latest(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	quote := chi.URLParam(r, "quote")

	asOf, err := parseDateQuery(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err.Error())
		return
	}
	date := time.Now().UTC()
	if asOf != nil {
		date = *asOf
	}

	point, found, err := h.queries.LookupPrice(r.Context(), base, quote, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up price", err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no price known", base+"/"+quote)
		return
	}

	writeJSON(w, http.StatusOK, dto.PricePointFromDomain(point))
}
