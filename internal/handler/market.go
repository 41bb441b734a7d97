package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/service"
)

// MarketHandler handles HTTP requests for market configuration and
// market data endpoints.
type MarketHandler struct {
	exchange *service.Exchange
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(exchange *service.Exchange) *MarketHandler {
	return &MarketHandler{exchange: exchange}
}

// createMarketRequest is the JSON request body for POST /markets.
type createMarketRequest struct {
	Key        string `json:"key"`
	BaseScale  uint   `json:"base_scale"`
	QuoteScale uint   `json:"quote_scale"`
	Dust       uint64 `json:"dust"`
	Tic        uint64 `json:"tic"`
}

// Create handles POST /markets.
func (h *MarketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMarketRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	market := domain.Market{
		Key:        req.Key,
		BaseScale:  req.BaseScale,
		QuoteScale: req.QuoteScale,
		Dust:       req.Dust,
		Tic:        req.Tic,
	}
	if err := h.exchange.RegisterMarket(market); err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, market)
}

// List handles GET /markets.
func (h *MarketHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string][]string{"markets": h.exchange.Markets()})
}

// Get handles GET /markets/{market}.
func (h *MarketHandler) Get(w http.ResponseWriter, r *http.Request) {
	market, err := h.exchange.Market(chi.URLParam(r, "market"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, market)
}

// GetBook handles GET /markets/{market}/book. Both sides are returned
// best price first.
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.exchange.Book(chi.URLParam(r, "market"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, book)
}

// GetDepth handles GET /markets/{market}/depth?side=buy&limit=50.
func (h *MarketHandler) GetDepth(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")

	side := domain.Side(r.URL.Query().Get("side"))
	if !side.Valid() {
		WriteError(w, http.StatusBadRequest, "validation_error", "side must be 'buy' or 'sell'")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	levels, err := h.exchange.Depth(market, side, limit)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"market": market,
		"side":   side,
		"levels": levels,
	})
}
