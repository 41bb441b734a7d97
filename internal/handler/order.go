package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/service"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	exchange *service.Exchange
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(exchange *service.Exchange) *OrderHandler {
	return &OrderHandler{exchange: exchange}
}

// limitOrderRequest is the JSON request body for POST /markets/{market}/orders.
type limitOrderRequest struct {
	Owner   string `json:"owner"`
	Side    string `json:"side"`
	BaseAmt uint64 `json:"base_amt"`
	Price   uint64 `json:"price"`
	Hint    uint64 `json:"hint"`
}

// fokOrderRequest is the JSON request body for POST /markets/{market}/orders/fok.
type fokOrderRequest struct {
	Owner      string `json:"owner"`
	Side       string `json:"side"`
	BaseAmt    uint64 `json:"base_amt"`
	Price      uint64 `json:"price"`
	TotalLimit uint64 `json:"total_limit"`
}

// PlaceLimit handles POST /markets/{market}/orders.
func (h *OrderHandler) PlaceLimit(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")

	var req limitOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.exchange.PlaceLimit(market, req.Owner, domain.Side(req.Side), req.BaseAmt, req.Price, req.Hint)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, res)
}

// PlaceFok handles POST /markets/{market}/orders/fok.
func (h *OrderHandler) PlaceFok(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")

	var req fokOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := h.exchange.PlaceFok(market, req.Owner, domain.Side(req.Side), req.BaseAmt, req.Price, req.TotalLimit)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, res)
}

// GetOrder handles GET /markets/{market}/orders/{side}/{order_id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")
	side := domain.Side(chi.URLParam(r, "side"))

	id, err := strconv.ParseUint(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "order_id must be a positive integer")
		return
	}
	if !side.Valid() {
		WriteError(w, http.StatusBadRequest, "validation_error", "side must be 'buy' or 'sell'")
		return
	}

	order, err := h.exchange.GetOrder(market, side, id)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, order)
}

// CancelOrder handles DELETE /markets/{market}/orders/{side}/{order_id}.
// The caller identifies itself with the owner query parameter; only the
// order's owner may cancel it.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")
	side := domain.Side(chi.URLParam(r, "side"))
	caller := r.URL.Query().Get("owner")

	id, err := strconv.ParseUint(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "order_id must be a positive integer")
		return
	}
	if !side.Valid() {
		WriteError(w, http.StatusBadRequest, "validation_error", "side must be 'buy' or 'sell'")
		return
	}
	if caller == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "owner query parameter is required")
		return
	}

	if err := h.exchange.CancelOrder(market, caller, side, id); err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
