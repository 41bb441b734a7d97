package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/pairbook/internal/domain"
	"github.com/efreitasn/pairbook/internal/service"
)

// AccountHandler handles HTTP requests for ledger endpoints.
type AccountHandler struct {
	exchange *service.Exchange
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(exchange *service.Exchange) *AccountHandler {
	return &AccountHandler{exchange: exchange}
}

// depositRequest is the JSON request body for POST /markets/{market}/deposits.
type depositRequest struct {
	Owner  string `json:"owner"`
	Role   string `json:"role"`
	Amount uint64 `json:"amount"`
}

// withdrawRequest is the JSON request body for POST /markets/{market}/withdrawals.
type withdrawRequest struct {
	Owner     string `json:"owner"`
	Role      string `json:"role"`
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
}

// Deposit handles POST /markets/{market}/deposits.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")

	var req depositRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.exchange.Deposit(market, req.Owner, domain.AssetRole(req.Role), req.Amount); err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"status": "deposited"})
}

// Withdraw handles POST /markets/{market}/withdrawals. The recipient
// defaults to the owner when omitted.
func (h *AccountHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")

	var req withdrawRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Recipient == "" {
		req.Recipient = req.Owner
	}

	if err := h.exchange.Withdraw(market, req.Owner, domain.AssetRole(req.Role), req.Amount, req.Recipient); err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"status": "withdrawn"})
}

// GetBalances handles GET /markets/{market}/balances/{owner}.
func (h *AccountHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	market := chi.URLParam(r, "market")
	owner := chi.URLParam(r, "owner")

	balances, err := h.exchange.Balances(market, owner)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"market":   market,
		"owner":    owner,
		"balances": balances,
	})
}
