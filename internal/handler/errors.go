package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/pairbook/internal/domain"
)

// mapDomainError maps domain errors to HTTP responses.
func mapDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrMarketNotFound):
		WriteError(w, http.StatusNotFound, "market_not_found", err.Error())
	case errors.Is(err, domain.ErrMarketAlreadyExists):
		WriteError(w, http.StatusConflict, "market_already_exists", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, domain.ErrSentinelImmutable):
		WriteError(w, http.StatusBadRequest, "sentinel_immutable", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		WriteError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrTicViolation):
		WriteError(w, http.StatusBadRequest, "tic_violation", err.Error())
	case errors.Is(err, domain.ErrBaseDirty):
		WriteError(w, http.StatusConflict, "base_dirty", err.Error())
	case errors.Is(err, domain.ErrQuoteOverflow):
		WriteError(w, http.StatusBadRequest, "quote_overflow", err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		WriteError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, domain.ErrFokNotSatisfied):
		WriteError(w, http.StatusConflict, "fok_not_satisfied", err.Error())
	case errors.Is(err, domain.ErrTakerFault):
		WriteError(w, http.StatusConflict, "taker_fault", err.Error())
	case errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, "webhook_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
