package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrTicViolation        = errors.New("tic_violation")
	ErrBaseDirty           = errors.New("base_dirty")
	ErrQuoteOverflow       = errors.New("quote_overflow")
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSentinelImmutable   = errors.New("sentinel_immutable")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrFokNotSatisfied     = errors.New("fok_not_satisfied")
	ErrTakerFault          = errors.New("taker_fault")
	ErrMarketNotFound      = errors.New("market_not_found")
	ErrMarketAlreadyExists = errors.New("market_already_exists")
	ErrWebhookNotFound     = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
