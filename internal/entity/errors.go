package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidSelection = errors.New("invalid product present in selection")
	ErrOrderNotPending  = errors.New("order already processed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrDuplicate        = errors.New("duplicate idempotency key")
)

// StockError reports the first item that failed the stock check.
type StockError struct {
	Product string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Product)
}

// GatewayError is any non-2xx or timed-out response from the payment gateway.
// Timeouts carry StatusCode 0.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment gateway error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payment gateway error (%d)", e.StatusCode)
}
