package domain

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// Payment correlates a local order with a remote gateway transaction through
// its Reference, the only key both sides share.
type Payment struct {
	ID              string
	OrderID         string
	Method          string
	Status          PaymentStatus
	Amount          int64 // major currency units; gateway speaks minor units
	Currency        string
	Reference       string
	TransactionDate time.Time
}
