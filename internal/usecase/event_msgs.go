package usecase

// Published to the shop.events exchange after an order commits.
type OrderCreatedMsg struct {
	OrderID  string `json:"orderId"`
	UserID   string `json:"userId"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

// Published after a payment settles and its order ships.
type PaymentSettledMsg struct {
	OrderID   string `json:"orderId"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// Queued at payment initialization; the consumer re-runs verification once.
type ReconcileTaskMsg struct {
	Reference string `json:"reference"`
}

// Sent by the fulfillment system on Kafka.
type FulfillmentStatusMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // "DELIVERED" or "CANCELLED"
}
