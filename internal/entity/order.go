package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type Order struct {
	ID        string
	UserID    string
	Status    OrderStatus
	OrderDate time.Time
	Items     []OrderItem
}

// OrderItem carries the unit price snapshotted at order-creation time.
// It is never recomputed from the live product price.
type OrderItem struct {
	ID        string
	ProductID string
	Quantity  int
	Price     int64
}

// Total is Σ(item.price × item.quantity) over the snapshotted prices.
func (o *Order) Total() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.Price * int64(it.Quantity)
	}
	return sum
}
