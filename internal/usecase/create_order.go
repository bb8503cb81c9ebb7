package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/google/uuid"
)

type CreateOrderInput struct {
	UserID         string
	IdempotencyKey string
	Lines          []OrderLine
}

// CreateOrder places an order: all lines validated against locked product
// rows, stock decremented, and the order persisted as one atomic unit.
type CreateOrder struct {
	users    UserRepo
	orders   OrderRepo
	idem     IdempotencyStore
	events   EventPublisher
	currency string
}

func NewCreateOrder(users UserRepo, orders OrderRepo, idem IdempotencyStore, events EventPublisher, currency string) *CreateOrder {
	return &CreateOrder{users: users, orders: orders, idem: idem, events: events, currency: currency}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	// Fast path: idempotency recall returns the order created by the first
	// submission instead of reserving stock twice.
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, in.UserID, in.IdempotencyKey); ok {
			return uc.orders.GetByID(ctx, id)
		}
		ok, err := uc.idem.TryLock(ctx, in.UserID, in.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency lock: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicate
		}
	}

	user, err := uc.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidSelection
	}
	ids := distinctProductIDs(in.Lines)

	var order *domain.Order
	err = uc.orders.WithinTx(ctx, func(u OrderUnit) error {
		products, err := u.ProductsForUpdate(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}
		// Any unknown id aborts the whole order.
		if len(products) != len(ids) {
			return domain.ErrInvalidSelection
		}

		byID := make(map[string]*domain.Product, len(products))
		remaining := make(map[string]int, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
			remaining[products[i].ID] = products[i].Stock
		}

		// Validate every line before mutating anything. The running
		// remainder handles the same product appearing on multiple lines.
		for _, line := range in.Lines {
			p := byID[line.ProductID]
			if remaining[p.ID] < line.Quantity {
				return &domain.StockError{Product: p.Name}
			}
			remaining[p.ID] -= line.Quantity
		}

		order = &domain.Order{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			Status:    domain.OrderPending,
			OrderDate: time.Now().UTC(),
		}
		for _, line := range in.Lines {
			p := byID[line.ProductID]
			applied, err := u.DecrementStock(ctx, p.ID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock %s: %w", p.ID, err)
			}
			if !applied {
				return &domain.StockError{Product: p.Name}
			}
			order.Items = append(order.Items, domain.OrderItem{
				ID:        uuid.NewString(),
				ProductID: p.ID,
				Quantity:  line.Quantity,
				Price:     p.Price, // snapshot, never recomputed
			})
		}
		return u.InsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, in.UserID, in.IdempotencyKey, order.ID)
	}

	// Best-effort: the order is already committed, a publish failure must
	// not fail the request.
	if pubErr := uc.events.PublishOrderCreated(ctx, OrderCreatedMsg{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Total:    order.Total(),
		Currency: uc.currency,
	}); pubErr != nil {
		logging.FromCtx(ctx).Warn("order.created publish failed", "order_id", order.ID, "err", pubErr)
	}

	return order, nil
}

func distinctProductIDs(lines []OrderLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	sort.Strings(ids)
	return ids
}
