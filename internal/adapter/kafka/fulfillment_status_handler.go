package kafka

import (
	"context"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/aq2208/goshop-api/internal/usecase"
)

// FulfillmentStatusHandler applies externally-sourced order transitions:
// SHIPPED→DELIVERED and PENDING→CANCELLED. PENDING→SHIPPED stays with the
// payment reconciler; an event naming it is ignored.
type FulfillmentStatusHandler struct {
	Repo  usecase.OrderRepo
	Cache usecase.OrderCache // optional
}

func NewFulfillmentStatusHandler(repo usecase.OrderRepo, cache usecase.OrderCache) *FulfillmentStatusHandler {
	return &FulfillmentStatusHandler{Repo: repo, Cache: cache}
}

func (h *FulfillmentStatusHandler) Handle(ctx context.Context, ev usecase.FulfillmentStatusMsg) error {
	var from, to domain.OrderStatus
	switch ev.Status {
	case string(domain.OrderDelivered):
		from, to = domain.OrderShipped, domain.OrderDelivered
	case string(domain.OrderCancelled):
		from, to = domain.OrderPending, domain.OrderCancelled
	default:
		// Unknown or reconciler-owned status: drop rather than redeliver.
		logging.FromCtx(ctx).Warn("ignoring fulfillment status",
			"order_id", ev.OrderID, "status", ev.Status)
		return nil
	}

	applied, err := h.Repo.UpdateStatusIf(ctx, ev.OrderID, from, to)
	if err != nil {
		return err
	}
	if applied && h.Cache != nil {
		_ = h.Cache.SetStatus(ctx, ev.OrderID, string(to))
	}
	return nil
}
