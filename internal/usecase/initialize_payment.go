package usecase

import (
	"context"
	"fmt"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/google/uuid"
)

const paymentMethod = "Paystack"

type InitializePaymentOutput struct {
	AuthorizationURL string
	Reference        string
}

// InitializePayment creates a remote gateway transaction for a pending order
// and records the local Payment row before returning. The gateway call runs
// outside any database transaction; the order is already committed.
type InitializePayment struct {
	orders      OrderRepo
	users       UserRepo
	payments    PaymentRepo
	gateway     Gateway
	events      EventPublisher
	callbackURL string
	currency    string
	now         func() time.Time
}

func NewInitializePayment(orders OrderRepo, users UserRepo, payments PaymentRepo, gateway Gateway, events EventPublisher, callbackURL, currency string) *InitializePayment {
	return &InitializePayment{
		orders:      orders,
		users:       users,
		payments:    payments,
		gateway:     gateway,
		events:      events,
		callbackURL: callbackURL,
		currency:    currency,
		now:         time.Now,
	}
}

func (uc *InitializePayment) Execute(ctx context.Context, orderID, userID string) (*InitializePaymentOutput, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("resolve order: %w", err)
	}
	if order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if order.Status != domain.OrderPending {
		return nil, domain.ErrOrderNotPending
	}

	user, err := uc.users.GetByID(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve payer: %w", err)
	}

	total := order.Total()
	reference := NewReference(order.ID, uc.now().UTC())

	res, err := uc.gateway.Initialize(ctx, GatewayInitRequest{
		Amount:      total,
		Currency:    uc.currency,
		Email:       user.Email,
		Reference:   reference,
		CallbackURL: uc.callbackURL,
	})
	if err != nil {
		return nil, err
	}

	// Persist before returning control: once the gateway has accepted the
	// reference, a missing local row would be unreconcilable.
	payment := &domain.Payment{
		ID:              uuid.NewString(),
		OrderID:         order.ID,
		Method:          paymentMethod,
		Status:          domain.PaymentPending,
		Amount:          total,
		Currency:        uc.currency,
		Reference:       reference,
		TransactionDate: uc.now().UTC(),
	}
	if err := uc.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	if pubErr := uc.events.PublishReconcileTask(ctx, ReconcileTaskMsg{Reference: reference}); pubErr != nil {
		logging.FromCtx(ctx).Warn("reconcile task publish failed", "reference", reference, "err", pubErr)
	}

	return &InitializePaymentOutput{
		AuthorizationURL: res.AuthorizationURL,
		Reference:        reference,
	}, nil
}

// NewReference builds the gateway correlation key: ORDER_<orderId>_<UTC ts>.
// It must never be regenerated for the same attempt.
func NewReference(orderID string, at time.Time) string {
	return fmt.Sprintf("ORDER_%s_%s", orderID, at.Format("20060102150405"))
}
