package usecase

import (
	"context"
	"fmt"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var paymentsSettled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "payments_settled_total",
	Help: "Total number of payments transitioned to SUCCESS",
})

// PaymentView is what both confirmation paths return to their callers.
type PaymentView struct {
	Status          string
	Reference       string
	Amount          int64
	Currency        string
	TransactionDate time.Time
}

// VerifyPayment is the single authority for settlement transitions. The
// client-poll endpoint, the gateway webhook, and the reconcile queue all
// funnel through Execute, which is idempotent: once a payment is SUCCESS,
// re-invocation returns the stored confirmation without touching the gateway
// or rewriting state.
type VerifyPayment struct {
	payments PaymentRepo
	gateway  Gateway
	cache    OrderCache
	events   EventPublisher
}

func NewVerifyPayment(payments PaymentRepo, gateway Gateway, cache OrderCache, events EventPublisher) *VerifyPayment {
	return &VerifyPayment{payments: payments, gateway: gateway, cache: cache, events: events}
}

func (uc *VerifyPayment) Execute(ctx context.Context, reference string) (*PaymentView, error) {
	payment, err := uc.payments.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("resolve payment: %w", err)
	}

	// Already settled: cheap no-op. The webhook and a client poll race here
	// by design.
	if payment.Status == domain.PaymentSuccess {
		return viewOf(payment, string(domain.PaymentSuccess), payment.TransactionDate), nil
	}

	remote, err := uc.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	if remote.Status != "success" {
		// The gateway has not confirmed the charge. No local write: there is
		// deliberately no PENDING→FAILED path, the payment stays PENDING and
		// the caller sees the gateway-reported status.
		return viewOf(payment, remote.Status, remote.TransactionDate), nil
	}

	applied, err := uc.payments.MarkSettled(ctx, reference, remote.TransactionDate)
	if err != nil {
		return nil, fmt.Errorf("settle payment: %w", err)
	}
	if applied {
		paymentsSettled.Inc()
		_ = uc.cache.SetStatus(ctx, payment.OrderID, string(domain.OrderShipped))
		if pubErr := uc.events.PublishPaymentSettled(ctx, PaymentSettledMsg{
			OrderID:   payment.OrderID,
			Reference: reference,
			Amount:    payment.Amount,
			Currency:  payment.Currency,
		}); pubErr != nil {
			logging.FromCtx(ctx).Warn("payment.settled publish failed", "reference", reference, "err", pubErr)
		}
	}

	return viewOf(payment, string(domain.PaymentSuccess), remote.TransactionDate), nil
}

func viewOf(p *domain.Payment, status string, txDate time.Time) *PaymentView {
	return &PaymentView{
		Status:          status,
		Reference:       p.Reference,
		Amount:          p.Amount,
		Currency:        p.Currency,
		TransactionDate: txDate,
	}
}
