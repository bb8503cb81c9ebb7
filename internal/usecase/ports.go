package usecase

import (
	"context"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
)

// OrderLine is one requested cart entry.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// OrderUnit is the transactional scope of a single order placement.
// Implementations must keep the touched product rows pinned for the lifetime
// of the unit.
type OrderUnit interface {
	// ProductsForUpdate locks and returns the product rows for ids, ordered
	// by id so concurrent placements acquire locks in the same order.
	ProductsForUpdate(ctx context.Context, ids []string) ([]domain.Product, error)
	// DecrementStock applies stock = stock - qty guarded by stock >= qty.
	// The affected-row count is the success signal.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	InsertOrder(ctx context.Context, o *domain.Order) error
}

type OrderRepo interface {
	WithinTx(ctx context.Context, fn func(u OrderUnit) error) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// UpdateStatusIf performs a guarded from→to transition. false means the
	// row was absent or no longer in fromStatus.
	UpdateStatusIf(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
}

type PaymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByReference(ctx context.Context, reference string) (*domain.Payment, error)
	// MarkSettled flips the payment to SUCCESS and its order to SHIPPED in
	// one transaction, both transitions guarded. false means another caller
	// settled the reference first.
	MarkSettled(ctx context.Context, reference string, txDate time.Time) (bool, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, msg OrderCreatedMsg) error
	PublishPaymentSettled(ctx context.Context, msg PaymentSettledMsg) error
	PublishReconcileTask(ctx context.Context, msg ReconcileTaskMsg) error
}

// Gateway is the outbound port to the payment provider. Amounts cross this
// boundary in major currency units; minor-unit conversion is the provider
// adapter's business.
type Gateway interface {
	Initialize(ctx context.Context, req GatewayInitRequest) (*GatewayInitResult, error)
	Verify(ctx context.Context, reference string) (*GatewayVerifyResult, error)
}

type GatewayInitRequest struct {
	Amount      int64
	Currency    string
	Email       string
	Reference   string
	CallbackURL string
}

type GatewayInitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type GatewayVerifyResult struct {
	Status          string
	Reference       string
	Amount          int64
	Currency        string
	TransactionDate time.Time
}
