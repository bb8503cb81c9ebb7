package usecase

import (
	"context"
	"regexp"
	"testing"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentRepo struct {
	byReference map[string]*domain.Payment
	settled     []string
	markResult  bool
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byReference: map[string]*domain.Payment{}, markResult: true}
}

func (f *fakePaymentRepo) Create(_ context.Context, p *domain.Payment) error {
	f.byReference[p.Reference] = p
	return nil
}

func (f *fakePaymentRepo) GetByReference(_ context.Context, reference string) (*domain.Payment, error) {
	if p, ok := f.byReference[reference]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakePaymentRepo) MarkSettled(_ context.Context, reference string, txDate time.Time) (bool, error) {
	p, ok := f.byReference[reference]
	if !ok || !f.markResult {
		return false, nil
	}
	if p.Status == domain.PaymentSuccess {
		return false, nil
	}
	p.Status = domain.PaymentSuccess
	p.TransactionDate = txDate
	f.settled = append(f.settled, reference)
	return true, nil
}

type fakeGateway struct {
	initReqs   []GatewayInitRequest
	initResult *GatewayInitResult
	initErr    error

	verifyCalls  int
	verifyResult *GatewayVerifyResult
	verifyErr    error
}

func (f *fakeGateway) Initialize(_ context.Context, req GatewayInitRequest) (*GatewayInitResult, error) {
	f.initReqs = append(f.initReqs, req)
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.initResult, nil
}

func (f *fakeGateway) Verify(_ context.Context, reference string) (*GatewayVerifyResult, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verifyResult, nil
}

func newInitializeFixture(t *testing.T) (*InitializePayment, *fakeOrderStore, *fakePaymentRepo, *fakeGateway) {
	t.Helper()

	users := &fakeUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleCustomer},
	}}
	orders := &fakeOrderStore{inserted: []*domain.Order{{
		ID:        "ord-1",
		UserID:    "u1",
		Status:    domain.OrderPending,
		OrderDate: time.Now().UTC(),
		Items: []domain.OrderItem{
			{ID: "i1", ProductID: "p1", Quantity: 2, Price: 1000},
			{ID: "i2", ProductID: "p2", Quantity: 1, Price: 500},
		},
	}}}
	payments := newFakePaymentRepo()
	gateway := &fakeGateway{initResult: &GatewayInitResult{
		AuthorizationURL: "https://checkout.example/abc",
		AccessCode:       "abc",
		Reference:        "ignored",
	}}

	uc := NewInitializePayment(orders, users, payments, gateway, &fakeEvents{},
		"https://shop.example/v1/payments/verify", "NGN")
	return uc, orders, payments, gateway
}

func TestInitializePayment_BuildsReferenceAndPersistsPendingRow(t *testing.T) {
	uc, _, payments, gateway := newInitializeFixture(t)
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	uc.now = func() time.Time { return at }

	out, err := uc.Execute(context.Background(), "ord-1", "u1")
	require.NoError(t, err)

	assert.Equal(t, "ORDER_ord-1_20250314092653", out.Reference)
	assert.Equal(t, "https://checkout.example/abc", out.AuthorizationURL)

	require.Len(t, gateway.initReqs, 1)
	req := gateway.initReqs[0]
	assert.Equal(t, int64(2500), req.Amount, "major units at the port")
	assert.Equal(t, "NGN", req.Currency)
	assert.Equal(t, "ada@example.com", req.Email)
	assert.Equal(t, out.Reference, req.Reference)
	assert.Equal(t, "https://shop.example/v1/payments/verify", req.CallbackURL)

	p, err := payments.GetByReference(context.Background(), out.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Equal(t, "ord-1", p.OrderID)
	assert.Equal(t, int64(2500), p.Amount)
	assert.Equal(t, "Paystack", p.Method)
}

func TestInitializePayment_ReferenceFormat(t *testing.T) {
	ref := NewReference("ord-9", time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^ORDER_ord-9_\d{14}$`), ref)
	assert.Equal(t, "ORDER_ord-9_20251231235959", ref)
}

func TestInitializePayment_UnknownOrder(t *testing.T) {
	uc, _, _, _ := newInitializeFixture(t)

	_, err := uc.Execute(context.Background(), "missing", "u1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitializePayment_ForeignOrderLooksAbsent(t *testing.T) {
	uc, _, _, gateway := newInitializeFixture(t)

	_, err := uc.Execute(context.Background(), "ord-1", "someone-else")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, gateway.initReqs)
}

func TestInitializePayment_RejectsNonPendingOrder(t *testing.T) {
	uc, orders, _, gateway := newInitializeFixture(t)
	orders.inserted[0].Status = domain.OrderShipped

	_, err := uc.Execute(context.Background(), "ord-1", "u1")
	require.ErrorIs(t, err, domain.ErrOrderNotPending)
	assert.Empty(t, gateway.initReqs)
}

func TestInitializePayment_GatewayErrorLeavesNoRow(t *testing.T) {
	uc, _, payments, gateway := newInitializeFixture(t)
	gateway.initErr = &domain.GatewayError{StatusCode: 503, Message: "down"}

	_, err := uc.Execute(context.Background(), "ord-1", "u1")

	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 503, gwErr.StatusCode)
	assert.Empty(t, payments.byReference)
}

func TestInitializePayment_ReconcileTaskEnqueued(t *testing.T) {
	uc, _, _, _ := newInitializeFixture(t)
	events := &fakeEvents{}
	uc.events = events

	out, err := uc.Execute(context.Background(), "ord-1", "u1")
	require.NoError(t, err)

	require.Len(t, events.reconcileTasks, 1)
	assert.Equal(t, out.Reference, events.reconcileTasks[0].Reference)
}
