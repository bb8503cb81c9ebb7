package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/security"
	"github.com/aq2208/goshop-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPaymentRepo struct {
	payment *domain.Payment
	settled int
}

func (s *stubPaymentRepo) Create(context.Context, *domain.Payment) error { return nil }

func (s *stubPaymentRepo) GetByReference(_ context.Context, reference string) (*domain.Payment, error) {
	if s.payment != nil && s.payment.Reference == reference {
		return s.payment, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubPaymentRepo) MarkSettled(_ context.Context, reference string, txDate time.Time) (bool, error) {
	if s.payment == nil || s.payment.Reference != reference || s.payment.Status == domain.PaymentSuccess {
		return false, nil
	}
	s.payment.Status = domain.PaymentSuccess
	s.payment.TransactionDate = txDate
	s.settled++
	return true, nil
}

type stubGateway struct {
	verifyCalls int
	result      *usecase.GatewayVerifyResult
}

func (s *stubGateway) Initialize(context.Context, usecase.GatewayInitRequest) (*usecase.GatewayInitResult, error) {
	return nil, nil
}

func (s *stubGateway) Verify(context.Context, string) (*usecase.GatewayVerifyResult, error) {
	s.verifyCalls++
	return s.result, nil
}

type nopCache struct{}

func (nopCache) SetStatus(context.Context, string, string) error { return nil }
func (nopCache) GetStatus(context.Context, string) (string, bool, error) {
	return "", false, nil
}

type nopEvents struct{}

func (nopEvents) PublishOrderCreated(context.Context, usecase.OrderCreatedMsg) error     { return nil }
func (nopEvents) PublishPaymentSettled(context.Context, usecase.PaymentSettledMsg) error { return nil }
func (nopEvents) PublishReconcileTask(context.Context, usecase.ReconcileTaskMsg) error   { return nil }

const webhookSecret = "sk_test_webhook"

func newWebhookServer(t *testing.T) (*gin.Engine, *stubPaymentRepo, *stubGateway, *security.WebhookVerifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	payments := &stubPaymentRepo{payment: &domain.Payment{
		ID:        "pay-1",
		OrderID:   "ord-1",
		Status:    domain.PaymentPending,
		Amount:    2500,
		Currency:  "NGN",
		Reference: "ORDER_ord-1_20250314092653",
	}}
	gateway := &stubGateway{result: &usecase.GatewayVerifyResult{
		Status:          "success",
		Reference:       "ORDER_ord-1_20250314092653",
		Amount:          2500,
		Currency:        "NGN",
		TransactionDate: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}}
	verifier := security.NewWebhookVerifier(webhookSecret)

	reconcile := usecase.NewVerifyPayment(payments, gateway, nopCache{}, nopEvents{})
	handler := NewWebhookHandler(usecase.NewHandleWebhook(verifier, reconcile))

	r := gin.New()
	r.POST("/v1/payments/webhook", handler.HandleWebhook)
	return r, payments, gateway, verifier
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Paystack-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_ChargeSuccessSettlesPayment(t *testing.T) {
	r, payments, _, verifier := newWebhookServer(t)
	payload := []byte(`{"event":"charge.success","data":{"reference":"ORDER_ord-1_20250314092653"}}`)

	w := postWebhook(r, payload, verifier.Sign(payload))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Processed bool `json:"processed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.Processed)
	assert.Equal(t, domain.PaymentSuccess, payments.payment.Status)
	assert.Equal(t, 1, payments.settled)
}

func TestWebhook_InvalidSignatureIs401AndNoMutation(t *testing.T) {
	r, payments, gateway, _ := newWebhookServer(t)
	payload := []byte(`{"event":"charge.success","data":{"reference":"ORDER_ord-1_20250314092653"}}`)

	w := postWebhook(r, payload, "deadbeef")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid webhook signature")
	assert.Equal(t, domain.PaymentPending, payments.payment.Status)
	assert.Zero(t, gateway.verifyCalls)
}

func TestWebhook_MissingSignatureIs401(t *testing.T) {
	r, _, _, _ := newWebhookServer(t)
	payload := []byte(`{"event":"charge.success","data":{"reference":"ORDER_ord-1_20250314092653"}}`)

	w := postWebhook(r, payload, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_OtherEventsAcknowledgedUnprocessed(t *testing.T) {
	r, payments, gateway, verifier := newWebhookServer(t)
	payload := []byte(`{"event":"transfer.success","data":{"reference":"ORDER_ord-1_20250314092653"}}`)

	w := postWebhook(r, payload, verifier.Sign(payload))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Processed bool `json:"processed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.Processed)
	assert.Equal(t, domain.PaymentPending, payments.payment.Status)
	assert.Zero(t, gateway.verifyCalls)
}

func TestWebhook_ReplayIsIdempotent(t *testing.T) {
	r, payments, gateway, verifier := newWebhookServer(t)
	payload := []byte(`{"event":"charge.success","data":{"reference":"ORDER_ord-1_20250314092653"}}`)
	sig := verifier.Sign(payload)

	require.Equal(t, http.StatusOK, postWebhook(r, payload, sig).Code)
	require.Equal(t, http.StatusOK, postWebhook(r, payload, sig).Code)

	assert.Equal(t, 1, payments.settled, "settled exactly once")
	assert.Equal(t, 1, gateway.verifyCalls, "replay short-circuits before the gateway")
}
