package usecase

import (
	"context"
	"fmt"
	"testing"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookFixture() (*HandleWebhook, *security.WebhookVerifier, *fakePaymentRepo, *fakeGateway) {
	verifier := security.NewWebhookVerifier("sk_test_secret")
	reconcile, payments, gateway, _, _ := newVerifyFixture()
	return NewHandleWebhook(verifier, reconcile), verifier, payments, gateway
}

func webhookPayload(event, reference string) []byte {
	return []byte(fmt.Sprintf(`{"event":%q,"data":{"reference":%q}}`, event, reference))
}

func TestHandleWebhook_ChargeSuccessSettles(t *testing.T) {
	uc, verifier, payments, _ := newWebhookFixture()
	payload := webhookPayload("charge.success", "ORDER_ord-1_20250314092653")

	processed, err := uc.Execute(context.Background(), payload, verifier.Sign(payload))
	require.NoError(t, err)

	assert.True(t, processed)
	assert.Len(t, payments.settled, 1)
}

func TestHandleWebhook_TamperedSignature(t *testing.T) {
	uc, verifier, payments, gateway := newWebhookFixture()
	payload := webhookPayload("charge.success", "ORDER_ord-1_20250314092653")
	sig := verifier.Sign(payload)
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = 'X'

	processed, err := uc.Execute(context.Background(), tampered, sig)

	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, processed)
	assert.Zero(t, gateway.verifyCalls)
	assert.Empty(t, payments.settled)
}

func TestHandleWebhook_UppercaseSignatureAccepted(t *testing.T) {
	uc, verifier, _, _ := newWebhookFixture()
	payload := webhookPayload("charge.success", "ORDER_ord-1_20250314092653")
	sig := verifier.Sign(payload)

	processed, err := uc.Execute(context.Background(), payload, toUpperHex(sig))
	require.NoError(t, err)
	assert.True(t, processed)
}

func toUpperHex(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestHandleWebhook_OtherEventsAreNoOps(t *testing.T) {
	uc, verifier, payments, gateway := newWebhookFixture()
	payload := webhookPayload("transfer.success", "ORDER_ord-1_20250314092653")

	processed, err := uc.Execute(context.Background(), payload, verifier.Sign(payload))
	require.NoError(t, err)

	assert.False(t, processed)
	assert.Zero(t, gateway.verifyCalls)
	assert.Empty(t, payments.settled)
}

func TestHandleWebhook_MalformedBody(t *testing.T) {
	uc, verifier, _, _ := newWebhookFixture()
	payload := []byte(`{"event":`)

	processed, err := uc.Execute(context.Background(), payload, verifier.Sign(payload))
	require.Error(t, err)
	assert.False(t, processed)
}

func TestHandleWebhook_ReconcileFailureAcksAnyway(t *testing.T) {
	// Unknown reference makes the reconciler fail; the gateway still gets a
	// clean ack so it stops redelivering.
	uc, verifier, _, _ := newWebhookFixture()
	payload := webhookPayload("charge.success", "ORDER_ghost_20250101000000")

	processed, err := uc.Execute(context.Background(), payload, verifier.Sign(payload))
	require.NoError(t, err)
	assert.False(t, processed)
}
