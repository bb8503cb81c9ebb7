package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign_KnownVector(t *testing.T) {
	v := NewWebhookVerifier("key")
	got := v.Sign([]byte("The quick brown fox jumps over the lazy dog"))
	assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", got)
}

func TestVerify_RoundTrip(t *testing.T) {
	v := NewWebhookVerifier("sk_test_secret")
	payload := []byte(`{"event":"charge.success","data":{"reference":"ORDER_1_20250101000000"}}`)

	assert.True(t, v.Verify(payload, v.Sign(payload)))
}

func TestVerify_CaseInsensitiveHex(t *testing.T) {
	v := NewWebhookVerifier("sk_test_secret")
	payload := []byte(`{"event":"charge.success"}`)

	assert.True(t, v.Verify(payload, strings.ToUpper(v.Sign(payload))))
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	v := NewWebhookVerifier("sk_test_secret")
	payload := []byte(`{"event":"charge.success"}`)
	sig := v.Sign(payload)

	assert.False(t, v.Verify([]byte(`{"event":"charge.failed"}`), sig))
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"event":"charge.success"}`)
	sig := NewWebhookVerifier("other-secret").Sign(payload)

	assert.False(t, NewWebhookVerifier("sk_test_secret").Verify(payload, sig))
}

func TestVerify_RejectsGarbageSignature(t *testing.T) {
	v := NewWebhookVerifier("sk_test_secret")
	assert.False(t, v.Verify([]byte("{}"), "not-hex-at-all"))
	assert.False(t, v.Verify([]byte("{}"), ""))
}
