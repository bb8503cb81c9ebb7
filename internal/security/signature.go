package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WebhookVerifier authenticates gateway callbacks. The expected signature is
// hex(HMAC-SHA256(rawBody, secretKey)), lowercase, over the exact raw bytes.
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secretKey string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secretKey)}
}

func (v *WebhookVerifier) Verify(payload []byte, signature string) bool {
	want := v.Sign(payload)
	// constant-time compare
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}

// Sign computes the signature the gateway would send for payload.
func (v *WebhookVerifier) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
