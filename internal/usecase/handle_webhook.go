package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/logging"
)

// SignatureVerifier checks a gateway callback signature against the exact raw
// payload bytes.
type SignatureVerifier interface {
	Verify(payload []byte, signature string) bool
}

type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// HandleWebhook is the gateway-initiated confirmation path. It authenticates
// the callback and hands charge.success events to the same reconciler the
// polling path uses; the two are interchangeable idempotent callers.
type HandleWebhook struct {
	verifier  SignatureVerifier
	reconcile *VerifyPayment
}

func NewHandleWebhook(verifier SignatureVerifier, reconcile *VerifyPayment) *HandleWebhook {
	return &HandleWebhook{verifier: verifier, reconcile: reconcile}
}

// Execute returns whether settlement was reconciled. A nil error only means
// processing did not crash; the gateway should stop retrying either way.
func (uc *HandleWebhook) Execute(ctx context.Context, payload []byte, signature string) (bool, error) {
	if !uc.verifier.Verify(payload, signature) {
		return false, domain.ErrUnauthorized
	}

	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return false, fmt.Errorf("decode webhook event: %w", err)
	}

	// Anything but charge.success is acknowledged as a no-op so the gateway
	// stops redelivering.
	if ev.Event != "charge.success" {
		return false, nil
	}

	if _, err := uc.reconcile.Execute(ctx, ev.Data.Reference); err != nil {
		logging.FromCtx(ctx).Warn("webhook reconciliation failed",
			"reference", ev.Data.Reference, "err", err)
		return false, nil
	}
	return true, nil
}
