package queue

import (
	"context"

	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/aq2208/goshop-api/internal/usecase"
)

// ReconcileHandler re-runs settlement verification for references queued at
// payment initialization. The reconciler is idempotent, so re-verifying a
// payment the webhook already settled is a no-op; a payment the gateway still
// reports pending is dropped here and left to client polling.
type ReconcileHandler struct {
	reconcile *usecase.VerifyPayment
}

func NewReconcileHandler(reconcile *usecase.VerifyPayment) *ReconcileHandler {
	return &ReconcileHandler{reconcile: reconcile}
}

// HandleReconcile is wired through queue.JSONHandler[usecase.ReconcileTaskMsg].
func (h *ReconcileHandler) HandleReconcile(ctx context.Context, msg usecase.ReconcileTaskMsg) error {
	view, err := h.reconcile.Execute(ctx, msg.Reference)
	if err != nil {
		// NACK and let the router requeue; the gateway may be back later.
		return err
	}
	logging.FromCtx(ctx).Info("reconcile sweep",
		"reference", msg.Reference, "status", view.Status)
	return nil
}
