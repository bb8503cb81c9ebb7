package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Paystack-Signature"

type WebhookHandler struct {
	hook *usecase.HandleWebhook
}

func NewWebhookHandler(hook *usecase.HandleWebhook) *WebhookHandler {
	return &WebhookHandler{hook: hook}
}

// HandleWebhook is the gateway callback. A 200 only means processing did not
// crash; it does not imply the order shipped.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	// The signature covers the exact raw bytes; read before any decoding.
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, "Failed to read request body")
		return
	}
	defer c.Request.Body.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
	defer cancel()

	processed, err := h.hook.Execute(ctx, payload, c.GetHeader(signatureHeader))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			// No detail about why: the caller failed authentication.
			fail(c, http.StatusUnauthorized, "Invalid webhook signature")
			return
		}
		failErr(c, err)
		return
	}

	ok(c, http.StatusOK, "Webhook processed", gin.H{"processed": processed})
}
