package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aq2208/goshop-api/internal/adapter/http/middleware"
	domain "github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	initialize *usecase.InitializePayment
	verify     *usecase.VerifyPayment
}

func NewPaymentHandler(initialize *usecase.InitializePayment, verify *usecase.VerifyPayment) *PaymentHandler {
	return &PaymentHandler{initialize: initialize, verify: verify}
}

type initiatePaymentReq struct {
	OrderID string `json:"orderId" binding:"required"`
}

type initiatePaymentResp struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
}

type paymentView struct {
	Status          string    `json:"status"`
	Reference       string    `json:"reference"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	TransactionDate time.Time `json:"transactionDate"`
}

func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req initiatePaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The gateway round trip dominates here; budget for its 30s timeout.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
	defer cancel()

	out, err := h.initialize.Execute(ctx, req.OrderID, middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Order not found")
			return
		}
		failErr(c, err)
		return
	}

	ok(c, http.StatusOK, "Payment initialized successfully", initiatePaymentResp{
		AuthorizationURL: out.AuthorizationURL,
		Reference:        out.Reference,
	})
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		fail(c, http.StatusBadRequest, "reference is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 35*time.Second)
	defer cancel()

	view, err := h.verify.Execute(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Payment not found")
			return
		}
		failErr(c, err)
		return
	}

	ok(c, http.StatusOK, "Payment verified successfully", paymentView{
		Status:          view.Status,
		Reference:       view.Reference,
		Amount:          view.Amount,
		Currency:        view.Currency,
		TransactionDate: view.TransactionDate,
	})
}
