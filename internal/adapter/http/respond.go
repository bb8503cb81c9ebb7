package http

import (
	"errors"
	"net/http"

	"github.com/aq2208/goshop-api/internal/entity"
	"github.com/aq2208/goshop-api/internal/logging"
	"github.com/gin-gonic/gin"
)

// envelope is the uniform response body: a success flag, a human-readable
// message, and a machine-readable status code. Failures never expose
// internal error detail.
type envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, StatusCode: status, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message, StatusCode: status})
}

// failErr maps the domain error taxonomy onto the envelope.
func failErr(c *gin.Context, err error) {
	var stockErr *domain.StockError
	var gwErr *domain.GatewayError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrInvalidSelection):
		fail(c, http.StatusBadRequest, "Invalid product present in your selection")
	case errors.Is(err, domain.ErrOrderNotPending):
		fail(c, http.StatusBadRequest, "Order already processed")
	case errors.Is(err, domain.ErrDuplicate):
		fail(c, http.StatusConflict, "Duplicate request")
	case errors.Is(err, domain.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &stockErr):
		fail(c, http.StatusBadRequest, stockErr.Error())
	case errors.As(err, &gwErr):
		status := gwErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		fail(c, status, "Payment gateway error")
	default:
		logging.From(c).Error("request failed", "err", err)
		fail(c, http.StatusInternalServerError, "Something went wrong")
	}
}
