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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "orders_created_total",
	Help: "Total number of successfully placed orders",
})

type OrderHandler struct {
	create *usecase.CreateOrder
	query  usecase.OrderRepo
	cache  usecase.OrderCache
}

func NewOrderHandler(create *usecase.CreateOrder, query usecase.OrderRepo, cache usecase.OrderCache) *OrderHandler {
	return &OrderHandler{create: create, query: query, cache: cache}
}

type createOrderReq struct {
	Items []struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,gt=0"`
	} `json:"items" binding:"required,min=1,dive"`
}

type orderItemView struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

type orderView struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	OrderDate  time.Time       `json:"orderDate"`
	TotalPrice int64           `json:"totalPrice"`
	OrderItems []orderItemView `json:"orderItems"`
}

type orderSummaryView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	OrderDate time.Time `json:"orderDate"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	lines := make([]usecase.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, usecase.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.create.Execute(ctx, usecase.CreateOrderInput{
		UserID:         middleware.CurrentUserID(c),
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"), // prevent duplicated submissions
		Lines:          lines,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "User not found")
			return
		}
		failErr(c, err)
		return
	}

	ordersCreated.Inc()
	ok(c, http.StatusCreated, "Order created successfully", viewOfOrder(order))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	orders, err := h.query.ListAll(ctx)
	if err != nil {
		failErr(c, err)
		return
	}
	views := make([]orderSummaryView, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderSummaryView{
			ID: o.ID, UserID: o.UserID, Status: string(o.Status), OrderDate: o.OrderDate,
		})
	}
	ok(c, http.StatusOK, "Orders fetched successfully", views)
}

func (h *OrderHandler) MyOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	orders, err := h.query.ListByUser(ctx, middleware.CurrentUserID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, *viewOfOrder(&orders[i]))
	}
	ok(c, http.StatusOK, "Orders fetched successfully", views)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	order, err := h.query.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Order not found")
			return
		}
		failErr(c, err)
		return
	}
	if order.UserID != middleware.CurrentUserID(c) && middleware.CurrentRole(c) != domain.RoleAdmin {
		fail(c, http.StatusNotFound, "Order not found")
		return
	}
	ok(c, http.StatusOK, "Order fetched successfully", viewOfOrder(order))
}

// GetOrderStatus serves the cached status when present, falling back to the
// database.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	id := c.Param("id")
	if status, hit, err := h.cache.GetStatus(ctx, id); err == nil && hit {
		ok(c, http.StatusOK, "Order status fetched", gin.H{"id": id, "status": status})
		return
	}

	order, err := h.query.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Order not found")
			return
		}
		failErr(c, err)
		return
	}
	_ = h.cache.SetStatus(ctx, id, string(order.Status))
	ok(c, http.StatusOK, "Order status fetched", gin.H{"id": id, "status": string(order.Status)})
}

func viewOfOrder(o *domain.Order) *orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price,
		})
	}
	return &orderView{
		ID:         o.ID,
		Status:     string(o.Status),
		OrderDate:  o.OrderDate,
		TotalPrice: o.Total(),
		OrderItems: items,
	}
}
