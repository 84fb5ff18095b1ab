package orders

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
)

type OrderUseCaseInterface interface {
	CreateOrder(ctx context.Context, actor auth.Principal, req CreateOrderRequest) (*Order, error)
	Checkout(ctx context.Context, actor auth.Principal) (*Order, error)
	GetOrder(ctx context.Context, actor auth.Principal, id string) (*Order, error)
	ListOrders(ctx context.Context, actor auth.Principal, filter OrderFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, actor auth.Principal, id string, status OrderStatus) (*Order, error)
	DeleteOrder(ctx context.Context, actor auth.Principal, id string) error
	ListOrderItems(ctx context.Context, actor auth.Principal, filter ItemFilter) ([]OrderItem, error)
	GetOrderItem(ctx context.Context, actor auth.Principal, id string) (*OrderItem, error)
	ListOrderEvents(ctx context.Context, actor auth.Principal, orderID string) ([]OrderEvent, error)
}

type TransactionUseCaseInterface interface {
	RecordTransaction(ctx context.Context, actor auth.Principal, req CreateTransactionRequest) (*Transaction, error)
	UpdatePaymentStatus(ctx context.Context, actor auth.Principal, id string, req UpdateTransactionRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, actor auth.Principal, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, actor auth.Principal, filter TransactionFilter) ([]Transaction, error)
	DeleteTransaction(ctx context.Context, actor auth.Principal, id string) error
}

// OrderHandler serves orders, order items and order events.
type OrderHandler struct {
	useCase OrderUseCaseInterface
	tracer  trace.Tracer
}

func NewOrderHandler(useCase OrderUseCaseInterface, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	span.SetAttributes(
		attribute.String("user_id", actor.UserID),
		attribute.Int("items", len(req.Items)),
	)

	order, err := h.useCase.CreateOrder(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("total_amount", order.TotalAmount.StringFixed(2)),
	)
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "checkout")
	defer span.End()

	actor, _ := auth.PrincipalFrom(c)
	span.SetAttributes(attribute.String("user_id", actor.UserID))

	order, err := h.useCase.Checkout(ctx, actor)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}

	span.SetAttributes(attribute.String("order_id", order.ID))
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	h.listOrders(c, filter)
}

// ListUserOrders serves GET /users/:id/orders.
func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	h.listOrders(c, OrderFilter{UserID: c.Param("id")})
}

func (h *OrderHandler) listOrders(c *gin.Context, filter OrderFilter) {
	actor, _ := auth.PrincipalFrom(c)
	orders, err := h.useCase.ListOrders(c.Request.Context(), actor, filter)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	order, err := h.useCase.GetOrder(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_order_status")
	defer span.End()

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	span.SetAttributes(
		attribute.String("order_id", c.Param("id")),
		attribute.String("status", string(req.Status)),
	)

	order, err := h.useCase.UpdateStatus(ctx, actor, c.Param("id"), req.Status)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	if err := h.useCase.DeleteOrder(c.Request.Context(), actor, c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListOrderItems serves GET /order_items?order_id=.
func (h *OrderHandler) ListOrderItems(c *gin.Context) {
	var filter ItemFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	h.listItems(c, filter)
}

// ListItemsOfOrder serves GET /orders/:id/items.
func (h *OrderHandler) ListItemsOfOrder(c *gin.Context) {
	h.listItems(c, ItemFilter{OrderID: c.Param("id")})
}

func (h *OrderHandler) listItems(c *gin.Context, filter ItemFilter) {
	actor, _ := auth.PrincipalFrom(c)
	items, err := h.useCase.ListOrderItems(c.Request.Context(), actor, filter)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *OrderHandler) GetOrderItem(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	item, err := h.useCase.GetOrderItem(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// OrderItemsReadOnly answers writes to /order_items. Items are created with
// their order and never change.
func (h *OrderHandler) OrderItemsReadOnly(c *gin.Context) {
	c.Header("Allow", "GET")
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{
		"error": "order items are created with their order and cannot be changed",
		"code":  "method_not_allowed",
	})
}

func (h *OrderHandler) ListOrderEvents(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	events, err := h.useCase.ListOrderEvents(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// TransactionHandler serves the payment ledger.
type TransactionHandler struct {
	useCase TransactionUseCaseInterface
	tracer  trace.Tracer
}

func NewTransactionHandler(useCase TransactionUseCaseInterface, tracer trace.Tracer) *TransactionHandler {
	return &TransactionHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "record_transaction")
	defer span.End()

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	span.SetAttributes(
		attribute.String("order_id", req.OrderID),
		attribute.String("payment_status", string(req.PaymentStatus)),
	)

	txn, err := h.useCase.RecordTransaction(ctx, actor, req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}

	span.SetAttributes(attribute.String("transaction_id", txn.ID))
	c.JSON(http.StatusCreated, txn)
}

func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_payment_status")
	defer span.End()

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	actor, _ := auth.PrincipalFrom(c)
	span.SetAttributes(
		attribute.String("transaction_id", c.Param("id")),
		attribute.String("payment_status", string(req.PaymentStatus)),
	)

	txn, err := h.useCase.UpdatePaymentStatus(ctx, actor, c.Param("id"), req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	txn, err := h.useCase.GetTransaction(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var filter TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	h.list(c, filter)
}

// ListUserTransactions serves GET /users/:id/transactions.
func (h *TransactionHandler) ListUserTransactions(c *gin.Context) {
	h.list(c, TransactionFilter{UserID: c.Param("id")})
}

// ListOrderTransactions serves GET /orders/:id/transactions.
func (h *TransactionHandler) ListOrderTransactions(c *gin.Context) {
	h.list(c, TransactionFilter{OrderID: c.Param("id")})
}

func (h *TransactionHandler) list(c *gin.Context, filter TransactionFilter) {
	actor, _ := auth.PrincipalFrom(c)
	txns, err := h.useCase.ListTransactions(c.Request.Context(), actor, filter)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, txns)
}

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	actor, _ := auth.PrincipalFrom(c)
	if err := h.useCase.DeleteTransaction(c.Request.Context(), actor, c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
