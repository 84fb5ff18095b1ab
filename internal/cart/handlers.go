package cart

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
)

type CartUseCaseInterface interface {
	ListItems(ctx context.Context, userID string) ([]Item, error)
	AddItem(ctx context.Context, userID string, req AddItemRequest) (*Item, error)
	UpdateQuantity(ctx context.Context, userID, id string, quantity int) (*Item, error)
	RemoveItem(ctx context.Context, userID, id string) error
	Clear(ctx context.Context, userID string) error
}

// CartHandler serves /cart for the authenticated user.
type CartHandler struct {
	useCase CartUseCaseInterface
	tracer  trace.Tracer
}

func NewCartHandler(useCase CartUseCaseInterface, tracer trace.Tracer) *CartHandler {
	return &CartHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

func (h *CartHandler) ListItems(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	items, err := h.useCase.ListItems(c.Request.Context(), p.UserID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "add_cart_item")
	defer span.End()

	p, ok := principal(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	span.SetAttributes(
		attribute.String("user_id", p.UserID),
		attribute.String("product_id", req.ProductID),
	)

	item, err := h.useCase.AddItem(ctx, p.UserID, req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	item, err := h.useCase.UpdateQuantity(c.Request.Context(), p.UserID, c.Param("id"), *req.Quantity)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.useCase.RemoveItem(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) Clear(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.useCase.Clear(c.Request.Context(), p.UserID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.ErrUnauthorized)
	}
	return p, ok
}
