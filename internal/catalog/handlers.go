package catalog

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
)

type CatalogUseCaseInterface interface {
	CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*Category, error)
	DeleteCategory(ctx context.Context, id string) error

	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*Supplier, error)
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (*Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type CatalogHandler struct {
	useCase CatalogUseCaseInterface
	tracer  trace.Tracer
}

func NewCatalogHandler(useCase CatalogUseCaseInterface, tracer trace.Tracer) *CatalogHandler {
	return &CatalogHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	respond(c, http.StatusOK, categories, err)
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.useCase.GetCategory(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, category, err)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	category, err := h.useCase.CreateCategory(c.Request.Context(), req)
	respond(c, http.StatusCreated, category, err)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	category, err := h.useCase.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	respond(c, http.StatusOK, category, err)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	respondDeleted(c, h.useCase.DeleteCategory(c.Request.Context(), c.Param("id")))
}

func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.useCase.ListSuppliers(c.Request.Context())
	respond(c, http.StatusOK, suppliers, err)
}

func (h *CatalogHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.useCase.GetSupplier(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, supplier, err)
}

func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	supplier, err := h.useCase.CreateSupplier(c.Request.Context(), req)
	respond(c, http.StatusCreated, supplier, err)
}

func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	var req UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	supplier, err := h.useCase.UpdateSupplier(c.Request.Context(), c.Param("id"), req)
	respond(c, http.StatusOK, supplier, err)
}

func (h *CatalogHandler) DeleteSupplier(c *gin.Context) {
	respondDeleted(c, h.useCase.DeleteSupplier(c.Request.Context(), c.Param("id")))
}

// ListProducts serves GET /products?category_id=&supplier_id=&status=.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}
	products, err := h.useCase.ListProducts(c.Request.Context(), filter)
	respond(c, http.StatusOK, products, err)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.useCase.GetProduct(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, product, err)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_product")
	defer span.End()

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	span.SetAttributes(
		attribute.String("category_id", req.CategoryID),
		attribute.String("supplier_id", req.SupplierID),
	)

	product, err := h.useCase.CreateProduct(ctx, req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}
	span.SetAttributes(attribute.String("product_id", product.ID))
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_product")
	defer span.End()

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.FromBinding(err))
		return
	}

	span.SetAttributes(attribute.String("product_id", c.Param("id")))
	product, err := h.useCase.UpdateProduct(ctx, c.Param("id"), req)
	if err != nil {
		span.RecordError(err)
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	respondDeleted(c, h.useCase.DeleteProduct(c.Request.Context(), c.Param("id")))
}

func respond(c *gin.Context, status int, body any, err error) {
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(status, body)
}

func respondDeleted(c *gin.Context, err error) {
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
