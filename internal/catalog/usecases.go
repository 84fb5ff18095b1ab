package catalog

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
)

// CatalogUseCase holds the catalog rules. Admin gating happens at the router.
type CatalogUseCase struct {
	repository Repository
}

func NewCatalogUseCase(repository Repository) *CatalogUseCase {
	return &CatalogUseCase{repository: repository}
}

func (uc *CatalogUseCase) CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	category := NewCategory(req.Name)
	if err := uc.repository.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	log.Printf("✅ [CREATE CATEGORY] CategoryID: %s | Name: %s", category.ID, category.Name)
	return category, nil
}

func (uc *CatalogUseCase) GetCategory(ctx context.Context, id string) (*Category, error) {
	return uc.repository.GetCategory(ctx, id)
}

func (uc *CatalogUseCase) ListCategories(ctx context.Context) ([]Category, error) {
	return uc.repository.ListCategories(ctx)
}

func (uc *CatalogUseCase) UpdateCategory(ctx context.Context, id string, req CategoryRequest) (*Category, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	category := &Category{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := uc.repository.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (uc *CatalogUseCase) DeleteCategory(ctx context.Context, id string) error {
	if err := uc.repository.DeleteCategory(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ [DELETE CATEGORY] CategoryID: %s", id)
	return nil
}

func (uc *CatalogUseCase) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*Supplier, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	supplier := NewSupplier(req.Name, req.ContactInfo, req.Address)
	if err := uc.repository.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	log.Printf("✅ [CREATE SUPPLIER] SupplierID: %s", supplier.ID)
	return supplier, nil
}

func (uc *CatalogUseCase) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	return uc.repository.GetSupplier(ctx, id)
}

func (uc *CatalogUseCase) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return uc.repository.ListSuppliers(ctx)
}

func (uc *CatalogUseCase) UpdateSupplier(ctx context.Context, id string, req UpdateSupplierRequest) (*Supplier, error) {
	supplier, err := uc.repository.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.MissingFields("name")
		}
		supplier.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactInfo != nil {
		supplier.ContactInfo = *req.ContactInfo
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}

	supplier.UpdatedAt = time.Now().UTC()
	if err := uc.repository.UpdateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (uc *CatalogUseCase) DeleteSupplier(ctx context.Context, id string) error {
	if err := uc.repository.DeleteSupplier(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ [DELETE SUPPLIER] SupplierID: %s", id)
	return nil
}

// CreateProduct validates the payload and stores the product. Category and
// supplier must already exist.
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &Product{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		Price:         *req.Price,
		PurchasePrice: decimal.Zero,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		Status:        ProductActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.Status != "" {
		product.Status = req.Status
	}

	if err := uc.repository.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	log.Printf("✅ [CREATE PRODUCT] ProductID: %s | Price: %s", product.ID, product.Price)
	return uc.repository.GetProduct(ctx, product.ID)
}

func (uc *CatalogUseCase) GetProduct(ctx context.Context, id string) (*Product, error) {
	return uc.repository.GetProduct(ctx, id)
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return uc.repository.ListProducts(ctx, filter)
}

// UpdateProduct applies a partial update. Price changes never touch order
// items, which keep the price they were created with.
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := uc.repository.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.PurchasePrice != nil {
		product.PurchasePrice = *req.PurchasePrice
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.SupplierID != nil {
		product.SupplierID = *req.SupplierID
	}
	if req.Status != nil {
		product.Status = *req.Status
	}

	product.UpdatedAt = time.Now().UTC()
	if err := uc.repository.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	return uc.repository.GetProduct(ctx, id)
}

func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, id string) error {
	if err := uc.repository.DeleteProduct(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ [DELETE PRODUCT] ProductID: %s", id)
	return nil
}
