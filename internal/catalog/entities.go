package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductInactive
}

type Category struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

func NewCategory(name string) *Category {
	return &Category{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(name),
	}
}

type Supplier struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	ContactInfo string    `json:"contact_info" db:"contact_info"`
	Address     string    `json:"address" db:"address"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func NewSupplier(name, contactInfo, address string) *Supplier {
	now := time.Now().UTC()
	return &Supplier{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		ContactInfo: contactInfo,
		Address:     address,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Product is a sellable item. CategoryName and SupplierName are filled on
// reads from the joined rows.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	Price         decimal.Decimal `json:"price" db:"price"`
	PurchasePrice decimal.Decimal `json:"purchase_price" db:"purchase_price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	CategoryID    string          `json:"category_id" db:"category_id"`
	SupplierID    string          `json:"supplier_id" db:"supplier_id"`
	Status        ProductStatus   `json:"status" db:"status"`
	CategoryName  string          `json:"category_name"`
	SupplierName  string          `json:"supplier_name"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the product can be added to carts and orders.
func (p *Product) IsActive() bool {
	return p.Status == ProductActive
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (r CategoryRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.MissingFields("name")
	}
	return nil
}

type CreateSupplierRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactInfo string `json:"contact_info"`
	Address     string `json:"address"`
}

func (r CreateSupplierRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.MissingFields("name")
	}
	return nil
}

type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	ContactInfo *string `json:"contact_info"`
	Address     *string `json:"address"`
}

type CreateProductRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	ImageURL      string           `json:"image_url"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	StockQuantity *int             `json:"stock_quantity"`
	CategoryID    string           `json:"category_id" binding:"required"`
	SupplierID    string           `json:"supplier_id" binding:"required"`
	Status        ProductStatus    `json:"status"`
}

// Validate checks required fields, amounts and status. An empty status
// means active.
func (r CreateProductRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if r.Price == nil {
		missing = append(missing, "price")
	}
	if r.CategoryID == "" {
		missing = append(missing, "category_id")
	}
	if r.SupplierID == "" {
		missing = append(missing, "supplier_id")
	}
	if len(missing) > 0 {
		return apperr.MissingFields(missing...)
	}

	if err := validateAmounts(r.Price, r.PurchasePrice, r.StockQuantity); err != nil {
		return err
	}
	if r.Status != "" && !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if !isUUID(r.CategoryID) {
		return ErrUnknownCategory
	}
	if !isUUID(r.SupplierID) {
		return ErrUnknownSupplier
	}
	return nil
}

// UpdateProductRequest carries a partial product; nil fields are left as
// they are.
type UpdateProductRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	ImageURL      *string          `json:"image_url"`
	Price         *decimal.Decimal `json:"price"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	StockQuantity *int             `json:"stock_quantity"`
	CategoryID    *string          `json:"category_id"`
	SupplierID    *string          `json:"supplier_id"`
	Status        *ProductStatus   `json:"status"`
}

func (r UpdateProductRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return apperr.MissingFields("name")
	}
	if err := validateAmounts(r.Price, r.PurchasePrice, r.StockQuantity); err != nil {
		return err
	}
	if r.Status != nil && !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if r.CategoryID != nil && !isUUID(*r.CategoryID) {
		return ErrUnknownCategory
	}
	if r.SupplierID != nil && !isUUID(*r.SupplierID) {
		return ErrUnknownSupplier
	}
	return nil
}

// ProductFilter narrows product listings. Empty fields match everything;
// set fields combine with AND.
type ProductFilter struct {
	CategoryID string        `form:"category_id"`
	SupplierID string        `form:"supplier_id"`
	Status     ProductStatus `form:"status"`
}

func (f ProductFilter) Validate() error {
	if f.CategoryID != "" && !isUUID(f.CategoryID) {
		return apperr.ErrInvalidInput.WithMessage("category_id must be a uuid")
	}
	if f.SupplierID != "" && !isUUID(f.SupplierID) {
		return apperr.ErrInvalidInput.WithMessage("supplier_id must be a uuid")
	}
	if f.Status != "" && !f.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

var (
	ErrCategoryNotFound  = apperr.NotFound("category_not_found", "category not found")
	ErrSupplierNotFound  = apperr.NotFound("supplier_not_found", "supplier not found")
	ErrProductNotFound   = apperr.NotFound("product_not_found", "product not found")
	ErrDuplicateCategory = apperr.Conflict("duplicate_category", "Category already exists")
	ErrCategoryInUse     = apperr.Conflict("category_in_use", "category has products and cannot be deleted")
	ErrSupplierInUse     = apperr.Conflict("supplier_in_use", "supplier has products and cannot be deleted")
	ErrProductInUse      = apperr.Conflict("product_in_use", "product is referenced by orders and cannot be deleted")
	ErrUnknownCategory   = apperr.Validation("unknown_category", "category_id does not reference a category")
	ErrUnknownSupplier   = apperr.Validation("unknown_supplier", "supplier_id does not reference a supplier")
	ErrInvalidStatus     = apperr.Validation("invalid_status", "status must be active or inactive")
	ErrNegativeAmount    = apperr.Validation("negative_amount", "price, purchase_price and stock_quantity must not be negative")
	ErrAmountTooLarge    = apperr.Validation("amount_too_large", fmt.Sprintf("price and purchase_price must not exceed %s, stock_quantity must not exceed %d", database.MaxAmount.StringFixed(2), database.MaxQuantity))
)

func validateAmounts(price, purchasePrice *decimal.Decimal, stock *int) error {
	for _, amount := range []*decimal.Decimal{price, purchasePrice} {
		if amount == nil {
			continue
		}
		if amount.IsNegative() {
			return ErrNegativeAmount
		}
		if amount.GreaterThan(database.MaxAmount) {
			return ErrAmountTooLarge
		}
	}
	if stock != nil {
		if *stock < 0 {
			return ErrNegativeAmount
		}
		if *stock > database.MaxQuantity {
			return ErrAmountTooLarge
		}
	}
	return nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
