package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
)

// Item is one cart line. There is at most one line per (user, product).
// ProductName, ProductImage and Price come from the product row on reads.
type Item struct {
	ID           string          `json:"id" db:"id"`
	UserID       string          `json:"user_id" db:"user_id"`
	ProductID    string          `json:"product_id" db:"product_id"`
	Quantity     int             `json:"quantity" db:"quantity"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Price        decimal.Decimal `json:"price"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

func NewItem(userID, productID string, quantity int) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItemRequest adds quantity of a product to the caller's cart. A missing
// quantity means one.
type AddItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  *int   `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

var (
	ErrItemNotFound      = apperr.NotFound("cart_item_not_found", "cart item not found")
	ErrInvalidQuantity   = apperr.Validation("invalid_quantity", "quantity must be at least 1")
	ErrInsufficientStock = apperr.Validation("insufficient_stock", "quantity exceeds available stock")
	ErrProductInactive   = apperr.Validation("product_inactive", "product is not available")
	ErrUnknownProduct    = apperr.Validation("unknown_product", "product_id does not reference a product")
)
