package cart

import (
	"context"
	"errors"
	"log"

	"github.com/toxidity-18/GLAM-BACKEND/internal/catalog"
)

// ProductLookup resolves the product a cart line points at.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// CartUseCase manages the authenticated user's cart. Stock is checked but
// never reserved.
type CartUseCase struct {
	repository Repository
	products   ProductLookup
}

func NewCartUseCase(repository Repository, products ProductLookup) *CartUseCase {
	return &CartUseCase{
		repository: repository,
		products:   products,
	}
}

func (uc *CartUseCase) ListItems(ctx context.Context, userID string) ([]Item, error) {
	return uc.repository.ListItems(ctx, userID)
}

// AddItem puts quantity of a product in the cart. Adding a product that is
// already there increases that line; concurrent adds are summed by the store.
func (uc *CartUseCase) AddItem(ctx context.Context, userID string, req AddItemRequest) (*Item, error) {
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	// 1. The product must be on sale with at least the requested amount
	if err := uc.checkProduct(ctx, req.ProductID, quantity); err != nil {
		return nil, err
	}

	// 2. Increment the line; the store refuses a total above stock
	item := NewItem(userID, req.ProductID, quantity)
	if err := uc.repository.AddQuantity(ctx, item); err != nil {
		log.Printf("❌ ADD TO CART FAILED | UserID=%s | ProductID=%s | Error=%v", userID, req.ProductID, err)
		return nil, err
	}

	log.Printf("🛒 [ADD TO CART] UserID: %s | ProductID: %s | Quantity: %d", userID, req.ProductID, item.Quantity)
	return uc.repository.GetItem(ctx, userID, item.ID)
}

func (uc *CartUseCase) UpdateQuantity(ctx context.Context, userID, id string, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := uc.repository.GetItem(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := uc.checkProduct(ctx, item.ProductID, quantity); err != nil {
		return nil, err
	}

	if err := uc.repository.UpdateQuantity(ctx, userID, id, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	return item, nil
}

func (uc *CartUseCase) RemoveItem(ctx context.Context, userID, id string) error {
	return uc.repository.DeleteItem(ctx, userID, id)
}

func (uc *CartUseCase) Clear(ctx context.Context, userID string) error {
	if err := uc.repository.Clear(ctx, userID); err != nil {
		return err
	}
	log.Printf("🧹 [CLEAR CART] UserID: %s", userID)
	return nil
}

func (uc *CartUseCase) checkProduct(ctx context.Context, productID string, quantity int) error {
	product, err := uc.products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return ErrUnknownProduct
		}
		return err
	}
	if !product.IsActive() {
		return ErrProductInactive
	}
	if quantity > product.StockQuantity {
		return ErrInsufficientStock.WithMessage("only %d of %s in stock", product.StockQuantity, product.Name)
	}
	return nil
}
