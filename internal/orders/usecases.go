package orders

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

// OrderUseCase holds the order lifecycle rules.
type OrderUseCase struct {
	repository       Repository
	ordersCreated    metric.Int64Counter
	orderTransitions metric.Int64Counter
}

func NewOrderUseCase(repository Repository, meter metric.Meter) (*OrderUseCase, error) {
	ordersCreated, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Orders placed, by origin"))
	if err != nil {
		return nil, fmt.Errorf("failed to create orders.created counter: %w", err)
	}
	orderTransitions, err := newTransitionCounter(meter)
	if err != nil {
		return nil, err
	}

	return &OrderUseCase{
		repository:       repository,
		ordersCreated:    ordersCreated,
		orderTransitions: orderTransitions,
	}, nil
}

func newTransitionCounter(meter metric.Meter) (metric.Int64Counter, error) {
	counter, err := meter.Int64Counter("orders.transitions",
		metric.WithDescription("Order status changes, by target status and cause"))
	if err != nil {
		return nil, fmt.Errorf("failed to create orders.transitions counter: %w", err)
	}
	return counter, nil
}

// CreateOrder places an order from explicit items. Prices come from the
// products as they are now and the total is computed here; a client total
// that disagrees is rejected.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, actor auth.Principal, req CreateOrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}
	if !actor.CanAccess(userID) {
		return nil, apperr.ErrForbidden.WithMessage("orders can only be placed for yourself")
	}

	log.Printf("➡️ [CREATE ORDER] UserID: %s | Items: %d", userID, len(req.Items))

	// 1. Begin the transaction
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	// 2. Price the items and write order, items and creation event
	order, err := uc.placeOrder(ctx, tx, userID, req.Items, CauseOrder)
	if err != nil {
		log.Printf("❌ CREATE ORDER FAILED | UserID=%s | Error=%v", userID, err)
		return nil, err
	}

	// 3. The client total, when sent, must match
	if req.TotalAmount != nil && !req.TotalAmount.Equal(order.TotalAmount) {
		return nil, ErrTotalMismatch.WithMessage("total_amount %s does not match the computed total %s",
			req.TotalAmount.StringFixed(2), order.TotalAmount.StringFixed(2))
	}

	// 4. Commit
	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit order: %w", err))
	}

	uc.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("cause", CauseOrder)))
	log.Printf("✅ [CREATE ORDER] OrderID: %s | Total: %s", order.ID, order.TotalAmount.StringFixed(2))
	return order, nil
}

// Checkout converts the caller's cart into a Pending order and empties the
// cart, all in one transaction.
func (uc *OrderUseCase) Checkout(ctx context.Context, actor auth.Principal) (*Order, error) {
	log.Printf("➡️ [CHECKOUT] UserID: %s", actor.UserID)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	lines, err := uc.repository.ListCartLines(ctx, tx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	order, err := uc.placeOrder(ctx, tx, actor.UserID, lines, CauseCheckout)
	if err != nil {
		log.Printf("❌ CHECKOUT FAILED | UserID=%s | Error=%v", actor.UserID, err)
		return nil, err
	}

	if err := uc.repository.ClearCart(ctx, tx, actor.UserID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit checkout: %w", err))
	}

	uc.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("cause", CauseCheckout)))
	log.Printf("✅ [CHECKOUT] OrderID: %s | Total: %s", order.ID, order.TotalAmount.StringFixed(2))
	return order, nil
}

func (uc *OrderUseCase) placeOrder(ctx context.Context, tx database.Tx, userID string, lines []Line, cause string) (*Order, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	products, err := uc.repository.GetProductsForOrder(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	priced := make([]PricedLine, 0, len(lines))
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, ErrUnknownProduct.WithMessage("product %s does not exist", line.ProductID)
		}
		if !p.Active {
			return nil, ErrProductInactive.WithMessage("product %s is not available", p.Name)
		}
		priced = append(priced, PricedLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.Quantity,
			Price:     p.Price,
		})
	}

	order := NewOrder(userID, priced)
	if order.TotalAmount.GreaterThan(database.MaxAmount) {
		return nil, ErrTotalTooLarge.WithMessage("order total %s exceeds %s",
			order.TotalAmount.StringFixed(2), database.MaxAmount.StringFixed(2))
	}
	if err := uc.repository.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	event, err := NewOrderEvent(order, "", cause, "")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := uc.repository.AppendEvent(ctx, tx, event); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns the order with its items.
func (uc *OrderUseCase) GetOrder(ctx context.Context, actor auth.Principal, id string) (*Order, error) {
	order, err := uc.repository.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		return nil, apperr.ErrForbidden
	}

	items, err := uc.repository.ListOrderItems(ctx, ItemFilter{OrderID: id})
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListOrders lists orders. Non-admins only ever see their own.
func (uc *OrderUseCase) ListOrders(ctx context.Context, actor auth.Principal, filter OrderFilter) ([]Order, error) {
	if !actor.IsAdmin {
		if filter.UserID != "" && filter.UserID != actor.UserID {
			return nil, apperr.ErrForbidden
		}
		filter.UserID = actor.UserID
	}
	return uc.repository.ListOrders(ctx, filter)
}

// UpdateStatus moves an order through the state machine on an admin's
// request. Repeating the current status changes nothing.
func (uc *OrderUseCase) UpdateStatus(ctx context.Context, actor auth.Principal, id string, status OrderStatus) (*Order, error) {
	if !actor.IsAdmin {
		return nil, apperr.ErrForbidden.WithMessage("admin role required")
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback()

	order, err := uc.repository.GetOrderForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	changed, err := order.AdvanceTo(status)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if err := recordTransition(ctx, uc.repository, tx, order, from, CauseAdmin, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit order status: %w", err))
	}

	uc.orderTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", string(order.Status)),
		attribute.String("cause", CauseAdmin),
	))
	log.Printf("🚚 [ORDER STATUS] OrderID: %s | %s -> %s", order.ID, from, order.Status)
	return order, nil
}

// DeleteOrder removes an order that has no transactions.
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, actor auth.Principal, id string) error {
	if !actor.IsAdmin {
		return apperr.ErrForbidden.WithMessage("admin role required")
	}
	if err := uc.repository.DeleteOrder(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ [DELETE ORDER] OrderID: %s", id)
	return nil
}

func (uc *OrderUseCase) ListOrderItems(ctx context.Context, actor auth.Principal, filter ItemFilter) ([]OrderItem, error) {
	if !actor.IsAdmin {
		filter.Owner = actor.UserID
	}
	return uc.repository.ListOrderItems(ctx, filter)
}

func (uc *OrderUseCase) GetOrderItem(ctx context.Context, actor auth.Principal, id string) (*OrderItem, error) {
	item, err := uc.repository.GetOrderItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(item.UserID) {
		return nil, apperr.ErrForbidden
	}
	return item, nil
}

// ListOrderEvents returns the status history of an order, oldest first.
func (uc *OrderUseCase) ListOrderEvents(ctx context.Context, actor auth.Principal, orderID string) ([]OrderEvent, error) {
	order, err := uc.repository.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(order.UserID) {
		return nil, apperr.ErrForbidden
	}
	return uc.repository.ListEvents(ctx, orderID)
}

type transitionStore interface {
	UpdateOrderStatus(ctx context.Context, tx database.Tx, order *Order) error
	AppendEvent(ctx context.Context, tx database.Tx, event *OrderEvent) error
}

// recordTransition persists the order's new status and its event in tx.
func recordTransition(ctx context.Context, store transitionStore, tx database.Tx, order *Order, from OrderStatus, cause, transactionID string) error {
	if err := store.UpdateOrderStatus(ctx, tx, order); err != nil {
		return err
	}
	event, err := NewOrderEvent(order, from, cause, transactionID)
	if err != nil {
		return apperr.Internal(err)
	}
	return store.AppendEvent(ctx, tx, event)
}
