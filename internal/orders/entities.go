package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

// OrderStatus is the lifecycle position of an order. Orders only ever move
// one step forward: Pending, Shipped, Delivered.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:   0,
	OrderStatusShipped:   1,
	OrderStatusDelivered: 2,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// CheckTransition reports whether moving from s to next changes anything.
// Repeating the current status is a no-op; anything other than a single
// step forward is rejected.
func (s OrderStatus) CheckTransition(next OrderStatus) (bool, error) {
	if !next.Valid() {
		return false, ErrInvalidOrderStatus
	}
	if s == next {
		return false, nil
	}
	if orderStatusRank[next] != orderStatusRank[s]+1 {
		return false, ErrInvalidTransition.WithMessage("cannot move order from %s to %s", s, next)
	}
	return true, nil
}

// PaymentStatus is the locally recorded payment flag of a transaction.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid
}

// CheckTransition allows Pending to Paid and repeats; Paid is final.
func (s PaymentStatus) CheckTransition(next PaymentStatus) (bool, error) {
	if !next.Valid() {
		return false, ErrInvalidPaymentStatus
	}
	if s == next {
		return false, nil
	}
	if s == PaymentPaid {
		return false, ErrInvalidTransition.WithMessage("cannot move payment from %s to %s", s, next)
	}
	return true, nil
}

type Order struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Username    string          `json:"username"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status      OrderStatus     `json:"status" db:"status"`
	Items       []OrderItem     `json:"items,omitempty"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// NewOrder builds a Pending order for userID from priced lines. Each item
// keeps the product price it was created with and the total is their sum.
func NewOrder(userID string, lines []PricedLine) *Order {
	now := time.Now().UTC()
	order := &Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		TotalAmount: decimal.Zero,
		Status:      OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, line := range lines {
		order.Items = append(order.Items, OrderItem{
			ID:          uuid.New().String(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			UserID:      userID,
			Quantity:    line.Quantity,
			Price:       line.Price,
			ProductName: line.Name,
			OrderStatus: OrderStatusPending,
			CreatedAt:   now,
		})
		order.TotalAmount = order.TotalAmount.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return order
}

// AdvanceTo moves the order to next when the state machine allows it.
func (o *Order) AdvanceTo(next OrderStatus) (bool, error) {
	changed, err := o.Status.CheckTransition(next)
	if err != nil || !changed {
		return false, err
	}
	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return true, nil
}

// MarkPaid applies a confirmed payment: Pending orders ship, later states
// are left alone.
func (o *Order) MarkPaid() bool {
	if o.Status != OrderStatusPending {
		return false
	}
	o.Status = OrderStatusShipped
	o.UpdatedAt = time.Now().UTC()
	return true
}

// OrderItem is immutable once written. Price is the product price at order
// time.
type OrderItem struct {
	ID           string          `json:"id" db:"id"`
	OrderID      string          `json:"order_id" db:"order_id"`
	ProductID    string          `json:"product_id" db:"product_id"`
	UserID       string          `json:"user_id" db:"user_id"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Price        decimal.Decimal `json:"price" db:"price"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	SupplierName string          `json:"supplier"`
	OrderStatus  OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Line is a requested product and quantity.
type Line struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity"`
}

// PricedLine is a Line with the product data read inside the order
// transaction.
type PricedLine struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

// ProductSnapshot is the product state an order is priced from.
type ProductSnapshot struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Active bool
}

type Transaction struct {
	ID            string          `json:"id" db:"id"`
	OrderID       string          `json:"order_id" db:"order_id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Name          string          `json:"name" db:"name"`
	Email         string          `json:"email" db:"email"`
	Phone         string          `json:"phone" db:"phone"`
	Address       string          `json:"address" db:"address"`
	City          string          `json:"city" db:"city"`
	ZipCode       string          `json:"zipCode" db:"zip_code"`
	PaymentStatus PaymentStatus   `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// NewTransaction records a payment against order. The amount and owner are
// taken from the order.
func NewTransaction(order *Order, req CreateTransactionRequest, status PaymentStatus) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ID:            uuid.New().String(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		Amount:        order.TotalAmount,
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Address:       strings.TrimSpace(req.Address),
		City:          strings.TrimSpace(req.City),
		ZipCode:       strings.TrimSpace(req.ZipCode),
		PaymentStatus: status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Event types written to order_events.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Causes recorded on order events.
const (
	CauseOrder    = "order"
	CauseCheckout = "checkout"
	CauseAdmin    = "admin"
	CausePayment  = "payment"
)

// OrderEvent is an append-only record of an order status change. Rows with
// no SentAt are waiting for the relay.
type OrderEvent struct {
	ID         int64           `json:"id"`
	EventID    string          `json:"event_id"`
	OrderID    string          `json:"order_id"`
	Type       string          `json:"type"`
	FromStatus OrderStatus     `json:"from_status"`
	ToStatus   OrderStatus     `json:"to_status"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
	SentAt     *time.Time      `json:"sent_at"`
}

// EventPayload is the JSON body stored with an event and published to the
// broker.
type EventPayload struct {
	EventID       string          `json:"event_id"`
	Type          string          `json:"type"`
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	FromStatus    OrderStatus     `json:"from_status,omitempty"`
	ToStatus      OrderStatus     `json:"to_status"`
	Cause         string          `json:"cause"`
	TransactionID string          `json:"transaction_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewOrderEvent records order reaching its current status from "from". An
// empty from marks creation.
func NewOrderEvent(order *Order, from OrderStatus, cause, transactionID string) (*OrderEvent, error) {
	eventType := EventOrderStatusChanged
	if from == "" {
		eventType = EventOrderCreated
	}

	payload := EventPayload{
		EventID:       uuid.New().String(),
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		FromStatus:    from,
		ToStatus:      order.Status,
		Cause:         cause,
		TransactionID: transactionID,
		OccurredAt:    order.UpdatedAt,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order event: %w", err)
	}

	return &OrderEvent{
		EventID:    payload.EventID,
		OrderID:    order.ID,
		Type:       eventType,
		FromStatus: from,
		ToStatus:   order.Status,
		Payload:    data,
		CreatedAt:  payload.OccurredAt,
	}, nil
}

// CreateOrderRequest places an order with explicit items. TotalAmount and
// Status are optional and only checked against what the server computes.
type CreateOrderRequest struct {
	UserID      string           `json:"user_id" binding:"omitempty,uuid"`
	Items       []Line           `json:"items" binding:"required,dive"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	Status      OrderStatus      `json:"status"`
}

func (r CreateOrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return apperr.MissingFields("items")
	}
	for _, line := range r.Items {
		if line.ProductID == "" {
			return apperr.MissingFields("product_id")
		}
		if line.Quantity < 1 || line.Quantity > database.MaxQuantity {
			return ErrInvalidQuantity
		}
	}
	if r.Status != "" && r.Status != OrderStatusPending {
		return ErrInitialStatus
	}
	return nil
}

type UpdateOrderRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
}

// OrderFilter narrows order listings to one user when UserID is set.
type OrderFilter struct {
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}

// ItemFilter narrows order item listings. Owner restricts to a user's orders.
type ItemFilter struct {
	OrderID string `form:"order_id" binding:"omitempty,uuid"`
	Owner   string `form:"-"`
}

// TransactionFilter narrows transaction listings. UserID matches the owner
// of the transaction's order.
type TransactionFilter struct {
	UserID  string `form:"user_id" binding:"omitempty,uuid"`
	OrderID string `form:"order_id" binding:"omitempty,uuid"`
}

// CreateTransactionRequest records a payment attempt against an order.
type CreateTransactionRequest struct {
	OrderID       string           `json:"order_id" binding:"required,uuid"`
	Amount        *decimal.Decimal `json:"amount" binding:"required"`
	Name          string           `json:"name" binding:"required"`
	Email         string           `json:"email" binding:"required"`
	Phone         string           `json:"phone" binding:"required"`
	Address       string           `json:"address" binding:"required"`
	City          string           `json:"city" binding:"required"`
	ZipCode       string           `json:"zipCode" binding:"required"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
}

// Validate reports absent fields together. An empty payment status means
// Pending.
func (r CreateTransactionRequest) Validate() error {
	var missing []string
	for _, f := range []struct {
		name, value string
	}{
		{"order_id", r.OrderID},
		{"name", r.Name},
		{"email", r.Email},
		{"phone", r.Phone},
		{"address", r.Address},
		{"city", r.City},
		{"zipCode", r.ZipCode},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if r.Amount == nil {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return apperr.MissingFields(missing...)
	}
	if r.PaymentStatus != "" && !r.PaymentStatus.Valid() {
		return ErrInvalidPaymentStatus
	}
	return nil
}

// UpdateTransactionRequest changes the payment status and, optionally, the
// contact fields.
type UpdateTransactionRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" binding:"required"`
	Name          *string       `json:"name"`
	Email         *string       `json:"email"`
	Phone         *string       `json:"phone"`
	Address       *string       `json:"address"`
	City          *string       `json:"city"`
	ZipCode       *string       `json:"zipCode"`
}

var (
	ErrOrderNotFound         = apperr.NotFound("order_not_found", "order not found")
	ErrOrderItemNotFound     = apperr.NotFound("order_item_not_found", "order item not found")
	ErrTransactionNotFound   = apperr.NotFound("transaction_not_found", "transaction not found")
	ErrInvalidTransition     = apperr.Conflict("invalid_transition", "invalid status transition")
	ErrInvalidOrderStatus    = apperr.Validation("invalid_status", "status must be Pending, Shipped or Delivered")
	ErrInvalidPaymentStatus  = apperr.Validation("invalid_payment_status", "payment_status must be Pending or Paid")
	ErrInitialStatus         = apperr.Validation("invalid_status", "new orders start as Pending")
	ErrInvalidQuantity       = apperr.Validation("invalid_quantity", fmt.Sprintf("quantity must be between 1 and %d", database.MaxQuantity))
	ErrTotalTooLarge         = apperr.Validation("total_too_large", "order total exceeds "+database.MaxAmount.StringFixed(2))
	ErrUnknownProduct        = apperr.Validation("unknown_product", "product_id does not reference a product")
	ErrProductInactive       = apperr.Validation("product_inactive", "product is not available")
	ErrTotalMismatch         = apperr.Validation("total_mismatch", "total_amount does not match the order items")
	ErrAmountMismatch        = apperr.Validation("amount_mismatch", "amount does not match the order total")
	ErrUnknownUser           = apperr.Validation("unknown_user", "user_id does not reference a user")
	ErrEmptyCart             = apperr.Validation("empty_cart", "cart is empty")
	ErrOrderHasTransactions  = apperr.Conflict("order_has_transactions", "order has transactions and cannot be deleted")
	ErrPaidTransactionDelete = apperr.Conflict("transaction_paid", "paid transactions cannot be deleted")
)
