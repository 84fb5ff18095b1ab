package orders

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/toxidity-18/GLAM-BACKEND/internal/apperr"
	"github.com/toxidity-18/GLAM-BACKEND/internal/auth"
)

func newOrderUseCase(t *testing.T, repo *MockRepository) *OrderUseCase {
	t.Helper()
	uc, err := NewOrderUseCase(repo, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return uc
}

func customer() auth.Principal {
	return auth.Principal{UserID: uuid.NewString()}
}

func admin() auth.Principal {
	return auth.Principal{UserID: uuid.NewString(), IsAdmin: true}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateOrder_PricesFromProducts(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(MockRepository)
	tx := newMockTx()
	uc := newOrderUseCase(t, repo)
	actor := customer()

	gloss, liner := uuid.NewString(), uuid.NewString()
	req := CreateOrderRequest{Items: []Line{
		{ProductID: gloss, Quantity: 2},
		{ProductID: liner, Quantity: 1},
		{ProductID: gloss, Quantity: 1},
	}}

	repo.On("BeginTx", ctx).Return(tx, nil)
	repo.On("GetProductsForOrder", ctx, tx, []string{gloss, liner}).Return(map[string]ProductSnapshot{
		gloss: {ID: gloss, Name: "Gloss", Price: dec("20.00"), Active: true},
		liner: {ID: liner, Name: "Liner", Price: dec("40.00"), Active: true},
	}, nil)
	repo.On("CreateOrder", ctx, tx, mock.AnythingOfType("*orders.Order")).Return(nil)
	repo.On("AppendEvent", ctx, tx, mock.MatchedBy(func(e *OrderEvent) bool {
		return e.Type == EventOrderCreated && e.ToStatus == OrderStatusPending
	})).Return(nil)

	// Act
	order, err := uc.CreateOrder(ctx, actor, req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, order.UserID)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(dec("100")), order.TotalAmount.String())
	require.Len(t, order.Items, 3)
	assert.True(t, order.Items[0].Price.Equal(dec("20.00")))
	assert.Equal(t, "Liner", order.Items[1].ProductName)
	tx.AssertCalled(t, "Commit")
	repo.AssertExpectations(t)
}

func TestCreateOrder_KeepsPriceAtOrderTime(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(MockRepository)
	uc := newOrderUseCase(t, repo)
	actor := customer()
	productID := uuid.NewString()
	req := CreateOrderRequest{Items: []Line{{ProductID: productID, Quantity: 1}}}

	first, second := newMockTx(), newMockTx()
	repo.On("BeginTx", ctx).Return(first, nil).Once()
	repo.On("BeginTx", ctx).Return(second, nil).Once()
	repo.On("GetProductsForOrder", ctx, first, []string{productID}).Return(map[string]ProductSnapshot{
		productID: {ID: productID, Name: "Gloss", Price: dec("10.00"), Active: true},
	}, nil).Once()
	repo.On("GetProductsForOrder", ctx, second, []string{productID}).Return(map[string]ProductSnapshot{
		productID: {ID: productID, Name: "Gloss", Price: dec("15.00"), Active: true},
	}, nil).Once()
	repo.On("CreateOrder", ctx, mock.Anything, mock.Anything).Return(nil)
	repo.On("AppendEvent", ctx, mock.Anything, mock.Anything).Return(nil)

	// Act
	before, err := uc.CreateOrder(ctx, actor, req)
	require.NoError(t, err)
	after, err := uc.CreateOrder(ctx, actor, req)
	require.NoError(t, err)

	// Assert
	assert.True(t, before.Items[0].Price.Equal(dec("10.00")))
	assert.True(t, before.TotalAmount.Equal(dec("10.00")))
	assert.True(t, after.Items[0].Price.Equal(dec("15.00")))
}

func TestCreateOrder_Rejections(t *testing.T) {
	productID := uuid.NewString()
	line := []Line{{ProductID: productID, Quantity: 1}}
	active := map[string]ProductSnapshot{productID: {ID: productID, Name: "Gloss", Price: dec("50"), Active: true}}
	wrongTotal := dec("49.99")

	tests := []struct {
		name     string
		req      CreateOrderRequest
		products map[string]ProductSnapshot
		want     error
	}{
		{
			name:     "unknown product",
			req:      CreateOrderRequest{Items: line},
			products: map[string]ProductSnapshot{},
			want:     ErrUnknownProduct,
		},
		{
			name:     "inactive product",
			req:      CreateOrderRequest{Items: line},
			products: map[string]ProductSnapshot{productID: {ID: productID, Name: "Gloss", Price: dec("50")}},
			want:     ErrProductInactive,
		},
		{
			name:     "client total disagrees",
			req:      CreateOrderRequest{Items: line, TotalAmount: &wrongTotal},
			products: active,
			want:     ErrTotalMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := new(MockRepository)
			tx := newMockTx()
			uc := newOrderUseCase(t, repo)

			repo.On("BeginTx", ctx).Return(tx, nil)
			repo.On("GetProductsForOrder", ctx, tx, []string{productID}).Return(tt.products, nil)
			repo.On("CreateOrder", ctx, tx, mock.Anything).Return(nil).Maybe()
			repo.On("AppendEvent", ctx, tx, mock.Anything).Return(nil).Maybe()

			order, err := uc.CreateOrder(ctx, customer(), tt.req)

			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			tx.AssertNotCalled(t, "Commit")
			tx.AssertCalled(t, "Rollback")
		})
	}
}

func TestCreateOrder_TotalAboveColumnLimit(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo := new(MockRepository)
	tx := newMockTx()
	uc := newOrderUseCase(t, repo)
	productID := uuid.NewString()

	repo.On("BeginTx", ctx).Return(tx, nil)
	repo.On("GetProductsForOrder", ctx, tx, []string{productID}).Return(map[string]ProductSnapshot{
		productID: {ID: productID, Name: "Palette", Price: dec("1000.00"), Active: true},
	}, nil)

	// Act
	order, err := uc.CreateOrder(ctx, customer(), CreateOrderRequest{
		Items: []Line{{ProductID: productID, Quantity: 1_000_000}},
	})

	// Assert
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrTotalTooLarge)
	assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(apperr.KindOf(err)))
	repo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "Commit")
}

func TestCreateOrder_ForAnotherUser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	uc := newOrderUseCase(t, repo)
	req := CreateOrderRequest{
		UserID: uuid.NewString(),
		Items:  []Line{{ProductID: uuid.NewString(), Quantity: 1}},
	}

	_, err := uc.CreateOrder(ctx, customer(), req)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	repo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestCheckout(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		ctx := context.Background()
		repo := new(MockRepository)
		tx := newMockTx()
		uc := newOrderUseCase(t, repo)
		actor := customer()

		repo.On("BeginTx", ctx).Return(tx, nil)
		repo.On("ListCartLines", ctx, tx, actor.UserID).Return([]Line{}, nil)

		_, err := uc.Checkout(ctx, actor)

		assert.ErrorIs(t, err, ErrEmptyCart)
		tx.AssertNotCalled(t, "Commit")
	})

	t.Run("converts and clears the cart", func(t *testing.T) {
		ctx := context.Background()
		repo := new(MockRepository)
		tx := newMockTx()
		uc := newOrderUseCase(t, repo)
		actor := customer()
		productID := uuid.NewString()

		repo.On("BeginTx", ctx).Return(tx, nil)
		repo.On("ListCartLines", ctx, tx, actor.UserID).Return([]Line{{ProductID: productID, Quantity: 4}}, nil)
		repo.On("GetProductsForOrder", ctx, tx, []string{productID}).Return(map[string]ProductSnapshot{
			productID: {ID: productID, Name: "Gloss", Price: dec("25.00"), Active: true},
		}, nil)
		repo.On("CreateOrder", ctx, tx, mock.Anything).Return(nil)
		repo.On("AppendEvent", ctx, tx, mock.Anything).Return(nil)
		repo.On("ClearCart", ctx, tx, actor.UserID).Return(nil)

		order, err := uc.Checkout(ctx, actor)

		require.NoError(t, err)
		assert.True(t, order.TotalAmount.Equal(dec("100")))
		tx.AssertCalled(t, "Commit")
		repo.AssertExpectations(t)
	})
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		from, to   OrderStatus
		wantStatus OrderStatus
		wantWrite  bool
		wantErr    error
	}{
		{"pending to shipped", OrderStatusPending, OrderStatusShipped, OrderStatusShipped, true, nil},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, OrderStatusDelivered, true, nil},
		{"repeat is a no-op", OrderStatusShipped, OrderStatusShipped, OrderStatusShipped, false, nil},
		{"skip a step", OrderStatusPending, OrderStatusDelivered, "", false, ErrInvalidTransition},
		{"move backwards", OrderStatusDelivered, OrderStatusPending, "", false, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := new(MockRepository)
			tx := newMockTx()
			uc := newOrderUseCase(t, repo)
			order := &Order{ID: uuid.NewString(), UserID: uuid.NewString(), Status: tt.from}

			repo.On("BeginTx", ctx).Return(tx, nil)
			repo.On("GetOrderForUpdate", ctx, tx, order.ID).Return(order, nil)
			repo.On("UpdateOrderStatus", ctx, tx, order).Return(nil).Maybe()
			repo.On("AppendEvent", ctx, tx, mock.MatchedBy(func(e *OrderEvent) bool {
				return e.FromStatus == tt.from && e.ToStatus == tt.to
			})).Return(nil).Maybe()

			got, err := uc.UpdateStatus(ctx, admin(), order.ID, tt.to)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, http.StatusBadRequest, apperr.HTTPStatus(apperr.KindOf(err)))
				repo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
			if tt.wantWrite {
				repo.AssertCalled(t, "UpdateOrderStatus", ctx, tx, order)
				tx.AssertCalled(t, "Commit")
			} else {
				repo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
				repo.AssertNotCalled(t, "AppendEvent", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUpdateStatus_RequiresAdmin(t *testing.T) {
	repo := new(MockRepository)
	uc := newOrderUseCase(t, repo)

	_, err := uc.UpdateStatus(context.Background(), customer(), uuid.NewString(), OrderStatusShipped)

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGetOrder(t *testing.T) {
	ctx := context.Background()
	owner := customer()
	order := &Order{ID: uuid.NewString(), UserID: owner.UserID, Status: OrderStatusPending}
	items := []OrderItem{{ID: uuid.NewString(), OrderID: order.ID}}

	t.Run("owner sees items", func(t *testing.T) {
		repo := new(MockRepository)
		uc := newOrderUseCase(t, repo)
		repo.On("GetOrder", ctx, order.ID).Return(order, nil)
		repo.On("ListOrderItems", ctx, ItemFilter{OrderID: order.ID}).Return(items, nil)

		got, err := uc.GetOrder(ctx, owner, order.ID)

		require.NoError(t, err)
		assert.Len(t, got.Items, 1)
	})

	t.Run("other customer is forbidden", func(t *testing.T) {
		repo := new(MockRepository)
		uc := newOrderUseCase(t, repo)
		repo.On("GetOrder", ctx, order.ID).Return(order, nil)

		_, err := uc.GetOrder(ctx, customer(), order.ID)

		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("missing order", func(t *testing.T) {
		repo := new(MockRepository)
		uc := newOrderUseCase(t, repo)
		missing := uuid.NewString()
		repo.On("GetOrder", ctx, missing).Return(nil, ErrOrderNotFound)

		_, err := uc.GetOrder(ctx, owner, missing)

		assert.ErrorIs(t, err, ErrOrderNotFound)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestListOrders_ScopesCustomers(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	uc := newOrderUseCase(t, repo)
	actor := customer()
	repo.On("ListOrders", ctx, OrderFilter{UserID: actor.UserID}).Return([]Order{}, nil)

	_, err := uc.ListOrders(ctx, actor, OrderFilter{})
	require.NoError(t, err)

	_, err = uc.ListOrders(ctx, actor, OrderFilter{UserID: uuid.NewString()})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	repo.AssertExpectations(t)
}

func TestListOrderItems_ScopesCustomers(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	uc := newOrderUseCase(t, repo)
	actor := customer()
	orderID := uuid.NewString()
	repo.On("ListOrderItems", ctx, ItemFilter{OrderID: orderID, Owner: actor.UserID}).Return([]OrderItem{}, nil)
	repo.On("ListOrderItems", ctx, ItemFilter{OrderID: orderID}).Return([]OrderItem{}, nil)

	_, err := uc.ListOrderItems(ctx, actor, ItemFilter{OrderID: orderID})
	require.NoError(t, err)
	_, err = uc.ListOrderItems(ctx, admin(), ItemFilter{OrderID: orderID})
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "ListOrderItems", 2)
}

func TestDeleteOrder_WithTransactions(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	uc := newOrderUseCase(t, repo)
	id := uuid.NewString()
	repo.On("DeleteOrder", ctx, id).Return(ErrOrderHasTransactions)

	err := uc.DeleteOrder(ctx, admin(), id)

	assert.ErrorIs(t, err, ErrOrderHasTransactions)
}

func TestBeginTxFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	uc := newOrderUseCase(t, repo)
	repo.On("BeginTx", ctx).Return(nil, errors.New("connection refused"))

	_, err := uc.Checkout(ctx, customer())

	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
