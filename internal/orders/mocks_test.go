package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

// MockTx records whether the use case committed.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback() error {
	return m.Called().Error(0)
}

func newMockTx() *MockTx {
	tx := new(MockTx)
	tx.On("Commit").Return(nil).Maybe()
	tx.On("Rollback").Return(nil).Maybe()
	return tx
}

// MockRepository implements Repository, LedgerRepository and EventStore.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(database.Tx)
	return tx, args.Error(1)
}

func (m *MockRepository) CreateOrder(ctx context.Context, tx database.Tx, order *Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockRepository) GetOrder(ctx context.Context, id string) (*Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*Order)
	return o, args.Error(1)
}

func (m *MockRepository) GetOrderForUpdate(ctx context.Context, tx database.Tx, id string) (*Order, error) {
	args := m.Called(ctx, tx, id)
	o, _ := args.Get(0).(*Order)
	return o, args.Error(1)
}

func (m *MockRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Order), args.Error(1)
}

func (m *MockRepository) UpdateOrderStatus(ctx context.Context, tx database.Tx, order *Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockRepository) DeleteOrder(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) GetOrderItem(ctx context.Context, id string) (*OrderItem, error) {
	args := m.Called(ctx, id)
	it, _ := args.Get(0).(*OrderItem)
	return it, args.Error(1)
}

func (m *MockRepository) ListOrderItems(ctx context.Context, filter ItemFilter) ([]OrderItem, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]OrderItem), args.Error(1)
}

func (m *MockRepository) GetProductsForOrder(ctx context.Context, tx database.Tx, productIDs []string) (map[string]ProductSnapshot, error) {
	args := m.Called(ctx, tx, productIDs)
	p, _ := args.Get(0).(map[string]ProductSnapshot)
	return p, args.Error(1)
}

func (m *MockRepository) ListCartLines(ctx context.Context, tx database.Tx, userID string) ([]Line, error) {
	args := m.Called(ctx, tx, userID)
	lines, _ := args.Get(0).([]Line)
	return lines, args.Error(1)
}

func (m *MockRepository) ClearCart(ctx context.Context, tx database.Tx, userID string) error {
	return m.Called(ctx, tx, userID).Error(0)
}

func (m *MockRepository) AppendEvent(ctx context.Context, tx database.Tx, event *OrderEvent) error {
	return m.Called(ctx, tx, event).Error(0)
}

func (m *MockRepository) ListEvents(ctx context.Context, orderID string) ([]OrderEvent, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]OrderEvent), args.Error(1)
}

func (m *MockRepository) CreateTransaction(ctx context.Context, tx database.Tx, txn *Transaction) error {
	return m.Called(ctx, tx, txn).Error(0)
}

func (m *MockRepository) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*Transaction)
	return t, args.Error(1)
}

func (m *MockRepository) GetTransactionForUpdate(ctx context.Context, tx database.Tx, id string) (*Transaction, error) {
	args := m.Called(ctx, tx, id)
	t, _ := args.Get(0).(*Transaction)
	return t, args.Error(1)
}

func (m *MockRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Transaction), args.Error(1)
}

func (m *MockRepository) UpdateTransaction(ctx context.Context, tx database.Tx, txn *Transaction) error {
	return m.Called(ctx, tx, txn).Error(0)
}

func (m *MockRepository) DeleteTransaction(ctx context.Context, tx database.Tx, id string) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockRepository) FetchUnsentEvents(ctx context.Context, limit int) ([]OrderEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]OrderEvent), args.Error(1)
}

func (m *MockRepository) MarkEventsSent(ctx context.Context, ids []int64, sentAt time.Time) error {
	return m.Called(ctx, ids, sentAt).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, payload json.RawMessage) error {
	return m.Called(ctx, key, payload).Error(0)
}
