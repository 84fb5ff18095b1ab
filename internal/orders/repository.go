package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

// Repository is the order side of the store: orders, their items, the
// product and cart rows orders are built from, and the event log.
type Repository interface {
	BeginTx(ctx context.Context) (database.Tx, error)

	CreateOrder(ctx context.Context, tx database.Tx, order *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOrderForUpdate(ctx context.Context, tx database.Tx, id string) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, tx database.Tx, order *Order) error
	DeleteOrder(ctx context.Context, id string) error

	GetOrderItem(ctx context.Context, id string) (*OrderItem, error)
	ListOrderItems(ctx context.Context, filter ItemFilter) ([]OrderItem, error)

	GetProductsForOrder(ctx context.Context, tx database.Tx, productIDs []string) (map[string]ProductSnapshot, error)
	ListCartLines(ctx context.Context, tx database.Tx, userID string) ([]Line, error)
	ClearCart(ctx context.Context, tx database.Tx, userID string) error

	AppendEvent(ctx context.Context, tx database.Tx, event *OrderEvent) error
	ListEvents(ctx context.Context, orderID string) ([]OrderEvent, error)
}

// LedgerRepository is what the transaction ledger needs: transactions plus
// the order rows they move.
type LedgerRepository interface {
	BeginTx(ctx context.Context) (database.Tx, error)

	GetOrderForUpdate(ctx context.Context, tx database.Tx, id string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, tx database.Tx, order *Order) error
	AppendEvent(ctx context.Context, tx database.Tx, event *OrderEvent) error

	CreateTransaction(ctx context.Context, tx database.Tx, txn *Transaction) error
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	GetTransactionForUpdate(ctx context.Context, tx database.Tx, id string) (*Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	UpdateTransaction(ctx context.Context, tx database.Tx, txn *Transaction) error
	DeleteTransaction(ctx context.Context, tx database.Tx, id string) error
}

// EventStore feeds the relay with events that have not been published.
type EventStore interface {
	FetchUnsentEvents(ctx context.Context, limit int) ([]OrderEvent, error)
	MarkEventsSent(ctx context.Context, ids []int64, sentAt time.Time) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresOrderRepository implements Repository, LedgerRepository and
// EventStore using PostgreSQL.
type PostgresOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

func (r *PostgresOrderRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	return database.BeginTx(ctx, r.db)
}

const orderSelect = `
	SELECT o.id, o.user_id, u.name, o.total_amount, o.status, o.created_at, o.updated_at
	FROM orders o
	JOIN users u ON u.uid = o.user_id`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.UserID, &o.Username, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts the order and its items.
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, tx database.Tx, order *Order) error {
	pgTx := database.Conn(tx)

	_, err := pgTx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.ID, order.UserID, order.TotalAmount, order.Status, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrUnknownUser.Wrap(err)
		}
		if database.OutOfRange(err) {
			return ErrTotalTooLarge.Wrap(err)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		_, err := pgTx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, user_id, quantity, price, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, item.ProductID, item.UserID, item.Quantity, item.Price, item.CreatedAt)
		if err != nil {
			if _, ok := database.ForeignKeyViolation(err); ok {
				return ErrUnknownProduct.Wrap(err)
			}
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *PostgresOrderRepository) GetOrder(ctx context.Context, id string) (*Order, error) {
	return getOrder(ctx, r.db, orderSelect+` WHERE o.id = $1`, id)
}

// GetOrderForUpdate reads the order with a row lock held until tx ends.
func (r *PostgresOrderRepository) GetOrderForUpdate(ctx context.Context, tx database.Tx, id string) (*Order, error) {
	return getOrder(ctx, database.Conn(tx), orderSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id)
}

func getOrder(ctx context.Context, q querier, query, id string) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return o, nil
}

func (r *PostgresOrderRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	query := orderSelect
	var args []any
	if filter.UserID != "" {
		query += ` WHERE o.user_id = $1`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY o.created_at, o.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *PostgresOrderRepository) UpdateOrderStatus(ctx context.Context, tx database.Tx, order *Order) error {
	tag, err := database.Conn(tx).Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
	`, order.ID, order.Status, order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// DeleteOrder removes the order with its items and events. Transactions
// restrict the delete.
func (r *PostgresOrderRepository) DeleteOrder(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrOrderHasTransactions.Wrap(err)
		}
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const itemSelect = `
	SELECT oi.id, oi.order_id, oi.product_id, oi.user_id, oi.quantity, oi.price,
	       p.name, p.image_url, s.name, o.status, oi.created_at
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	JOIN products p ON p.id = oi.product_id
	JOIN suppliers s ON s.id = p.supplier_id`

func scanItem(row pgx.Row) (*OrderItem, error) {
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.UserID, &it.Quantity, &it.Price,
		&it.ProductName, &it.ProductImage, &it.SupplierName, &it.OrderStatus, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PostgresOrderRepository) GetOrderItem(ctx context.Context, id string) (*OrderItem, error) {
	it, err := scanItem(r.db.QueryRow(ctx, itemSelect+` WHERE oi.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return it, nil
}

func (r *PostgresOrderRepository) ListOrderItems(ctx context.Context, filter ItemFilter) ([]OrderItem, error) {
	var (
		conds []string
		args  []any
	)
	if filter.OrderID != "" {
		args = append(args, filter.OrderID)
		conds = append(conds, fmt.Sprintf("oi.order_id = $%d", len(args)))
	}
	if filter.Owner != "" {
		args = append(args, filter.Owner)
		conds = append(conds, fmt.Sprintf("o.user_id = $%d", len(args)))
	}

	query := itemSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY oi.created_at, oi.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// GetProductsForOrder reads the products an order is priced from. FOR SHARE
// keeps their price fixed until tx ends.
func (r *PostgresOrderRepository) GetProductsForOrder(ctx context.Context, tx database.Tx, productIDs []string) (map[string]ProductSnapshot, error) {
	rows, err := database.Conn(tx).Query(ctx, `
		SELECT id, name, price, status = 'active'
		FROM products
		WHERE id = ANY($1::uuid[])
		FOR SHARE
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	defer rows.Close()

	products := make(map[string]ProductSnapshot, len(productIDs))
	for rows.Next() {
		var p ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

// ListCartLines reads and locks the user's cart.
func (r *PostgresOrderRepository) ListCartLines(ctx context.Context, tx database.Tx, userID string) ([]Line, error) {
	rows, err := database.Conn(tx).Query(ctx, `
		SELECT product_id, quantity FROM carts
		WHERE user_id = $1
		ORDER BY created_at, id
		FOR UPDATE
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *PostgresOrderRepository) ClearCart(ctx context.Context, tx database.Tx, userID string) error {
	if _, err := database.Conn(tx).Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

const transactionSelect = `
	SELECT t.id, t.order_id, t.user_id, t.amount, t.name, t.email, t.phone, t.address, t.city,
	       t.zip_code, t.payment_status, t.created_at, t.updated_at
	FROM transactions t`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.OrderID, &t.UserID, &t.Amount, &t.Name, &t.Email, &t.Phone, &t.Address,
		&t.City, &t.ZipCode, &t.PaymentStatus, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresOrderRepository) CreateTransaction(ctx context.Context, tx database.Tx, txn *Transaction) error {
	_, err := database.Conn(tx).Exec(ctx, `
		INSERT INTO transactions (id, order_id, user_id, amount, name, email, phone, address, city,
		                          zip_code, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, txn.ID, txn.OrderID, txn.UserID, txn.Amount, txn.Name, txn.Email, txn.Phone, txn.Address, txn.City,
		txn.ZipCode, txn.PaymentStatus, txn.CreatedAt, txn.UpdatedAt)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrOrderNotFound.Wrap(err)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepository) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	return getTransaction(ctx, r.db, transactionSelect+` WHERE t.id = $1`, id)
}

func (r *PostgresOrderRepository) GetTransactionForUpdate(ctx context.Context, tx database.Tx, id string) (*Transaction, error) {
	return getTransaction(ctx, database.Conn(tx), transactionSelect+` WHERE t.id = $1 FOR UPDATE`, id)
}

func getTransaction(ctx context.Context, q querier, query, id string) (*Transaction, error) {
	t, err := scanTransaction(q.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (r *PostgresOrderRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("o.user_id = $%d", len(args)))
	}
	if filter.OrderID != "" {
		args = append(args, filter.OrderID)
		conds = append(conds, fmt.Sprintf("t.order_id = $%d", len(args)))
	}

	query := transactionSelect + ` JOIN orders o ON o.id = t.order_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.created_at, t.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func (r *PostgresOrderRepository) UpdateTransaction(ctx context.Context, tx database.Tx, txn *Transaction) error {
	tag, err := database.Conn(tx).Exec(ctx, `
		UPDATE transactions
		SET name = $2, email = $3, phone = $4, address = $5, city = $6, zip_code = $7,
		    payment_status = $8, updated_at = $9
		WHERE id = $1
	`, txn.ID, txn.Name, txn.Email, txn.Phone, txn.Address, txn.City, txn.ZipCode, txn.PaymentStatus, txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *PostgresOrderRepository) DeleteTransaction(ctx context.Context, tx database.Tx, id string) error {
	tag, err := database.Conn(tx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// AppendEvent writes event in tx and sets its sequence id.
func (r *PostgresOrderRepository) AppendEvent(ctx context.Context, tx database.Tx, event *OrderEvent) error {
	err := database.Conn(tx).QueryRow(ctx, `
		INSERT INTO order_events (event_id, order_id, type, from_status, to_status, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, event.EventID, event.OrderID, event.Type, event.FromStatus, event.ToStatus, []byte(event.Payload), event.CreatedAt).
		Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to append order event: %w", err)
	}
	return nil
}

const eventSelect = `
	SELECT id, event_id, order_id, type, from_status, to_status, payload, created_at, sent_at
	FROM order_events`

func (r *PostgresOrderRepository) ListEvents(ctx context.Context, orderID string) ([]OrderEvent, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE order_id = $1 ORDER BY id`, orderID)
}

// FetchUnsentEvents returns up to limit unpublished events, oldest first.
func (r *PostgresOrderRepository) FetchUnsentEvents(ctx context.Context, limit int) ([]OrderEvent, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
}

func (r *PostgresOrderRepository) MarkEventsSent(ctx context.Context, ids []int64, sentAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.Exec(ctx, `UPDATE order_events SET sent_at = $2 WHERE id = ANY($1)`, ids, sentAt); err != nil {
		return fmt.Errorf("failed to mark events sent: %w", err)
	}
	return nil
}

func (r *PostgresOrderRepository) queryEvents(ctx context.Context, query string, args ...any) ([]OrderEvent, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order events: %w", err)
	}
	defer rows.Close()

	events := []OrderEvent{}
	for rows.Next() {
		var e OrderEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventID, &e.OrderID, &e.Type, &e.FromStatus, &e.ToStatus, &payload, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan order event: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	return events, rows.Err()
}
