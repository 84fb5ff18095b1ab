package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

// Repository persists cart lines. Every call is scoped to one user.
type Repository interface {
	ListItems(ctx context.Context, userID string) ([]Item, error)
	GetItem(ctx context.Context, userID, id string) (*Item, error)
	AddQuantity(ctx context.Context, item *Item) error
	UpdateQuantity(ctx context.Context, userID, id string, quantity int) error
	DeleteItem(ctx context.Context, userID, id string) error
	Clear(ctx context.Context, userID string) error
}

// PostgresCartRepository implements Repository using PostgreSQL.
type PostgresCartRepository struct {
	db *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) Repository {
	return &PostgresCartRepository{db: db}
}

const itemSelect = `
	SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, p.name, p.image_url, p.price, ci.created_at, ci.updated_at
	FROM carts ci
	JOIN products p ON p.id = ci.product_id`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.ProductName, &it.ProductImage,
		&it.Price, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *PostgresCartRepository) ListItems(ctx context.Context, userID string) ([]Item, error) {
	rows, err := r.db.Query(ctx, itemSelect+` WHERE ci.user_id = $1 ORDER BY ci.created_at, ci.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *PostgresCartRepository) GetItem(ctx context.Context, userID, id string) (*Item, error) {
	return r.getOne(ctx, itemSelect+` WHERE ci.user_id = $1 AND ci.id = $2`, userID, id)
}

func (r *PostgresCartRepository) getOne(ctx context.Context, query string, args ...any) (*Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return it, nil
}

// AddQuantity adds item.Quantity to the user's line for the product, creating
// the line when there is none. The increment happens in one statement and is
// refused with ErrInsufficientStock when the line would exceed the product's
// stock. item.ID, Quantity and CreatedAt are set from the stored row.
func (r *PostgresCartRepository) AddQuantity(ctx context.Context, item *Item) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, product_id, quantity, created_at, updated_at)
		SELECT $1::uuid, $2::uuid, p.id, $4::int, $5::timestamptz, $6::timestamptz
		FROM products p
		WHERE p.id = $3::uuid AND p.stock_quantity >= $4::int
		ON CONFLICT ON CONSTRAINT carts_user_product_key
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
		WHERE carts.quantity::bigint + EXCLUDED.quantity <=
			(SELECT stock_quantity FROM products WHERE id = EXCLUDED.product_id)
		RETURNING id, quantity, created_at
	`, item.ID, item.UserID, item.ProductID, item.Quantity, item.CreatedAt, item.UpdatedAt).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return ErrInsufficientStock
		}
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrUnknownProduct.Wrap(err)
		}
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

func (r *PostgresCartRepository) UpdateQuantity(ctx context.Context, userID, id string, quantity int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE carts SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
	`, userID, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PostgresCartRepository) DeleteItem(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PostgresCartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
