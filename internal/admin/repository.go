package admin

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads aggregate figures across the store tables.
type Repository interface {
	Counts(ctx context.Context) (*Summary, error)
	OrdersByStatus(ctx context.Context) (map[string]int64, error)
}

type PostgresSummaryRepository struct {
	db *pgxpool.Pool
}

func NewSummaryRepository(db *pgxpool.Pool) Repository {
	return &PostgresSummaryRepository{db: db}
}

const countsQuery = `
SELECT
    (SELECT COUNT(*) FROM users),
    (SELECT COUNT(*) FROM products),
    (SELECT COUNT(*) FROM categories),
    (SELECT COUNT(*) FROM suppliers),
    (SELECT COUNT(*) FROM orders),
    COUNT(t.id),
    COUNT(t.id) FILTER (WHERE t.payment_status = 'Paid'),
    COALESCE(SUM(t.amount), 0),
    COALESCE(SUM(t.amount) FILTER (WHERE t.payment_status = 'Paid'), 0)
FROM transactions t`

func (r *PostgresSummaryRepository) Counts(ctx context.Context) (*Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, countsQuery).Scan(
		&s.Users,
		&s.Products,
		&s.Categories,
		&s.Suppliers,
		&s.Orders,
		&s.Transactions,
		&s.PaidTransactions,
		&s.TotalTransactionAmount,
		&s.PaidTransactionAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read store counts: %w", err)
	}
	return &s, nil
}

func (r *PostgresSummaryRepository) OrdersByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
