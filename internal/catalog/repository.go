package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/toxidity-18/GLAM-BACKEND/internal/database"
)

// Repository persists categories, suppliers and products.
type Repository interface {
	CreateCategory(ctx context.Context, category *Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateSupplier(ctx context.Context, supplier *Supplier) error
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	UpdateSupplier(ctx context.Context, supplier *Supplier) error
	DeleteSupplier(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id string) error
}

// PostgresCatalogRepository implements Repository using PostgreSQL.
type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) Repository {
	return &PostgresCatalogRepository{db: db}
}

func (r *PostgresCatalogRepository) CreateCategory(ctx context.Context, category *Category) error {
	_, err := r.db.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1, $2)`, category.ID, category.Name)
	if err != nil {
		if _, ok := database.UniqueViolation(err); ok {
			return ErrDuplicateCategory.Wrap(err)
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *PostgresCatalogRepository) GetCategory(ctx context.Context, id string) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (r *PostgresCatalogRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *PostgresCatalogRepository) UpdateCategory(ctx context.Context, category *Category) error {
	tag, err := r.db.Exec(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, category.ID, category.Name)
	if err != nil {
		if _, ok := database.UniqueViolation(err); ok {
			return ErrDuplicateCategory.Wrap(err)
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *PostgresCatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrCategoryInUse.Wrap(err)
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

const supplierColumns = `id, name, contact_info, address, created_at, updated_at`

func (r *PostgresCatalogRepository) CreateSupplier(ctx context.Context, supplier *Supplier) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO suppliers (id, name, contact_info, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, supplier.ID, supplier.Name, supplier.ContactInfo, supplier.Address, supplier.CreatedAt, supplier.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

func (r *PostgresCatalogRepository) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	var s Supplier
	err := r.db.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.ContactInfo, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &s, nil
}

func (r *PostgresCatalogRepository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.db.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactInfo, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *PostgresCatalogRepository) UpdateSupplier(ctx context.Context, supplier *Supplier) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE suppliers SET name = $2, contact_info = $3, address = $4, updated_at = $5
		WHERE id = $1
	`, supplier.ID, supplier.Name, supplier.ContactInfo, supplier.Address, supplier.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSupplierNotFound
	}
	return nil
}

func (r *PostgresCatalogRepository) DeleteSupplier(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrSupplierInUse.Wrap(err)
		}
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSupplierNotFound
	}
	return nil
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.image_url, p.price, p.purchase_price, p.stock_quantity,
	       p.category_id, p.supplier_id, p.status, c.name, s.name, p.created_at, p.updated_at
	FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN suppliers s ON s.id = p.supplier_id`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.PurchasePrice, &p.StockQuantity,
		&p.CategoryID, &p.SupplierID, &p.Status, &p.CategoryName, &p.SupplierName, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresCatalogRepository) CreateProduct(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, description, image_url, price, purchase_price, stock_quantity,
		                      category_id, supplier_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, product.ID, product.Name, product.Description, product.ImageURL, product.Price, product.PurchasePrice,
		product.StockQuantity, product.CategoryID, product.SupplierID, product.Status, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return classifyProductWrite(err)
	}
	return nil
}

func (r *PostgresCatalogRepository) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *PostgresCatalogRepository) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	var (
		conds []string
		args  []any
	)
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if filter.SupplierID != "" {
		args = append(args, filter.SupplierID)
		conds = append(conds, fmt.Sprintf("p.supplier_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	}

	query := productSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.created_at, p.id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *PostgresCatalogRepository) UpdateProduct(ctx context.Context, product *Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, image_url = $4, price = $5, purchase_price = $6,
		    stock_quantity = $7, category_id = $8, supplier_id = $9, status = $10, updated_at = $11
		WHERE id = $1
	`, product.ID, product.Name, product.Description, product.ImageURL, product.Price, product.PurchasePrice,
		product.StockQuantity, product.CategoryID, product.SupplierID, product.Status, product.UpdatedAt)
	if err != nil {
		return classifyProductWrite(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product and the cart rows pointing at it. Order
// items restrict the delete.
func (r *PostgresCatalogRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrProductInUse.Wrap(err)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func classifyProductWrite(err error) error {
	if constraint, ok := database.ForeignKeyViolation(err); ok {
		if constraint == "products_supplier_id_fkey" {
			return ErrUnknownSupplier.Wrap(err)
		}
		return ErrUnknownCategory.Wrap(err)
	}
	if _, ok := database.CheckViolation(err); ok {
		return ErrNegativeAmount.Wrap(err)
	}
	if database.OutOfRange(err) {
		return ErrAmountTooLarge.Wrap(err)
	}
	return fmt.Errorf("failed to write product: %w", err)
}
