package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for products.
type Repository interface {
	List(ctx context.Context, shopID int64, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, shopID, id int64) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) error
	AdjustStock(ctx context.Context, shopID, id int64, delta float64, allowNegative bool) (float64, error)
	RefreshCategoryName(ctx context.Context, shopID, categoryID int64, name string) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, shop_id, name, sku, barcode, category_id, category_name, retail_price, wholesale_price, cost_price, current_stock, unit, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.ShopID, &p.Name, &p.SKU, &p.Barcode, &p.CategoryID, &p.CategoryName,
		&p.RetailPrice, &p.WholesalePrice, &p.CostPrice, &p.CurrentStock, &p.Unit, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, shopID int64, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE shop_id = $1`
	args := []any{shopID}
	argCount := 1

	if filters.Search != "" {
		argCount++
		n := strconv.Itoa(argCount)
		where += ` AND (name ILIKE $` + n + ` OR sku ILIKE $` + n + ` OR barcode ILIKE $` + n + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.CategoryID != nil {
		argCount++
		where += ` AND category_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.CategoryID)
	}
	if !filters.IncludeInactive {
		where += ` AND is_active = TRUE`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY name`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)

		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, shopID, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE shop_id = $1 AND id = $2`, shopID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: product %d", httpx.ErrNotFound, id)
	}
	return p, err
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (shop_id, name, sku, barcode, category_id, category_name, retail_price, wholesale_price, cost_price, current_stock, unit, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13) RETURNING id`,
		p.ShopID, p.Name, p.SKU, p.Barcode, p.CategoryID, p.CategoryName,
		p.RetailPrice, p.WholesalePrice, p.CostPrice, p.CurrentStock, p.Unit, p.IsActive, now,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Product{}, fmt.Errorf("%w: sku %q", httpx.ErrDuplicate, p.SKU)
		}
		return Product{}, err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $1, barcode = $2, category_id = $3, category_name = $4,
		 retail_price = $5, wholesale_price = $6, cost_price = $7, unit = $8, is_active = $9,
		 updated_at = NOW()
		 WHERE shop_id = $10 AND id = $11`,
		p.Name, p.Barcode, p.CategoryID, p.CategoryName,
		p.RetailPrice, p.WholesalePrice, p.CostPrice, p.Unit, p.IsActive,
		p.ShopID, p.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", httpx.ErrNotFound, p.ID)
	}
	return nil
}

// AdjustStock applies a stock delta as a single conditional update. With
// allowNegative false a decrement that would push stock below zero affects
// no rows and returns httpx.ErrConflict, so concurrent writers cannot lose
// an update.
func (r *repository) AdjustStock(ctx context.Context, shopID, id int64, delta float64, allowNegative bool) (float64, error) {
	query := `UPDATE products SET current_stock = current_stock + $1, updated_at = NOW()
		 WHERE shop_id = $2 AND id = $3`
	if delta < 0 && !allowNegative {
		query += ` AND current_stock >= -$1`
	}
	query += ` RETURNING current_stock`

	var stock float64
	err := r.pool.QueryRow(ctx, query, delta, shopID, id).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.Get(ctx, shopID, id); getErr != nil {
			return 0, getErr
		}
		return 0, fmt.Errorf("%w: insufficient stock for product %d", httpx.ErrConflict, id)
	}
	return stock, err
}

// RefreshCategoryName rewrites the denormalized category name on all of the
// shop's products referencing the category; returns the number touched.
func (r *repository) RefreshCategoryName(ctx context.Context, shopID, categoryID int64, name string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET category_name = $1, updated_at = NOW()
		 WHERE shop_id = $2 AND category_id = $3 AND category_name IS DISTINCT FROM $1`,
		name, shopID, categoryID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
