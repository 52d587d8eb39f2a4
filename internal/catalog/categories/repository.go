package categories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for categories.
type Repository interface {
	List(ctx context.Context, shopID int64, includeInactive bool) ([]Category, error)
	Get(ctx context.Context, shopID, id int64) (Category, error)
	Create(ctx context.Context, c Category) (Category, error)
	Update(ctx context.Context, c Category) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const categoryColumns = `id, shop_id, name, description, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, shopID int64, includeInactive bool) ([]Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE shop_id = $1`
	if !includeInactive {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.ShopID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, shopID, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE shop_id = $1 AND id = $2`,
		shopID, id,
	).Scan(&c.ID, &c.ShopID, &c.Name, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("%w: category %d", httpx.ErrNotFound, id)
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, c Category) (Category, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (shop_id, name, description, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		c.ShopID, c.Name, c.Description, c.IsActive, now,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Category{}, fmt.Errorf("%w: category name %q", httpx.ErrDuplicate, c.Name)
		}
		return Category{}, err
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *repository) Update(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $1, description = $2, is_active = $3, updated_at = NOW()
		 WHERE shop_id = $4 AND id = $5`,
		c.Name, c.Description, c.IsActive, c.ShopID, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category name %q", httpx.ErrDuplicate, c.Name)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %d", httpx.ErrNotFound, c.ID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
