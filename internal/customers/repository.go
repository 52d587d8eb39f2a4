package customers

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

// Repository provides PostgreSQL backed persistence for customers.
type Repository interface {
	List(ctx context.Context, shopID int64, filters ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, shopID, id int64) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) error
	// AdjustOutstanding applies a balance delta as a conditional update: a
	// negative delta that would push the balance below zero affects no rows
	// and reports a conflict.
	AdjustOutstanding(ctx context.Context, shopID, id int64, delta float64) (float64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, shop_id, name, phone, email, address, tier, credit_limit, outstanding_amount, is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.ShopID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Tier,
		&c.CreditLimit, &c.OutstandingAmount, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, shopID int64, filters ListFilters) ([]Customer, int, error) {
	where := ` WHERE shop_id = $1`
	args := []any{shopID}
	argCount := 1

	if filters.Search != "" {
		argCount++
		n := strconv.Itoa(argCount)
		where += ` AND (name ILIKE $` + n + ` OR phone ILIKE $` + n + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.OnlyOutstanding {
		where += ` AND outstanding_amount > 0`
	}
	if !filters.IncludeInactive {
		where += ` AND is_active = TRUE`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where + ` ORDER BY name`
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

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, shopID, id int64) (Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE shop_id = $1 AND id = $2`, shopID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, fmt.Errorf("%w: customer %d", httpx.ErrNotFound, id)
	}
	return c, err
}

func (r *repository) Create(ctx context.Context, c Customer) (Customer, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (shop_id, name, phone, email, address, tier, credit_limit, outstanding_amount, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9, $9) RETURNING id`,
		c.ShopID, c.Name, c.Phone, c.Email, c.Address, c.Tier, c.CreditLimit, c.IsActive, now,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Customer{}, fmt.Errorf("%w: phone %q", httpx.ErrDuplicate, c.Phone)
		}
		return Customer{}, err
	}
	c.OutstandingAmount = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	return c, nil
}

func (r *repository) Update(ctx context.Context, c Customer) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET name = $1, phone = $2, email = $3, address = $4, tier = $5, credit_limit = $6, is_active = $7, updated_at = NOW()
		 WHERE shop_id = $8 AND id = $9`,
		c.Name, c.Phone, c.Email, c.Address, c.Tier, c.CreditLimit, c.IsActive, c.ShopID, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: phone %q", httpx.ErrDuplicate, c.Phone)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: customer %d", httpx.ErrNotFound, c.ID)
	}
	return nil
}

func (r *repository) AdjustOutstanding(ctx context.Context, shopID, id int64, delta float64) (float64, error) {
	query := `UPDATE customers SET outstanding_amount = outstanding_amount + $1, updated_at = NOW()
		 WHERE shop_id = $2 AND id = $3`
	if delta < 0 {
		query += ` AND outstanding_amount >= -$1`
	}
	query += ` RETURNING outstanding_amount`

	var balance float64
	err := r.pool.QueryRow(ctx, query, delta, shopID, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.Get(ctx, shopID, id); getErr != nil {
			return 0, getErr
		}
		return 0, fmt.Errorf("%w: payment exceeds outstanding balance for customer %d", httpx.ErrConflict, id)
	}
	return balance, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
