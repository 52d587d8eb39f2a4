package shops

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for shops.
type Repository interface {
	Get(ctx context.Context, id int64) (Shop, error)
	Update(ctx context.Context, s Shop) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (Shop, error) {
	var s Shop
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, address, phone, email, gst_number, logo_url, created_at, updated_at
		 FROM shops WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Address, &s.Phone, &s.Email, &s.GSTNumber, &s.LogoURL, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Shop{}, fmt.Errorf("%w: shop %d", httpx.ErrNotFound, id)
	}
	return s, err
}

func (r *repository) Update(ctx context.Context, s Shop) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shops SET name = $1, address = $2, phone = $3, email = $4, gst_number = $5, logo_url = $6, updated_at = NOW()
		 WHERE id = $7`,
		s.Name, s.Address, s.Phone, s.Email, s.GSTNumber, s.LogoURL, s.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: shop %d", httpx.ErrNotFound, s.ID)
	}
	return nil
}
