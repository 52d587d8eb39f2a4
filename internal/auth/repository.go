package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for users and profiles.
type Repository interface {
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id int64) (User, error)
	ProfileByUserID(ctx context.Context, userID int64) (Profile, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, email, name, password_hash, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *repository) UserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	return u, err
}

func (r *repository) UserByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
	}
	return u, err
}

func (r *repository) ProfileByUserID(ctx context.Context, userID int64) (Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, shop_id, role FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.ShopID, &p.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: profile for user %d", httpx.ErrNotFound, userID)
	}
	return p, err
}
