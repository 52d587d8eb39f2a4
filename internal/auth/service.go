package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// Service handles authentication.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Authenticate verifies credentials and resolves the user's shop binding.
// Unknown email and wrong password are reported identically.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, Profile, error) {
	user, err := s.repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return User{}, Profile{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
		}
		return User{}, Profile{}, err
	}
	if !user.IsActive {
		return User{}, Profile{}, fmt.Errorf("%w: account disabled", httpx.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, Profile{}, fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}

	profile, err := s.Profile(ctx, user.ID)
	if err != nil {
		return User{}, Profile{}, err
	}
	return user, profile, nil
}

// Profile resolves the user's shop binding. Accounts created before profile
// rows were introduced have none; those fall back to a single-shop default
// keyed by the user id.
func (s *Service) Profile(ctx context.Context, userID int64) (Profile, error) {
	profile, err := s.repo.ProfileByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			s.logger.Warn("no profile row, using default shop binding", slog.Int64("user_id", userID))
			return Profile{UserID: userID, ShopID: userID, Role: "owner", Default: true}, nil
		}
		return Profile{}, err
	}
	return profile, nil
}

// Me returns the account and binding for an authenticated session.
func (s *Service) Me(ctx context.Context, userID int64) (User, Profile, error) {
	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return User{}, Profile{}, err
	}
	profile, err := s.Profile(ctx, userID)
	if err != nil {
		return User{}, Profile{}, err
	}
	return user, profile, nil
}
