package auth

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

type fakeRepo struct {
	users    map[string]User
	profiles map[int64]Profile
}

func (f *fakeRepo) UserByEmail(_ context.Context, email string) (User, error) {
	u, ok := f.users[email]
	if !ok {
		return User{}, fmt.Errorf("%w: user", httpx.ErrNotFound)
	}
	return u, nil
}

func (f *fakeRepo) UserByID(_ context.Context, id int64) (User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("%w: user %d", httpx.ErrNotFound, id)
}

func (f *fakeRepo) ProfileByUserID(_ context.Context, userID int64) (Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("%w: profile for user %d", httpx.ErrNotFound, userID)
	}
	return p, nil
}

func newTestRepo(t *testing.T) *fakeRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &fakeRepo{
		users: map[string]User{
			"owner@shop.test": {ID: 42, Email: "owner@shop.test", Name: "Owner", PasswordHash: string(hash), IsActive: true},
			"gone@shop.test":  {ID: 43, Email: "gone@shop.test", Name: "Gone", PasswordHash: string(hash), IsActive: false},
		},
		profiles: map[int64]Profile{
			42: {UserID: 42, ShopID: 7, Role: "owner"},
		},
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newTestRepo(t), slog.New(slog.DiscardHandler))

	user, profile, err := svc.Authenticate(context.Background(), "owner@shop.test", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, int64(42), user.ID)
	require.Equal(t, int64(7), profile.ShopID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := NewService(newTestRepo(t), slog.New(slog.DiscardHandler))

	_, _, err := svc.Authenticate(context.Background(), "owner@shop.test", "wrong")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestAuthenticateUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	svc := NewService(newTestRepo(t), slog.New(slog.DiscardHandler))

	_, _, err := svc.Authenticate(context.Background(), "nobody@shop.test", "correct-horse")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	svc := NewService(newTestRepo(t), slog.New(slog.DiscardHandler))

	_, _, err := svc.Authenticate(context.Background(), "gone@shop.test", "correct-horse")
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestProfileFallsBackToDefaultBinding(t *testing.T) {
	repo := newTestRepo(t)
	delete(repo.profiles, 42)
	svc := NewService(repo, slog.New(slog.DiscardHandler))

	profile, err := svc.Profile(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), profile.ShopID)
	require.True(t, profile.Default)
}
