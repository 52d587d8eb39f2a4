package auth

import "time"

// User is a login account. PasswordHash is a bcrypt digest and never leaves
// the package.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile binds a user to the shop they operate and their role in it.
type Profile struct {
	UserID  int64  `json:"user_id"`
	ShopID  int64  `json:"shop_id"`
	Role    string `json:"role"`
	Default bool   `json:"-"`
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// MeResponse describes the authenticated user and their shop binding.
type MeResponse struct {
	User    User    `json:"user"`
	Profile Profile `json:"profile"`
}
