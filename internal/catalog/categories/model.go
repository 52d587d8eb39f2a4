package categories

import "time"

// Category groups products within one shop. Products carry a denormalized
// copy of the name; renames are reconciled by a background task.
type Category struct {
	ID          int64     `json:"id"`
	ShopID      int64     `json:"shop_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
