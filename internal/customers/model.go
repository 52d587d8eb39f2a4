package customers

import "time"

// PriceTier selects which product price a customer's cart lines default to.
type PriceTier string

const (
	TierRetail    PriceTier = "retail"
	TierWholesale PriceTier = "wholesale"
)

// Customer is a shop-scoped account. OutstandingAmount is the credit balance
// accumulated by credit checkouts and reduced by recorded payments; it is
// only ever changed through those two flows. CreditLimit is informational,
// nothing enforces it at checkout yet.
type Customer struct {
	ID                int64     `json:"id"`
	ShopID            int64     `json:"shop_id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	Email             *string   `json:"email,omitempty"`
	Address           *string   `json:"address,omitempty"`
	Tier              PriceTier `json:"tier"`
	CreditLimit       float64   `json:"credit_limit"`
	OutstandingAmount float64   `json:"outstanding_amount"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ListFilters narrows customer listings.
type ListFilters struct {
	Search          string
	OnlyOutstanding bool
	IncludeInactive bool
	Page            int
	PerPage         int
}
