package products

import "time"

// Product is a shop-scoped catalog entry. CategoryName is a denormalized
// copy of the category's name, refreshed by a background task after
// renames. Stock is only ever changed through checkout or an explicit,
// audit-logged adjustment.
type Product struct {
	ID             int64     `json:"id"`
	ShopID         int64     `json:"shop_id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku"`
	Barcode        *string   `json:"barcode,omitempty"`
	CategoryID     *int64    `json:"category_id,omitempty"`
	CategoryName   *string   `json:"category_name,omitempty"`
	RetailPrice    float64   `json:"retail_price"`
	WholesalePrice *float64  `json:"wholesale_price,omitempty"`
	CostPrice      float64   `json:"cost_price"`
	CurrentStock   float64   `json:"current_stock"`
	Unit           string    `json:"unit"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListFilters narrows product listings.
type ListFilters struct {
	Search          string
	CategoryID      *int64
	IncludeInactive bool
	Page            int
	PerPage         int
}
