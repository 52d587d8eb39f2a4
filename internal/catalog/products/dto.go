package products

// CreateProductRequest is the payload for creating a product. A missing SKU
// is filled with a generated SKU-YYMMDDHHMMSS value.
type CreateProductRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	SKU            string   `json:"sku" validate:"omitempty,max=50"`
	Barcode        *string  `json:"barcode,omitempty" validate:"omitempty,max=50"`
	CategoryID     *int64   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	RetailPrice    float64  `json:"retail_price" validate:"required,gt=0"`
	WholesalePrice *float64 `json:"wholesale_price,omitempty" validate:"omitempty,gt=0"`
	CostPrice      float64  `json:"cost_price" validate:"gte=0"`
	CurrentStock   float64  `json:"current_stock" validate:"gte=0"`
	Unit           string   `json:"unit" validate:"required,max=20"`
}

// UpdateProductRequest is the payload for updating a product.
type UpdateProductRequest struct {
	Name           string   `json:"name" validate:"required,max=200"`
	Barcode        *string  `json:"barcode,omitempty" validate:"omitempty,max=50"`
	CategoryID     *int64   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	RetailPrice    float64  `json:"retail_price" validate:"required,gt=0"`
	WholesalePrice *float64 `json:"wholesale_price,omitempty" validate:"omitempty,gt=0"`
	CostPrice      float64  `json:"cost_price" validate:"gte=0"`
	Unit           string   `json:"unit" validate:"required,max=20"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

// AdjustStockRequest corrects stock outside the sales flow.
type AdjustStockRequest struct {
	Delta float64 `json:"delta" validate:"required"`
	Note  string  `json:"note" validate:"max=500"`
}
