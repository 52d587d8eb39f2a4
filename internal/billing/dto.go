package billing

// AddItemRequest puts a product into the session cart.
type AddItemRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Quantity  float64 `json:"quantity" validate:"omitempty,gt=0"`
}

// UpdateItemRequest overwrites a cart line's quantity or price. Quantity
// zero removes the line.
type UpdateItemRequest struct {
	Quantity *float64 `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
}

// SetCustomerRequest selects the cart's customer. A nil CustomerID reverts
// to the Walk-in default.
type SetCustomerRequest struct {
	CustomerID *int64 `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
}

// SetAdjustmentsRequest stores the sale-level discount and tax selections.
type SetAdjustmentsRequest struct {
	Discount *float64 `json:"discount,omitempty" validate:"omitempty,gte=0"`
	TaxRate  *float64 `json:"tax_rate,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// CheckoutRequest finalizes the cart into a bill. PaidAmount only matters
// for credit sales, where it records a part payment taken up front.
type CheckoutRequest struct {
	PaymentMethod  string  `json:"payment_method" validate:"required,oneof=cash card upi credit"`
	PaidAmount     float64 `json:"paid_amount" validate:"gte=0"`
	IdempotencyKey string  `json:"idempotency_key" validate:"omitempty,max=100"`
}
