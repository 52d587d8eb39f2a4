package customers

// CreateCustomerRequest is the payload for registering a customer.
type CreateCustomerRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Phone       string  `json:"phone" validate:"required,max=20"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Tier        string  `json:"tier" validate:"omitempty,oneof=retail wholesale"`
	CreditLimit float64 `json:"credit_limit" validate:"gte=0"`
}

// UpdateCustomerRequest is the payload for updating a customer.
type UpdateCustomerRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Phone       string   `json:"phone" validate:"required,max=20"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=500"`
	Tier        string   `json:"tier" validate:"omitempty,oneof=retail wholesale"`
	CreditLimit *float64 `json:"credit_limit,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
}
