package shops

import "time"

// Shop holds the billing profile printed on receipts and exports.
type Shop struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	GSTNumber *string   `json:"gst_number,omitempty"`
	LogoURL   *string   `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateShopRequest is the payload for updating the shop profile.
type UpdateShopRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Address   *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	GSTNumber *string `json:"gst_number,omitempty" validate:"omitempty,max=30"`
	LogoURL   *string `json:"logo_url,omitempty" validate:"omitempty,url,max=500"`
}
