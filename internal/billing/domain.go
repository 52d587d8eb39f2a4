// Package billing turns a cart into a persisted bill. A checkout writes the
// bill, its items, the stock decrements and any credit balance increment in
// one transaction, so a failure part-way leaves nothing behind.
package billing

import (
	"fmt"
	"time"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// PaymentMethod is how the bill was settled at the till.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentCredit PaymentMethod = "credit"
)

// Valid reports whether the method is one of the accepted values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentCredit:
		return true
	}
	return false
}

// PaymentStatus tracks how much of the bill has been settled.
type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPartial PaymentStatus = "partial"
	StatusUnpaid  PaymentStatus = "unpaid"
)

// BillStatus is the lifecycle state of the bill record. Only active bills
// feed the sales reports; cancelled and returned exist for imports and
// future flows, nothing transitions into them yet.
type BillStatus string

const (
	BillActive    BillStatus = "active"
	BillCancelled BillStatus = "cancelled"
	BillReturned  BillStatus = "returned"
)

// Domain errors. All wrap an httpx sentinel so handlers map them without
// switch statements of their own.
var (
	ErrEmptyCart         = fmt.Errorf("%w: cart is empty", httpx.ErrValidation)
	ErrCustomerRequired  = fmt.Errorf("%w: credit sales require a registered customer", httpx.ErrValidation)
	ErrInvalidPayment    = fmt.Errorf("%w: unknown payment method", httpx.ErrValidation)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", httpx.ErrConflict)
)

// Bill is a completed sale. CustomerID is nil for Walk-in sales; the name
// and pricing tier are always snapshotted so renames and tier changes never
// rewrite history.
type Bill struct {
	ID            int64         `json:"id"`
	ShopID        int64         `json:"shop_id"`
	BillNumber    string        `json:"bill_number"`
	CustomerID    *int64        `json:"customer_id,omitempty"`
	CustomerName  string        `json:"customer_name"`
	CustomerType  string        `json:"customer_type"`
	Subtotal      float64       `json:"subtotal"`
	Discount      float64       `json:"discount"`
	TaxRate       float64       `json:"tax_rate"`
	TaxAmount     float64       `json:"tax_amount"`
	TotalAmount   float64       `json:"total_amount"`
	TotalProfit   float64       `json:"total_profit"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	BillStatus    BillStatus    `json:"bill_status"`
	PaidAmount    float64       `json:"paid_amount"`
	CreditAmount  float64       `json:"credit_amount"`
	CreatedBy     int64         `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Items []BillItem `json:"items,omitempty"`
}

// BillItem is a frozen cart line. Category and cost data ride along so
// reports never need to join back to a catalog that may have changed.
type BillItem struct {
	ID           int64   `json:"id"`
	BillID       int64   `json:"bill_id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	SKU          string  `json:"sku"`
	CategoryID   *int64  `json:"category_id,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	CostPrice    float64 `json:"cost_price"`
	SellingPrice float64 `json:"selling_price"`
	TotalAmount  float64 `json:"total_amount"`
	TotalProfit  float64 `json:"total_profit"`
}

// ListFilters narrows bill listings.
type ListFilters struct {
	CustomerID *int64
	Status     PaymentStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}
