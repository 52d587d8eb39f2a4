// Package collections records payments against credit bills. A payment
// writes the collection row, the bill settlement and the customer balance
// decrement in one transaction.
package collections

import "time"

// Collection is one recorded payment against a bill.
type Collection struct {
	ID           int64     `json:"id"`
	ShopID       int64     `json:"shop_id"`
	BillID       int64     `json:"bill_id"`
	BillNumber   string    `json:"bill_number"`
	CustomerID   int64     `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Amount       float64   `json:"amount"`
	Method       string    `json:"method"`
	Note         *string   `json:"note,omitempty"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
}

// OutstandingCustomer is a customer with money still owed.
type OutstandingCustomer struct {
	CustomerID        int64   `json:"customer_id"`
	Name              string  `json:"name"`
	Phone             string  `json:"phone"`
	OutstandingAmount float64 `json:"outstanding_amount"`
	UnpaidBills       int     `json:"unpaid_bills"`
}

// UnpaidBill is the settlement view of a credit bill.
type UnpaidBill struct {
	BillID        int64     `json:"bill_id"`
	BillNumber    string    `json:"bill_number"`
	TotalAmount   float64   `json:"total_amount"`
	PaidAmount    float64   `json:"paid_amount"`
	CreditAmount  float64   `json:"credit_amount"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecordPaymentRequest is the payload for recording a payment.
type RecordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash card upi"`
	Note   *string `json:"note,omitempty" validate:"omitempty,max=500"`
}
