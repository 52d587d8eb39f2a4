package export

import "time"

// Summary is the headline block of a report. TotalOutstanding is the balance
// over all customers, not just those who bought inside the period.
type Summary struct {
	TotalSales       float64 `json:"total_sales"`
	TotalProfit      float64 `json:"total_profit"`
	TotalDiscount    float64 `json:"total_discount"`
	TotalTax         float64 `json:"total_tax"`
	BillCount        int     `json:"bill_count"`
	TotalOutstanding float64 `json:"total_outstanding"`
}

// CustomerRow is per-customer sales within the period.
type CustomerRow struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	Sales     float64 `json:"sales"`
	Profit    float64 `json:"profit"`
	BillCount int     `json:"bill_count"`
}

// CategoryRow is per-category sales within the period.
type CategoryRow struct {
	Key      string  `json:"key"`
	Name     string  `json:"name"`
	Sales    float64 `json:"sales"`
	Profit   float64 `json:"profit"`
	Quantity float64 `json:"quantity"`
}

// ProductRow is per-product sales within the period.
type ProductRow struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Sales     float64 `json:"sales"`
	Profit    float64 `json:"profit"`
	Quantity  float64 `json:"quantity"`
}

// Report is the full aggregation for a period.
type Report struct {
	From       time.Time     `json:"from"`
	To         time.Time     `json:"to"`
	Summary    Summary       `json:"summary"`
	ByCustomer []CustomerRow `json:"by_customer"`
	ByCategory []CategoryRow `json:"by_category"`
	ByProduct  []ProductRow  `json:"by_product"`
}
