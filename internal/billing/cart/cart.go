// Package cart holds the in-progress sale for one till session. Lines keep
// their insertion order and snapshot product data at add time; derived
// totals are recomputed from current state on every read.
package cart

import (
	"github.com/tillpoint/tillpoint/internal/billing/money"
)

// CustomerType mirrors the customer pricing tier.
type CustomerType string

const (
	CustomerRetail    CustomerType = "retail"
	CustomerWholesale CustomerType = "wholesale"
)

// WalkInName is the default unidentified customer.
const WalkInName = "Walk-in"

// ProductInfo carries the catalog fields the cart snapshots when a line is
// added. Wholesale price is optional; cost price may be absent for legacy
// products.
type ProductInfo struct {
	ID             int64
	Name           string
	SKU            string
	CategoryID     *int64
	CategoryName   *string
	RetailPrice    float64
	WholesalePrice *float64
	CostPrice      float64
	Unit           string
}

// Line is a snapshot of a product at add time plus the mutable quantity and
// selling price. Changing the product later does not touch existing lines.
type Line struct {
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

// Totals are the derived amounts for the current cart state.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	Discount    float64 `json:"discount"`
	TaxAmount   float64 `json:"tax_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// Cart aggregates the line items and sale-level selections.
type Cart struct {
	Items        []Line       `json:"items"`
	CustomerID   *int64       `json:"customer_id,omitempty"`
	CustomerName string       `json:"customer_name"`
	CustomerType CustomerType `json:"customer_type"`
	Discount     float64      `json:"discount"`
	TaxRate      float64      `json:"tax_rate"`
}

// New returns an empty cart with Walk-in defaults.
func New() *Cart {
	return &Cart{
		Items:        nil,
		CustomerName: WalkInName,
		CustomerType: CustomerRetail,
		Discount:     0,
		TaxRate:      0,
	}
}

// AddItem merges the quantity into an existing line for the product or
// appends a new one. The selling price is chosen once, at add time: the
// wholesale price when the cart's customer is wholesale and the product has
// one, the retail price otherwise. Switching the customer afterwards does
// not reprice lines already in the cart.
func (c *Cart) AddItem(p ProductInfo, qty float64) {
	if qty <= 0 {
		qty = 1
	}
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity += qty
			c.recompute(i)
			return
		}
	}
	sellingPrice := p.RetailPrice
	if c.CustomerType == CustomerWholesale && p.WholesalePrice != nil && *p.WholesalePrice > 0 {
		sellingPrice = *p.WholesalePrice
	}
	line := Line{
		ProductID:    p.ID,
		ProductName:  p.Name,
		SKU:          p.SKU,
		CategoryID:   p.CategoryID,
		CategoryName: p.CategoryName,
		Quantity:     qty,
		Unit:         p.Unit,
		CostPrice:    p.CostPrice,
		SellingPrice: sellingPrice,
	}
	c.Items = append(c.Items, line)
	c.recompute(len(c.Items) - 1)
}

// RemoveItem drops the line for the product, if present.
func (c *Cart) RemoveItem(productID int64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity overwrites a line's quantity; zero or negative removes it.
func (c *Cart) UpdateQuantity(productID int64, qty float64) {
	if qty <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			c.recompute(i)
			return
		}
	}
}

// UpdatePrice overwrites a line's selling price.
func (c *Cart) UpdatePrice(productID int64, price float64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].SellingPrice = price
			c.recompute(i)
			return
		}
	}
}

// SetCustomer replaces the customer selection. Existing lines keep the
// price chosen when they were added.
func (c *Cart) SetCustomer(name string, ctype CustomerType, id *int64) {
	c.CustomerName = name
	c.CustomerType = ctype
	c.CustomerID = id
}

// SetDiscount stores the flat discount amount; clamping happens in Totals.
func (c *Cart) SetDiscount(amount float64) {
	c.Discount = amount
}

// SetTaxRate stores the tax percentage; clamping happens in Totals.
func (c *Cart) SetTaxRate(percent float64) {
	c.TaxRate = percent
}

// Clear resets to an empty Walk-in cart with zero discount and tax.
func (c *Cart) Clear() {
	*c = *New()
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

// Totals derives subtotal, applied discount, tax and grand total from the
// current lines. The discount is clamped to the subtotal and the tax rate
// to [0, 100] here, so stale setter input can never push a total negative.
func (c *Cart) Totals() Totals {
	lineTotals := make([]float64, len(c.Items))
	for i, item := range c.Items {
		lineTotals[i] = item.TotalAmount
	}
	subtotal := money.Subtotal(lineTotals)
	discount := money.ClampDiscount(c.Discount, subtotal)
	rate := money.ClampRate(c.TaxRate)
	tax := money.TaxAmount(subtotal, discount, rate)
	return Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		TaxAmount:   tax,
		TotalAmount: money.Total(subtotal, discount, tax),
	}
}

func (c *Cart) recompute(i int) {
	item := &c.Items[i]
	item.TotalAmount = money.LineTotal(item.Quantity, item.SellingPrice)
	item.TotalProfit = money.LineProfit(item.Quantity, item.SellingPrice, item.CostPrice)
}
