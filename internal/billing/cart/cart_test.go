package cart

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func widget() ProductInfo {
	wholesale := 45.0
	return ProductInfo{
		ID:             1,
		Name:           "Widget",
		SKU:            "SKU-1",
		RetailPrice:    50,
		WholesalePrice: &wholesale,
		CostPrice:      30,
		Unit:           "pcs",
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	c := New()
	c.AddItem(widget(), 1)
	c.AddItem(widget(), 2)

	require.Len(t, c.Items, 1)
	require.Equal(t, 3.0, c.Items[0].Quantity)
	require.Equal(t, 150.0, c.Items[0].TotalAmount)
	require.Equal(t, 60.0, c.Items[0].TotalProfit)
}

func TestAddItemWholesalePriceSelection(t *testing.T) {
	c := New()
	c.SetCustomer("Acme Traders", CustomerWholesale, nil)
	c.AddItem(widget(), 1)
	require.Equal(t, 45.0, c.Items[0].SellingPrice)

	// Switching the customer back does not reprice the existing line.
	c.SetCustomer(WalkInName, CustomerRetail, nil)
	c.AddItem(widget(), 1)
	require.Len(t, c.Items, 1)
	require.Equal(t, 45.0, c.Items[0].SellingPrice)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	c := New()
	c.AddItem(widget(), 2)
	c.UpdateQuantity(1, 0)
	require.True(t, c.Empty())
}

func TestUpdatePriceRecomputesTotals(t *testing.T) {
	c := New()
	c.AddItem(widget(), 2)
	c.UpdatePrice(1, 60)
	require.Equal(t, 120.0, c.Items[0].TotalAmount)
	require.Equal(t, 60.0, c.Items[0].TotalProfit)
}

func TestTotalsScenario(t *testing.T) {
	c := New()
	c.AddItem(widget(), 2)
	c.SetTaxRate(18)

	totals := c.Totals()
	require.Equal(t, 100.0, totals.Subtotal)
	require.Equal(t, 18.0, totals.TaxAmount)
	require.Equal(t, 118.0, totals.TotalAmount)
}

func TestTotalsClampsDiscountAndRate(t *testing.T) {
	c := New()
	c.AddItem(widget(), 2)
	c.SetDiscount(150)
	c.SetTaxRate(18)

	totals := c.Totals()
	require.Equal(t, 100.0, totals.Discount)
	require.Equal(t, 0.0, totals.TaxAmount)
	require.Equal(t, 0.0, totals.TotalAmount)
}

func TestClearResetsDefaults(t *testing.T) {
	id := int64(7)
	c := New()
	c.AddItem(widget(), 1)
	c.SetCustomer("Acme Traders", CustomerWholesale, &id)
	c.SetDiscount(10)
	c.SetTaxRate(18)

	c.Clear()
	require.True(t, c.Empty())
	require.Equal(t, WalkInName, c.CustomerName)
	require.Equal(t, CustomerRetail, c.CustomerType)
	require.Nil(t, c.CustomerID)
	require.Zero(t, c.Discount)
	require.Zero(t, c.TaxRate)
}

func TestStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client, 0)
	ctx := context.Background()

	c := New()
	c.AddItem(widget(), 2)
	require.NoError(t, store.Save(ctx, 1, "sess", c))

	loaded, err := store.Load(ctx, 1, "sess")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	require.Equal(t, 100.0, loaded.Items[0].TotalAmount)

	require.NoError(t, store.Delete(ctx, 1, "sess"))
	fresh, err := store.Load(ctx, 1, "sess")
	require.NoError(t, err)
	require.True(t, fresh.Empty())
}
