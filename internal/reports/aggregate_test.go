package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/billing"
)

func ptr[T any](v T) *T { return &v }

func sampleBills() []billing.Bill {
	catBev := int64(10)
	bevName := "Beverages"
	custID := int64(5)
	return []billing.Bill{
		{
			ID: 1, CustomerID: &custID, CustomerName: "Asha Traders",
			TotalAmount: 250, TotalProfit: 80, Discount: 10, TaxAmount: 20,
			Items: []billing.BillItem{
				{BillID: 1, ProductID: 1, ProductName: "Cola 500ml", SKU: "COLA-500", CategoryID: &catBev, CategoryName: &bevName, Quantity: 5, TotalAmount: 150, TotalProfit: 50},
				{BillID: 1, ProductID: 2, ProductName: "Chips", SKU: "CHIPS-01", Quantity: 10, TotalAmount: 100, TotalProfit: 30},
			},
		},
		{
			ID: 2, CustomerName: "Walk-in",
			TotalAmount: 60, TotalProfit: 20,
			Items: []billing.BillItem{
				{BillID: 2, ProductID: 1, ProductName: "Cola 500ml", SKU: "COLA-500", CategoryID: &catBev, CategoryName: &bevName, Quantity: 2, TotalAmount: 60, TotalProfit: 20},
			},
		},
		{
			ID: 3, CustomerName: "Walk-in",
			TotalAmount: 40, TotalProfit: 12,
			Items: []billing.BillItem{
				{BillID: 3, ProductID: 2, ProductName: "Chips", SKU: "CHIPS-01", Quantity: 4, TotalAmount: 40, TotalProfit: 12},
			},
		},
	}
}

func TestAggregateSummary(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	report := Aggregate(from, to, sampleBills(), nil, 1234.5)

	require.Equal(t, 350.0, report.Summary.TotalSales)
	require.Equal(t, 112.0, report.Summary.TotalProfit)
	require.Equal(t, 10.0, report.Summary.TotalDiscount)
	require.Equal(t, 20.0, report.Summary.TotalTax)
	require.Equal(t, 3, report.Summary.BillCount)
	// Outstanding covers all customers, not just the period's buyers.
	require.Equal(t, 1234.5, report.Summary.TotalOutstanding)
}

func TestAggregateGroupsWalkInsTogether(t *testing.T) {
	report := Aggregate(time.Time{}, time.Now(), sampleBills(), nil, 0)

	require.Len(t, report.ByCustomer, 2)
	// Sorted by sales descending: Asha (250) over Walk-in (100).
	require.Equal(t, "Asha Traders", report.ByCustomer[0].Name)
	require.Equal(t, 250.0, report.ByCustomer[0].Sales)
	require.Equal(t, WalkInKey, report.ByCustomer[1].Key)
	require.Equal(t, 100.0, report.ByCustomer[1].Sales)
	require.Equal(t, 2, report.ByCustomer[1].BillCount)
}

func TestAggregateCategoriesWithUncategorizedBucket(t *testing.T) {
	report := Aggregate(time.Time{}, time.Now(), sampleBills(), nil, 0)

	require.Len(t, report.ByCategory, 2)
	require.Equal(t, "Beverages", report.ByCategory[0].Name)
	require.Equal(t, 210.0, report.ByCategory[0].Sales)
	require.Equal(t, UncategorizedKey, report.ByCategory[1].Key)
	require.Equal(t, 140.0, report.ByCategory[1].Sales)
}

func TestAggregateBackfillsCategoryFromCatalog(t *testing.T) {
	catSnacks := int64(11)
	catalog := map[int64]CategoryRef{
		2: {CategoryID: &catSnacks, CategoryName: ptr("Snacks")},
	}

	report := Aggregate(time.Time{}, time.Now(), sampleBills(), catalog, 0)

	require.Len(t, report.ByCategory, 2)
	var names []string
	for _, row := range report.ByCategory {
		names = append(names, row.Name)
	}
	require.ElementsMatch(t, []string{"Beverages", "Snacks"}, names)
}

func TestAggregateProductsSortedBySales(t *testing.T) {
	report := Aggregate(time.Time{}, time.Now(), sampleBills(), nil, 0)

	require.Len(t, report.ByProduct, 2)
	require.Equal(t, "Cola 500ml", report.ByProduct[0].Name)
	require.Equal(t, 210.0, report.ByProduct[0].Sales)
	require.Equal(t, 7.0, report.ByProduct[0].Quantity)
	require.Equal(t, "Chips", report.ByProduct[1].Name)
	require.Equal(t, 140.0, report.ByProduct[1].Sales)
}

func TestAggregateEmptyPeriod(t *testing.T) {
	report := Aggregate(time.Time{}, time.Now(), nil, nil, 500)

	require.Zero(t, report.Summary.TotalSales)
	require.Zero(t, report.Summary.BillCount)
	require.Equal(t, 500.0, report.Summary.TotalOutstanding)
	require.Empty(t, report.ByCustomer)
	require.Empty(t, report.ByCategory)
	require.Empty(t, report.ByProduct)
}
