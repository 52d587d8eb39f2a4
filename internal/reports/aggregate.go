package reports

import (
	"sort"
	"strconv"
	"time"

	"github.com/tillpoint/tillpoint/internal/billing"
	"github.com/tillpoint/tillpoint/internal/billing/money"
)

// Aggregate folds bills into a Report. Bills without a customer land in the
// Walk-in bucket and items without a category in Uncategorized, after an
// attempted backfill from the current catalog. Every section is sorted by
// sales, highest first, ties broken by name for a stable order.
func Aggregate(from, to time.Time, bills []billing.Bill, catalog map[int64]CategoryRef, totalOutstanding float64) Report {
	summary := Summary{TotalOutstanding: money.Round2(totalOutstanding)}
	customerRows := map[string]*CustomerRow{}
	categoryRows := map[string]*CategoryRow{}
	productRows := map[int64]*ProductRow{}

	for _, bill := range bills {
		summary.TotalSales += bill.TotalAmount
		summary.TotalProfit += bill.TotalProfit
		summary.TotalDiscount += bill.Discount
		summary.TotalTax += bill.TaxAmount
		summary.BillCount++

		key, name := WalkInKey, walkInLabel
		if bill.CustomerID != nil {
			key = strconv.FormatInt(*bill.CustomerID, 10)
			name = bill.CustomerName
		}
		row, ok := customerRows[key]
		if !ok {
			row = &CustomerRow{Key: key, Name: name}
			customerRows[key] = row
		}
		row.Sales += bill.TotalAmount
		row.Profit += bill.TotalProfit
		row.BillCount++

		for _, item := range bill.Items {
			catKey, catName := categoryBucket(item, catalog)
			cat, ok := categoryRows[catKey]
			if !ok {
				cat = &CategoryRow{Key: catKey, Name: catName}
				categoryRows[catKey] = cat
			}
			cat.Sales += item.TotalAmount
			cat.Profit += item.TotalProfit
			cat.Quantity += item.Quantity

			prod, ok := productRows[item.ProductID]
			if !ok {
				prod = &ProductRow{ProductID: item.ProductID, Name: item.ProductName, SKU: item.SKU}
				productRows[item.ProductID] = prod
			}
			prod.Sales += item.TotalAmount
			prod.Profit += item.TotalProfit
			prod.Quantity += item.Quantity
		}
	}

	summary.TotalSales = money.Round2(summary.TotalSales)
	summary.TotalProfit = money.Round2(summary.TotalProfit)
	summary.TotalDiscount = money.Round2(summary.TotalDiscount)
	summary.TotalTax = money.Round2(summary.TotalTax)

	report := Report{From: from, To: to, Summary: summary}

	for _, row := range customerRows {
		row.Sales = money.Round2(row.Sales)
		row.Profit = money.Round2(row.Profit)
		report.ByCustomer = append(report.ByCustomer, *row)
	}
	sort.Slice(report.ByCustomer, func(i, j int) bool {
		a, b := report.ByCustomer[i], report.ByCustomer[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		return a.Name < b.Name
	})

	for _, row := range categoryRows {
		row.Sales = money.Round2(row.Sales)
		row.Profit = money.Round2(row.Profit)
		report.ByCategory = append(report.ByCategory, *row)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		a, b := report.ByCategory[i], report.ByCategory[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		return a.Name < b.Name
	})

	for _, row := range productRows {
		row.Sales = money.Round2(row.Sales)
		row.Profit = money.Round2(row.Profit)
		report.ByProduct = append(report.ByProduct, *row)
	}
	sort.Slice(report.ByProduct, func(i, j int) bool {
		a, b := report.ByProduct[i], report.ByProduct[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		return a.Name < b.Name
	})

	return report
}

// categoryBucket picks the category for an item: the snapshot on the item,
// then the current catalog, then Uncategorized.
func categoryBucket(item billing.BillItem, catalog map[int64]CategoryRef) (string, string) {
	categoryID := item.CategoryID
	categoryName := item.CategoryName
	if categoryID == nil {
		if ref, ok := catalog[item.ProductID]; ok && ref.CategoryID != nil {
			categoryID = ref.CategoryID
			categoryName = ref.CategoryName
		}
	}
	if categoryID == nil {
		return UncategorizedKey, uncategorizedLabel
	}
	name := uncategorizedLabel
	if categoryName != nil && *categoryName != "" {
		name = *categoryName
	}
	return strconv.FormatInt(*categoryID, 10), name
}
