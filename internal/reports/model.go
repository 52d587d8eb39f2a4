// Package reports aggregates bills into sales, profit and outstanding
// figures for a period. Aggregation is a pure fold over bill data; fetching
// and caching live in the service around it.
package reports

import "github.com/tillpoint/tillpoint/internal/reports/export"

// Synthetic bucket keys for bills without a registered customer and items
// without a category.
const (
	WalkInKey        = "walk-in"
	UncategorizedKey = "uncategorized"

	walkInLabel        = "Walk-in"
	uncategorizedLabel = "Uncategorized"
)

// The report types are defined in the export subpackage so the CSV writers
// can consume them without importing this package back; the aliases keep
// reports.Report et al. as the canonical names.

// Summary is the headline block of a report. TotalOutstanding is the balance
// over all customers, not just those who bought inside the period.
type Summary = export.Summary

// CustomerRow is per-customer sales within the period.
type CustomerRow = export.CustomerRow

// CategoryRow is per-category sales within the period.
type CategoryRow = export.CategoryRow

// ProductRow is per-product sales within the period.
type ProductRow = export.ProductRow

// Report is the full aggregation for a period.
type Report = export.Report

// CategoryRef backfills category data for bill items recorded before the
// product had one.
type CategoryRef struct {
	CategoryID   *int64
	CategoryName *string
}
