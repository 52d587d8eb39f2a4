// Package export serialises reports for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/tillpoint/tillpoint/internal/billing"
)

// WriteSalesCSV emits the flat sales sheet: one row per bill in the period,
// in bill-date order, with the snapshot fields an accountant reconciles
// against (customer, tier, payment method and status, the full amount
// breakdown).
func WriteSalesCSV(w io.Writer, bills []billing.Bill) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"Date", "Bill Number", "Customer", "Customer Type",
		"Payment Method", "Payment Status",
		"Subtotal", "Discount", "Tax", "Total", "Profit",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, b := range bills {
		record := []string{
			b.CreatedAt.Format("2006-01-02"),
			b.BillNumber,
			b.CustomerName,
			b.CustomerType,
			string(b.PaymentMethod),
			string(b.PaymentStatus),
			formatFloat(b.Subtotal),
			formatFloat(b.Discount),
			formatFloat(b.TaxAmount),
			formatFloat(b.TotalAmount),
			formatFloat(b.TotalProfit),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteReportCSV emits the full report as CSV: a summary block followed by
// the customer, category and product sections.
func WriteReportCSV(w io.Writer, report Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"From", report.From.Format("2006-01-02")},
		{"To", report.To.Format("2006-01-02")},
		{"Total Sales", formatFloat(report.Summary.TotalSales)},
		{"Total Profit", formatFloat(report.Summary.TotalProfit)},
		{"Total Discount", formatFloat(report.Summary.TotalDiscount)},
		{"Total Tax", formatFloat(report.Summary.TotalTax)},
		{"Bill Count", strconv.Itoa(report.Summary.BillCount)},
		{"Total Outstanding", formatFloat(report.Summary.TotalOutstanding)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{""}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Customer", "Sales", "Profit", "Bills"}); err != nil {
		return err
	}
	for _, row := range report.ByCustomer {
		if err := writer.Write([]string{
			row.Name,
			formatFloat(row.Sales),
			formatFloat(row.Profit),
			strconv.Itoa(row.BillCount),
		}); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{""}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Category", "Sales", "Profit", "Quantity"}); err != nil {
		return err
	}
	for _, row := range report.ByCategory {
		if err := writer.Write([]string{
			row.Name,
			formatFloat(row.Sales),
			formatFloat(row.Profit),
			formatFloat(row.Quantity),
		}); err != nil {
			return err
		}
	}

	if err := writer.Write([]string{""}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Product", "SKU", "Sales", "Profit", "Quantity"}); err != nil {
		return err
	}
	for _, row := range report.ByProduct {
		if err := writer.Write([]string{
			row.Name,
			row.SKU,
			formatFloat(row.Sales),
			formatFloat(row.Profit),
			formatFloat(row.Quantity),
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
