package products

import "time"

// GenerateSKU produces the default SKU-YYMMDDHHMMSS identifier used when a
// product is created without one.
func GenerateSKU(now time.Time) string {
	return "SKU-" + now.Format("060102150405")
}
