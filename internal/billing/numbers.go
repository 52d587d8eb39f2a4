package billing

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateBillNumber produces a BILL-YYMMDD-RRRR identifier with a random
// four digit suffix. Uniqueness is enforced per shop by the database; on a
// collision the checkout regenerates and retries.
func GenerateBillNumber(now time.Time) string {
	return fmt.Sprintf("BILL-%s-%04d", now.Format("060102"), rand.IntN(10000))
}
