package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateBillNumber(t *testing.T) {
	now := time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := GenerateBillNumber(now)
		require.Regexp(t, `^BILL-260827-\d{4}$`, n)
		seen[n] = true
	}
	// 50 draws from 10000 suffixes should not all collide.
	require.Greater(t, len(seen), 1)
}
