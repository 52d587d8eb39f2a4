package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerAuditHandler compares each customer's outstanding balance against
// the credit still open on their bills and logs any drift. It never fixes
// the numbers itself; drift means a bug or manual tampering and deserves a
// human look.
type LedgerAuditHandler struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLedgerAuditHandler constructs the handler.
func NewLedgerAuditHandler(pool *pgxpool.Pool, logger *slog.Logger) *LedgerAuditHandler {
	return &LedgerAuditHandler{pool: pool, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *LedgerAuditHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	rows, err := h.pool.Query(ctx,
		`SELECT cu.shop_id, cu.id, cu.name, cu.outstanding_amount,
		        COALESCE(SUM(b.credit_amount), 0) AS open_credit
		 FROM customers cu
		 LEFT JOIN bills b ON b.shop_id = cu.shop_id AND b.customer_id = cu.id AND b.credit_amount > 0
		 GROUP BY cu.shop_id, cu.id, cu.name, cu.outstanding_amount
		 HAVING ABS(cu.outstanding_amount - COALESCE(SUM(b.credit_amount), 0)) > 0.005`)
	if err != nil {
		return err
	}
	defer rows.Close()

	drifted := 0
	for rows.Next() {
		var shopID, customerID int64
		var name string
		var balance, openCredit float64
		if err := rows.Scan(&shopID, &customerID, &name, &balance, &openCredit); err != nil {
			return err
		}
		drifted++
		h.logger.Error("ledger drift",
			slog.Int64("shop_id", shopID),
			slog.Int64("customer_id", customerID),
			slog.String("customer", name),
			slog.Float64("outstanding", balance),
			slog.Float64("open_credit", openCredit))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if drifted == 0 {
		h.logger.Info("ledger audit clean")
	}
	return nil
}
