package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// TxRepository is the slice of the repository available inside a payment
// transaction.
type TxRepository interface {
	InsertCollection(ctx context.Context, c Collection) (int64, error)
	// SettleBill moves amount from credit to paid on the bill. The update is
	// conditional on the remaining credit covering the amount, so two
	// concurrent payments cannot overpay a bill.
	SettleBill(ctx context.Context, shopID, billID int64, amount float64) error
	// AdjustOutstanding decrements the customer's balance with the same
	// guard used by billing.
	AdjustOutstanding(ctx context.Context, shopID, customerID int64, delta float64) error
}

// Repository provides PostgreSQL backed persistence for collections.
type Repository interface {
	InTx(ctx context.Context, fn func(TxRepository) error) error
	PaymentsForBill(ctx context.Context, shopID, billID int64) ([]Collection, error)
	UnpaidBills(ctx context.Context, shopID, customerID int64) ([]UnpaidBill, error)
	OutstandingCustomers(ctx context.Context, shopID int64) ([]OutstandingCustomer, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) InTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertCollection(ctx context.Context, c Collection) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO collections (shop_id, bill_id, customer_id, amount, method, note, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		c.ShopID, c.BillID, c.CustomerID, c.Amount, c.Method, c.Note, c.CreatedBy, time.Now(),
	).Scan(&id)
	return id, err
}

func (r *txRepository) SettleBill(ctx context.Context, shopID, billID int64, amount float64) error {
	tag, err := r.tx.Exec(ctx,
		`UPDATE bills SET
		   paid_amount = paid_amount + $1,
		   credit_amount = credit_amount - $1,
		   payment_status = CASE WHEN credit_amount - $1 <= 0 THEN 'paid' ELSE 'partial' END,
		   updated_at = NOW()
		 WHERE shop_id = $2 AND id = $3 AND credit_amount >= $1
		   AND payment_status IN ('unpaid', 'partial')`,
		amount, shopID, billID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bills WHERE shop_id = $1 AND id = $2)`, shopID, billID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: bill %d", httpx.ErrNotFound, billID)
		}
		return fmt.Errorf("%w: payment exceeds remaining credit on bill %d", httpx.ErrConflict, billID)
	}
	return nil
}

func (r *txRepository) AdjustOutstanding(ctx context.Context, shopID, customerID int64, delta float64) error {
	query := `UPDATE customers SET outstanding_amount = outstanding_amount + $1, updated_at = NOW()
		 WHERE shop_id = $2 AND id = $3`
	if delta < 0 {
		query += ` AND outstanding_amount >= -$1`
	}
	tag, err := r.tx.Exec(ctx, query, delta, shopID, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: payment exceeds outstanding balance for customer %d", httpx.ErrConflict, customerID)
	}
	return nil
}

func (r *repository) PaymentsForBill(ctx context.Context, shopID, billID int64) ([]Collection, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.shop_id, c.bill_id, b.bill_number, c.customer_id, cu.name, c.amount, c.method, c.note, c.created_by, c.created_at
		 FROM collections c
		 JOIN bills b ON b.id = c.bill_id
		 JOIN customers cu ON cu.id = c.customer_id
		 WHERE c.shop_id = $1 AND c.bill_id = $2
		 ORDER BY c.created_at DESC, c.id DESC`, shopID, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.ShopID, &c.BillID, &c.BillNumber, &c.CustomerID, &c.CustomerName,
			&c.Amount, &c.Method, &c.Note, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) UnpaidBills(ctx context.Context, shopID, customerID int64) ([]UnpaidBill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, bill_number, total_amount, paid_amount, credit_amount, payment_status, created_at
		 FROM bills
		 WHERE shop_id = $1 AND customer_id = $2 AND credit_amount > 0
		 ORDER BY created_at`, shopID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UnpaidBill
	for rows.Next() {
		var b UnpaidBill
		if err := rows.Scan(&b.BillID, &b.BillNumber, &b.TotalAmount, &b.PaidAmount,
			&b.CreditAmount, &b.PaymentStatus, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repository) OutstandingCustomers(ctx context.Context, shopID int64) ([]OutstandingCustomer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cu.id, cu.name, cu.phone, cu.outstanding_amount,
		        (SELECT COUNT(*) FROM bills b WHERE b.shop_id = cu.shop_id AND b.customer_id = cu.id AND b.credit_amount > 0)
		 FROM customers cu
		 WHERE cu.shop_id = $1 AND cu.outstanding_amount > 0
		 ORDER BY cu.outstanding_amount DESC, cu.name`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutstandingCustomer
	for rows.Next() {
		var c OutstandingCustomer
		if err := rows.Scan(&c.CustomerID, &c.Name, &c.Phone, &c.OutstandingAmount, &c.UnpaidBills); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
