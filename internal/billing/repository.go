package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/platform/httpx"
)

// TxRepository is the slice of the repository available inside a checkout or
// delete transaction. Every write either succeeds as a whole or rolls back.
type TxRepository interface {
	InsertBill(ctx context.Context, b Bill) (int64, error)
	InsertBillItems(ctx context.Context, billID int64, items []BillItem) error
	// AdjustStock applies a stock delta with a conditional guard: a decrement
	// that would push stock below zero affects no rows and reports
	// ErrInsufficientStock, unless negative stock is allowed.
	AdjustStock(ctx context.Context, shopID, productID int64, delta float64, allowNegative bool) error
	// AdjustOutstanding moves a customer's credit balance; a decrement below
	// zero reports httpx.ErrConflict.
	AdjustOutstanding(ctx context.Context, shopID, customerID int64, delta float64) error
	DeleteBill(ctx context.Context, shopID, billID int64) error
}

// Repository provides PostgreSQL backed persistence for bills.
type Repository interface {
	InTx(ctx context.Context, fn func(TxRepository) error) error
	GetBill(ctx context.Context, shopID, id int64) (Bill, error)
	ListBills(ctx context.Context, shopID int64, filters ListFilters) ([]Bill, int, error)
	BillItems(ctx context.Context, shopID, billID int64) ([]BillItem, error)
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

func (r *txRepository) InsertBill(ctx context.Context, b Bill) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO bills (shop_id, bill_number, customer_id, customer_name, customer_type, subtotal, discount, tax_rate, tax_amount, total_amount, total_profit, payment_method, payment_status, bill_status, paid_amount, credit_amount, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18) RETURNING id`,
		b.ShopID, b.BillNumber, b.CustomerID, b.CustomerName, b.CustomerType, b.Subtotal, b.Discount, b.TaxRate,
		b.TaxAmount, b.TotalAmount, b.TotalProfit, b.PaymentMethod, b.PaymentStatus, b.BillStatus,
		b.PaidAmount, b.CreditAmount, b.CreatedBy, time.Now(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: bill number %q", httpx.ErrDuplicate, b.BillNumber)
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) InsertBillItems(ctx context.Context, billID int64, items []BillItem) error {
	for _, item := range items {
		_, err := r.tx.Exec(ctx,
			`INSERT INTO bill_items (bill_id, product_id, product_name, sku, category_id, category_name, quantity, unit, cost_price, selling_price, total_amount, total_profit)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			billID, item.ProductID, item.ProductName, item.SKU, item.CategoryID, item.CategoryName,
			item.Quantity, item.Unit, item.CostPrice, item.SellingPrice, item.TotalAmount, item.TotalProfit,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) AdjustStock(ctx context.Context, shopID, productID int64, delta float64, allowNegative bool) error {
	query := `UPDATE products SET current_stock = current_stock + $1, updated_at = NOW()
		 WHERE shop_id = $2 AND id = $3`
	if delta < 0 && !allowNegative {
		query += ` AND current_stock >= -$1`
	}
	tag, err := r.tx.Exec(ctx, query, delta, shopID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM products WHERE shop_id = $1 AND id = $2)`, shopID, productID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: product %d", httpx.ErrNotFound, productID)
		}
		return fmt.Errorf("%w for product %d", ErrInsufficientStock, productID)
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
		var exists bool
		if err := r.tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM customers WHERE shop_id = $1 AND id = $2)`, shopID, customerID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: customer %d", httpx.ErrNotFound, customerID)
		}
		return fmt.Errorf("%w: adjustment exceeds outstanding balance for customer %d", httpx.ErrConflict, customerID)
	}
	return nil
}

func (r *txRepository) DeleteBill(ctx context.Context, shopID, billID int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM bill_items WHERE bill_id = $1`, billID); err != nil {
		return err
	}
	tag, err := r.tx.Exec(ctx, `DELETE FROM bills WHERE shop_id = $1 AND id = $2`, shopID, billID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: bill %d", httpx.ErrNotFound, billID)
	}
	return nil
}

const billColumns = `id, shop_id, bill_number, customer_id, customer_name, customer_type, subtotal, discount, tax_rate, tax_amount, total_amount, total_profit, payment_method, payment_status, bill_status, paid_amount, credit_amount, created_by, created_at, updated_at`

func scanBill(row pgx.Row) (Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.ShopID, &b.BillNumber, &b.CustomerID, &b.CustomerName, &b.CustomerType,
		&b.Subtotal, &b.Discount, &b.TaxRate, &b.TaxAmount, &b.TotalAmount, &b.TotalProfit,
		&b.PaymentMethod, &b.PaymentStatus, &b.BillStatus, &b.PaidAmount, &b.CreditAmount,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *repository) GetBill(ctx context.Context, shopID, id int64) (Bill, error) {
	b, err := scanBill(r.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE shop_id = $1 AND id = $2`, shopID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, fmt.Errorf("%w: bill %d", httpx.ErrNotFound, id)
	}
	return b, err
}

func (r *repository) ListBills(ctx context.Context, shopID int64, filters ListFilters) ([]Bill, int, error) {
	where := ` WHERE shop_id = $1`
	args := []any{shopID}
	argCount := 1

	if filters.CustomerID != nil {
		argCount++
		where += ` AND customer_id = $` + strconv.Itoa(argCount)
		args = append(args, *filters.CustomerID)
	}
	if filters.Status != "" {
		argCount++
		where += ` AND payment_status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	if filters.From != nil {
		argCount++
		where += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		argCount++
		where += ` AND created_at < $` + strconv.Itoa(argCount)
		args = append(args, *filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bills`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + billColumns + ` FROM bills` + where + ` ORDER BY created_at DESC, id DESC`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)

		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) BillItems(ctx context.Context, shopID, billID int64) ([]BillItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.bill_id, i.product_id, i.product_name, i.sku, i.category_id, i.category_name, i.quantity, i.unit, i.cost_price, i.selling_price, i.total_amount, i.total_profit
		 FROM bill_items i JOIN bills b ON b.id = i.bill_id
		 WHERE b.shop_id = $1 AND i.bill_id = $2
		 ORDER BY i.id`, shopID, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BillItem
	for rows.Next() {
		var item BillItem
		if err := rows.Scan(&item.ID, &item.BillID, &item.ProductID, &item.ProductName, &item.SKU,
			&item.CategoryID, &item.CategoryName, &item.Quantity, &item.Unit,
			&item.CostPrice, &item.SellingPrice, &item.TotalAmount, &item.TotalProfit); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
