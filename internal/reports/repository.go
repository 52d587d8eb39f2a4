package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/tillpoint/tillpoint/internal/billing"
)

// Repository fetches the raw inputs for a report.
type Repository interface {
	BillsInRange(ctx context.Context, shopID int64, from, to time.Time) ([]billing.Bill, error)
	CategoryRefs(ctx context.Context, shopID int64) (map[int64]CategoryRef, error)
	TotalOutstanding(ctx context.Context, shopID int64) (float64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// BillsInRange loads the period's bills with their items. Bills and items
// are fetched concurrently and stitched together in memory; for a day or a
// month of till data that is far cheaper than one row per item join.
func (r *repository) BillsInRange(ctx context.Context, shopID int64, from, to time.Time) ([]billing.Bill, error) {
	var (
		bills []billing.Bill
		items []billing.BillItem
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, bill_number, customer_id, customer_name, customer_type, subtotal, discount, tax_rate, tax_amount, total_amount, total_profit, payment_method, payment_status, paid_amount, credit_amount, created_at
			 FROM bills
			 WHERE shop_id = $1 AND bill_status = 'active' AND created_at >= $2 AND created_at < $3
			 ORDER BY created_at`, shopID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var b billing.Bill
			if err := rows.Scan(&b.ID, &b.BillNumber, &b.CustomerID, &b.CustomerName, &b.CustomerType,
				&b.Subtotal, &b.Discount, &b.TaxRate, &b.TaxAmount, &b.TotalAmount, &b.TotalProfit,
				&b.PaymentMethod, &b.PaymentStatus, &b.PaidAmount, &b.CreditAmount, &b.CreatedAt); err != nil {
				return err
			}
			b.ShopID = shopID
			bills = append(bills, b)
		}
		return rows.Err()
	})
	g.Go(func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT i.bill_id, i.product_id, i.product_name, i.sku, i.category_id, i.category_name, i.quantity, i.total_amount, i.total_profit
			 FROM bill_items i JOIN bills b ON b.id = i.bill_id
			 WHERE b.shop_id = $1 AND b.bill_status = 'active' AND b.created_at >= $2 AND b.created_at < $3`, shopID, from, to)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var item billing.BillItem
			if err := rows.Scan(&item.BillID, &item.ProductID, &item.ProductName, &item.SKU,
				&item.CategoryID, &item.CategoryName, &item.Quantity,
				&item.TotalAmount, &item.TotalProfit); err != nil {
				return err
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byBill := make(map[int64][]billing.BillItem, len(bills))
	for _, item := range items {
		byBill[item.BillID] = append(byBill[item.BillID], item)
	}
	for i := range bills {
		bills[i].Items = byBill[bills[i].ID]
	}
	return bills, nil
}

func (r *repository) CategoryRefs(ctx context.Context, shopID int64) (map[int64]CategoryRef, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category_id, category_name FROM products WHERE shop_id = $1 AND category_id IS NOT NULL`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := map[int64]CategoryRef{}
	for rows.Next() {
		var productID int64
		var ref CategoryRef
		if err := rows.Scan(&productID, &ref.CategoryID, &ref.CategoryName); err != nil {
			return nil, err
		}
		refs[productID] = ref
	}
	return refs, rows.Err()
}

func (r *repository) TotalOutstanding(ctx context.Context, shopID int64) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(outstanding_amount), 0) FROM customers WHERE shop_id = $1`, shopID,
	).Scan(&total)
	return total, err
}
