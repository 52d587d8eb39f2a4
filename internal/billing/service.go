package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tillpoint/tillpoint/internal/billing/cart"
	"github.com/tillpoint/tillpoint/internal/billing/money"
	"github.com/tillpoint/tillpoint/internal/catalog/products"
	"github.com/tillpoint/tillpoint/internal/customers"
	"github.com/tillpoint/tillpoint/internal/platform/httpx"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// billNumberAttempts bounds the regenerate-and-retry loop on a bill number
// collision within the same shop and day.
const billNumberAttempts = 3

// ProductLookup resolves catalog products for cart snapshots and stock
// pre-checks.
type ProductLookup interface {
	Get(ctx context.Context, shopID, id int64) (products.Product, error)
}

// CustomerLookup resolves customers for cart selection and credit sales.
type CustomerLookup interface {
	Get(ctx context.Context, shopID, id int64) (customers.Customer, error)
}

// Idempotency guards checkout against double submission.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ReportInvalidator drops a shop's cached reports after a write that
// changes what they would show.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, shopID int64) error
}

// Service orchestrates carts and checkout.
type Service struct {
	repo        Repository
	carts       *cart.Store
	products    ProductLookup
	customers   CustomerLookup
	idempotency Idempotency
	reports     ReportInvalidator
	auditor     *shared.AuditLogger
	logger      *slog.Logger

	allowNegativeStock bool
}

// ServiceConfig carries the service's collaborators.
type ServiceConfig struct {
	Repo               Repository
	Carts              *cart.Store
	Products           ProductLookup
	Customers          CustomerLookup
	Idempotency        Idempotency
	Reports            ReportInvalidator
	Auditor            *shared.AuditLogger
	Logger             *slog.Logger
	AllowNegativeStock bool
}

// NewService builds Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		repo:               cfg.Repo,
		carts:              cfg.Carts,
		products:           cfg.Products,
		customers:          cfg.Customers,
		idempotency:        cfg.Idempotency,
		reports:            cfg.Reports,
		auditor:            cfg.Auditor,
		logger:             cfg.Logger,
		allowNegativeStock: cfg.AllowNegativeStock,
	}
}

// CartView is a cart plus its derived totals.
type CartView struct {
	Cart   *cart.Cart  `json:"cart"`
	Totals cart.Totals `json:"totals"`
}

func (s *Service) GetCart(ctx context.Context, shopID int64, sessionID string) (CartView, error) {
	c, err := s.carts.Load(ctx, shopID, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Cart: c, Totals: c.Totals()}, nil
}

// save persists the cart and returns it with fresh totals.
func (s *Service) save(ctx context.Context, shopID int64, sessionID string, c *cart.Cart) (CartView, error) {
	if err := s.carts.Save(ctx, shopID, sessionID, c); err != nil {
		return CartView{}, err
	}
	return CartView{Cart: c, Totals: c.Totals()}, nil
}

// AddItem snapshots the product into the cart. Inactive products cannot be
// sold.
func (s *Service) AddItem(ctx context.Context, shopID int64, sessionID string, req AddItemRequest) (CartView, error) {
	p, err := s.products.Get(ctx, shopID, req.ProductID)
	if err != nil {
		return CartView{}, err
	}
	if !p.IsActive {
		return CartView{}, fmt.Errorf("%w: product %q is inactive", httpx.ErrValidation, p.Name)
	}

	c, err := s.carts.Load(ctx, shopID, sessionID)
	if err != nil {
		return CartView{}, err
	}
	c.AddItem(cart.ProductInfo{
		ID:             p.ID,
		Name:           p.Name,
		SKU:            p.SKU,
		CategoryID:     p.CategoryID,
		CategoryName:   p.CategoryName,
		RetailPrice:    p.RetailPrice,
		WholesalePrice: p.WholesalePrice,
		CostPrice:      p.CostPrice,
		Unit:           p.Unit,
	}, req.Quantity)
	return s.save(ctx, shopID, sessionID, c)
}

func (s *Service) UpdateItem(ctx context.Context, shopID int64, sessionID string, productID int64, req UpdateItemRequest) (CartView, error) {
	c, err := s.carts.Load(ctx, shopID, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if req.Quantity != nil {
		c.UpdateQuantity(productID, *req.Quantity)
	}
	if req.Price != nil {
		c.UpdatePrice(productID, *req.Price)
	}
	return s.save(ctx, shopID, sessionID, c)
}

func (s *Service) RemoveItem(ctx context.Context, shopID int64, sessionID string, productID int64) (CartView, error) {
	c, err := s.carts.Load(ctx, shopID, sessionID)
	if err != nil {
		return CartView{}, err
	}
	c.RemoveItem(productID)
	return s.save(ctx, shopID, sessionID, c)
}

// SetCustomer binds the cart to a registered customer, or back to Walk-in
// when no id is given. Lines already in the cart keep their prices.
func (s *Service) SetCustomer(ctx context.Context, shopID int64, sessionID string, req SetCustomerRequest) (CartView, error) {
	c, err := s.carts.Load(ctx, shopID, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if req.CustomerID == nil {
		c.SetCustomer(cart.WalkInName, cart.CustomerRetail, nil)
		return s.save(ctx, shopID, sessionID, c)
	}

	customer, err := s.customers.Get(ctx, shopID, *req.CustomerID)
	if err != nil {
		return CartView{}, err
	}
	ctype := cart.CustomerRetail
	if customer.Tier == customers.TierWholesale {
		ctype = cart.CustomerWholesale
	}
	c.SetCustomer(customer.Name, ctype, &customer.ID)
	return s.save(ctx, shopID, sessionID, c)
}

func (s *Service) SetAdjustments(ctx context.Context, shopID int64, sessionID string, req SetAdjustmentsRequest) (CartView, error) {
	c, err := s.carts.Load(ctx, shopID, sessionID)
	if err != nil {
		return CartView{}, err
	}
	if req.Discount != nil {
		c.SetDiscount(*req.Discount)
	}
	if req.TaxRate != nil {
		c.SetTaxRate(*req.TaxRate)
	}
	return s.save(ctx, shopID, sessionID, c)
}

func (s *Service) ClearCart(ctx context.Context, shopID int64, sessionID string) error {
	return s.carts.Delete(ctx, shopID, sessionID)
}

// Checkout turns the session cart into a bill. All validation happens before
// the first write; the bill, its items, the stock decrements and any credit
// increment then commit in one transaction. The cart is only cleared after
// the commit, so a failed checkout leaves the sale editable at the till.
func (s *Service) Checkout(ctx context.Context, shopID, userID int64, sessionID string, req CheckoutRequest) (Bill, error) {
	c, err := s.carts.Load(ctx, shopID, sessionID)
	if err != nil {
		return Bill{}, err
	}
	if c.Empty() {
		return Bill{}, ErrEmptyCart
	}

	method := PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return Bill{}, ErrInvalidPayment
	}
	if method == PaymentCredit {
		if c.CustomerID == nil {
			return Bill{}, ErrCustomerRequired
		}
		if _, err := s.customers.Get(ctx, shopID, *c.CustomerID); err != nil {
			return Bill{}, err
		}
	}

	for _, line := range c.Items {
		p, err := s.products.Get(ctx, shopID, line.ProductID)
		if err != nil {
			return Bill{}, err
		}
		if !s.allowNegativeStock && p.CurrentStock < line.Quantity {
			return Bill{}, fmt.Errorf("%w for product %q: have %.3f, need %.3f",
				ErrInsufficientStock, p.Name, p.CurrentStock, line.Quantity)
		}
	}

	totals := c.Totals()
	bill := s.buildBill(shopID, userID, c, totals, method, req.PaidAmount)

	if req.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, req.IdempotencyKey, "billing"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Bill{}, fmt.Errorf("%w: checkout already processed", httpx.ErrConflict)
			}
			return Bill{}, err
		}
	}

	persisted, err := s.persistBill(ctx, bill)
	if err != nil {
		if req.IdempotencyKey != "" {
			if delErr := s.idempotency.Delete(ctx, req.IdempotencyKey); delErr != nil {
				s.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		return Bill{}, err
	}

	if err := s.carts.Delete(ctx, shopID, sessionID); err != nil {
		// The sale committed; a stale cart is an annoyance, not a loss.
		s.logger.Warn("clear cart after checkout", slog.Any("error", err))
	}
	s.invalidateReports(ctx, shopID)

	if s.auditor != nil {
		if err := s.auditor.Record(ctx, shared.AuditLog{
			ShopID:   shopID,
			ActorID:  userID,
			Action:   "bill.created",
			Entity:   "bill",
			EntityID: strconv.FormatInt(persisted.ID, 10),
			Meta: map[string]any{
				"bill_number":  persisted.BillNumber,
				"total_amount": persisted.TotalAmount,
				"method":       persisted.PaymentMethod,
			},
		}); err != nil {
			s.logger.Warn("audit checkout", slog.Any("error", err))
		}
	}

	s.logger.Info("checkout",
		slog.String("bill_number", persisted.BillNumber),
		slog.Float64("total", persisted.TotalAmount),
		slog.String("method", string(persisted.PaymentMethod)))
	return persisted, nil
}

func (s *Service) buildBill(shopID, userID int64, c *cart.Cart, totals cart.Totals, method PaymentMethod, paidAmount float64) Bill {
	var profit float64
	items := make([]BillItem, len(c.Items))
	for i, line := range c.Items {
		items[i] = BillItem{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			SKU:          line.SKU,
			CategoryID:   line.CategoryID,
			CategoryName: line.CategoryName,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
			CostPrice:    line.CostPrice,
			SellingPrice: line.SellingPrice,
			TotalAmount:  line.TotalAmount,
			TotalProfit:  line.TotalProfit,
		}
		profit += line.TotalProfit
	}

	paid := totals.TotalAmount
	credit := 0.0
	status := StatusPaid
	if method == PaymentCredit {
		paid = money.Round2(paidAmount)
		if paid > totals.TotalAmount {
			paid = totals.TotalAmount
		}
		credit = money.Round2(totals.TotalAmount - paid)
		switch {
		case credit <= 0:
			status = StatusPaid
		case paid > 0:
			status = StatusPartial
		default:
			status = StatusUnpaid
		}
	}

	return Bill{
		ShopID:        shopID,
		CustomerID:    c.CustomerID,
		CustomerName:  c.CustomerName,
		CustomerType:  string(c.CustomerType),
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		TaxRate:       money.ClampRate(c.TaxRate),
		TaxAmount:     totals.TaxAmount,
		TotalAmount:   totals.TotalAmount,
		TotalProfit:   money.Round2(profit),
		PaymentMethod: method,
		PaymentStatus: status,
		BillStatus:    BillActive,
		PaidAmount:    paid,
		CreditAmount:  credit,
		CreatedBy:     userID,
		Items:         items,
	}
}

// persistBill writes the whole sale in one transaction, regenerating the
// bill number on a same-shop collision.
func (s *Service) persistBill(ctx context.Context, bill Bill) (Bill, error) {
	var lastErr error
	for attempt := 0; attempt < billNumberAttempts; attempt++ {
		bill.BillNumber = GenerateBillNumber(time.Now())

		err := s.repo.InTx(ctx, func(tx TxRepository) error {
			id, err := tx.InsertBill(ctx, bill)
			if err != nil {
				return err
			}
			if err := tx.InsertBillItems(ctx, id, bill.Items); err != nil {
				return err
			}
			for _, item := range bill.Items {
				if err := tx.AdjustStock(ctx, bill.ShopID, item.ProductID, -item.Quantity, s.allowNegativeStock); err != nil {
					return err
				}
			}
			if bill.CreditAmount > 0 {
				if err := tx.AdjustOutstanding(ctx, bill.ShopID, *bill.CustomerID, bill.CreditAmount); err != nil {
					return err
				}
			}
			bill.ID = id
			return nil
		})
		if err == nil {
			bill.CreatedAt = time.Now()
			bill.UpdatedAt = bill.CreatedAt
			return bill, nil
		}
		if !errors.Is(err, httpx.ErrDuplicate) {
			return Bill{}, err
		}
		lastErr = err
		s.logger.Warn("bill number collision, retrying", slog.String("bill_number", bill.BillNumber))
	}
	return Bill{}, lastErr
}

// GetBill returns the bill with its items.
func (s *Service) GetBill(ctx context.Context, shopID, id int64) (Bill, error) {
	bill, err := s.repo.GetBill(ctx, shopID, id)
	if err != nil {
		return Bill{}, err
	}
	items, err := s.repo.BillItems(ctx, shopID, id)
	if err != nil {
		return Bill{}, err
	}
	bill.Items = items
	return bill, nil
}

func (s *Service) ListBills(ctx context.Context, shopID int64, filters ListFilters) ([]Bill, shared.Pagination, error) {
	list, total, err := s.repo.ListBills(ctx, shopID, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// DeleteBill hard-deletes a bill and its items. Stock and customer balances
// are left untouched: the sale already happened, and any outstanding credit
// drift this creates is surfaced by the periodic ledger audit rather than
// rewritten here.
func (s *Service) DeleteBill(ctx context.Context, shopID, userID, billID int64) error {
	bill, err := s.repo.GetBill(ctx, shopID, billID)
	if err != nil {
		return err
	}

	err = s.repo.InTx(ctx, func(tx TxRepository) error {
		return tx.DeleteBill(ctx, shopID, billID)
	})
	if err != nil {
		return err
	}

	if s.auditor != nil {
		if err := s.auditor.Record(ctx, shared.AuditLog{
			ShopID:   shopID,
			ActorID:  userID,
			Action:   "bill.deleted",
			Entity:   "bill",
			EntityID: strconv.FormatInt(billID, 10),
			Meta:     map[string]any{"bill_number": bill.BillNumber, "total_amount": bill.TotalAmount, "credit_amount": bill.CreditAmount},
		}); err != nil {
			s.logger.Warn("audit delete", slog.Any("error", err))
		}
	}
	s.invalidateReports(ctx, shopID)
	s.logger.Info("bill deleted", slog.String("bill_number", bill.BillNumber))
	return nil
}

// invalidateReports drops the shop's cached reports after a committed
// write. The cache has a short TTL, so a failed drop only delays
// freshness.
func (s *Service) invalidateReports(ctx context.Context, shopID int64) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Invalidate(ctx, shopID); err != nil {
		s.logger.Warn("invalidate report cache", slog.Any("error", err))
	}
}
