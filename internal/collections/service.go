package collections

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tillpoint/tillpoint/internal/billing"
	"github.com/tillpoint/tillpoint/internal/billing/money"
	"github.com/tillpoint/tillpoint/internal/platform/httpx"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// BillLookup resolves bills for validation before a payment is recorded.
type BillLookup interface {
	GetBill(ctx context.Context, shopID, id int64) (billing.Bill, error)
}

// Service records payments against credit bills.
type Service struct {
	repo    Repository
	bills   BillLookup
	auditor *shared.AuditLogger
	logger  *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, bills BillLookup, auditor *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, bills: bills, auditor: auditor, logger: logger}
}

// RecordPayment validates the payment against the bill's remaining credit,
// then writes the collection row, the bill settlement and the customer
// balance decrement in one transaction. The conditional updates inside the
// transaction re-check the balances, so a concurrent payment cannot push
// either below zero.
func (s *Service) RecordPayment(ctx context.Context, shopID, userID, billID int64, req RecordPaymentRequest) (Collection, error) {
	bill, err := s.bills.GetBill(ctx, shopID, billID)
	if err != nil {
		return Collection{}, err
	}
	if bill.CustomerID == nil {
		return Collection{}, fmt.Errorf("%w: bill %s has no customer to collect from", httpx.ErrValidation, bill.BillNumber)
	}
	if bill.CreditAmount <= 0 {
		return Collection{}, fmt.Errorf("%w: bill %s is fully paid", httpx.ErrValidation, bill.BillNumber)
	}

	amount := money.Round2(req.Amount)
	if amount <= 0 {
		return Collection{}, fmt.Errorf("%w: payment amount must be positive", httpx.ErrValidation)
	}
	if amount > bill.CreditAmount {
		return Collection{}, fmt.Errorf("%w: payment %.2f exceeds remaining credit %.2f on bill %s",
			httpx.ErrValidation, amount, bill.CreditAmount, bill.BillNumber)
	}

	collection := Collection{
		ShopID:       shopID,
		BillID:       billID,
		BillNumber:   bill.BillNumber,
		CustomerID:   *bill.CustomerID,
		CustomerName: bill.CustomerName,
		Amount:       amount,
		Method:       req.Method,
		Note:         req.Note,
		CreatedBy:    userID,
	}

	err = s.repo.InTx(ctx, func(tx TxRepository) error {
		id, err := tx.InsertCollection(ctx, collection)
		if err != nil {
			return err
		}
		if err := tx.SettleBill(ctx, shopID, billID, amount); err != nil {
			return err
		}
		if err := tx.AdjustOutstanding(ctx, shopID, *bill.CustomerID, -amount); err != nil {
			return err
		}
		collection.ID = id
		return nil
	})
	if err != nil {
		return Collection{}, err
	}

	if s.auditor != nil {
		if err := s.auditor.Record(ctx, shared.AuditLog{
			ShopID:   shopID,
			ActorID:  userID,
			Action:   "collection.recorded",
			Entity:   "collection",
			EntityID: strconv.FormatInt(collection.ID, 10),
			Meta: map[string]any{
				"bill_number": bill.BillNumber,
				"amount":      amount,
				"method":      req.Method,
			},
		}); err != nil {
			s.logger.Warn("audit payment", slog.Any("error", err))
		}
	}

	s.logger.Info("payment recorded",
		slog.String("bill_number", bill.BillNumber),
		slog.Float64("amount", amount),
		slog.String("method", req.Method))
	return collection, nil
}

func (s *Service) PaymentsForBill(ctx context.Context, shopID, billID int64) ([]Collection, error) {
	return s.repo.PaymentsForBill(ctx, shopID, billID)
}

func (s *Service) UnpaidBills(ctx context.Context, shopID, customerID int64) ([]UnpaidBill, error) {
	return s.repo.UnpaidBills(ctx, shopID, customerID)
}

func (s *Service) OutstandingCustomers(ctx context.Context, shopID int64) ([]OutstandingCustomer, error) {
	return s.repo.OutstandingCustomers(ctx, shopID)
}
