package customers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// Service handles customer business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List(ctx context.Context, shopID int64, filters ListFilters) ([]Customer, shared.Pagination, error) {
	list, total, err := s.repo.List(ctx, shopID, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

func (s *Service) Get(ctx context.Context, shopID, id int64) (Customer, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *Service) Create(ctx context.Context, shopID int64, req CreateCustomerRequest) (Customer, error) {
	tier := PriceTier(req.Tier)
	if tier == "" {
		tier = TierRetail
	}
	return s.repo.Create(ctx, Customer{
		ShopID:      shopID,
		Name:        strings.TrimSpace(req.Name),
		Phone:       normalizePhone(req.Phone),
		Email:       req.Email,
		Address:     req.Address,
		Tier:        tier,
		CreditLimit: req.CreditLimit,
		IsActive:    true,
	})
}

func (s *Service) Update(ctx context.Context, shopID, id int64, req UpdateCustomerRequest) (Customer, error) {
	existing, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return Customer{}, err
	}

	updated := existing
	updated.Name = strings.TrimSpace(req.Name)
	updated.Phone = normalizePhone(req.Phone)
	updated.Email = req.Email
	updated.Address = req.Address
	if req.Tier != "" {
		updated.Tier = PriceTier(req.Tier)
	}
	if req.CreditLimit != nil {
		updated.CreditLimit = *req.CreditLimit
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, shopID, id)
}

// Deactivate soft-deletes; the balance history stays queryable.
func (s *Service) Deactivate(ctx context.Context, shopID, id int64) error {
	existing, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return err
	}
	existing.IsActive = false
	return s.repo.Update(ctx, existing)
}

// normalizePhone strips everything but digits, keeping a leading "+" for
// country codes. A "+" anywhere else in the input is noise and is dropped.
func normalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
