package products

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// CategoryLookup resolves a category so products can denormalize its name.
type CategoryLookup interface {
	CategoryName(ctx context.Context, shopID, categoryID int64) (string, error)
}

// Service handles product business logic.
type Service struct {
	repo       Repository
	categories CategoryLookup
	auditor    *shared.AuditLogger
	logger     *slog.Logger

	allowNegativeStock bool
}

// NewService builds Service.
func NewService(repo Repository, categories CategoryLookup, auditor *shared.AuditLogger, logger *slog.Logger, allowNegativeStock bool) *Service {
	return &Service{
		repo:               repo,
		categories:         categories,
		auditor:            auditor,
		logger:             logger,
		allowNegativeStock: allowNegativeStock,
	}
}

func (s *Service) List(ctx context.Context, shopID int64, filters ListFilters) ([]Product, shared.Pagination, error) {
	list, total, err := s.repo.List(ctx, shopID, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

func (s *Service) Get(ctx context.Context, shopID, id int64) (Product, error) {
	return s.repo.Get(ctx, shopID, id)
}

func (s *Service) Create(ctx context.Context, shopID int64, req CreateProductRequest) (Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		sku = GenerateSKU(time.Now())
	}

	p := Product{
		ShopID:         shopID,
		Name:           strings.TrimSpace(req.Name),
		SKU:            sku,
		Barcode:        req.Barcode,
		CategoryID:     req.CategoryID,
		RetailPrice:    req.RetailPrice,
		WholesalePrice: req.WholesalePrice,
		CostPrice:      req.CostPrice,
		CurrentStock:   req.CurrentStock,
		Unit:           req.Unit,
		IsActive:       true,
	}
	if err := s.resolveCategory(ctx, shopID, &p); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Update(ctx context.Context, shopID, id int64, req UpdateProductRequest) (Product, error) {
	existing, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return Product{}, err
	}

	updated := existing
	updated.Name = strings.TrimSpace(req.Name)
	updated.Barcode = req.Barcode
	updated.CategoryID = req.CategoryID
	updated.RetailPrice = req.RetailPrice
	updated.WholesalePrice = req.WholesalePrice
	updated.CostPrice = req.CostPrice
	updated.Unit = req.Unit
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if err := s.resolveCategory(ctx, shopID, &updated); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, shopID, id)
}

// AdjustStock applies a manual stock correction and audit-logs it. Sales
// decrements go through checkout, not here.
func (s *Service) AdjustStock(ctx context.Context, shopID, userID, id int64, req AdjustStockRequest) (Product, error) {
	newStock, err := s.repo.AdjustStock(ctx, shopID, id, req.Delta, s.allowNegativeStock)
	if err != nil {
		return Product{}, err
	}

	if s.auditor != nil {
		if err := s.auditor.Record(ctx, shared.AuditLog{
			ShopID:   shopID,
			ActorID:  userID,
			Action:   "product.stock_adjusted",
			Entity:   "product",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"delta": req.Delta, "note": req.Note, "stock": newStock},
		}); err != nil {
			s.logger.Warn("audit stock adjustment", slog.Any("error", err))
		}
	}
	s.logger.Info("stock adjusted",
		slog.Int64("product_id", id),
		slog.Float64("delta", req.Delta),
		slog.Float64("stock", newStock))

	return s.repo.Get(ctx, shopID, id)
}

func (s *Service) resolveCategory(ctx context.Context, shopID int64, p *Product) error {
	if p.CategoryID == nil {
		p.CategoryName = nil
		return nil
	}
	name, err := s.categories.CategoryName(ctx, shopID, *p.CategoryID)
	if err != nil {
		return err
	}
	p.CategoryName = &name
	return nil
}
