package categories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SyncEnqueuer schedules the background refresh of denormalized category
// names on products after a rename.
type SyncEnqueuer interface {
	EnqueueCategorySync(ctx context.Context, shopID, categoryID int64) error
}

// Service handles category business logic.
type Service struct {
	repo   Repository
	tasks  SyncEnqueuer
	logger *slog.Logger
}

// NewService builds Service.
func NewService(repo Repository, tasks SyncEnqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, tasks: tasks, logger: logger}
}

func (s *Service) List(ctx context.Context, shopID int64, includeInactive bool) ([]Category, error) {
	return s.repo.List(ctx, shopID, includeInactive)
}

func (s *Service) Get(ctx context.Context, shopID, id int64) (Category, error) {
	return s.repo.Get(ctx, shopID, id)
}

// CategoryName resolves a category's current name for denormalization.
func (s *Service) CategoryName(ctx context.Context, shopID, categoryID int64) (string, error) {
	c, err := s.repo.Get(ctx, shopID, categoryID)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (s *Service) Create(ctx context.Context, shopID int64, req CreateCategoryRequest) (Category, error) {
	return s.repo.Create(ctx, Category{
		ShopID:      shopID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
	})
}

// Update applies the change and, when the name changed, enqueues a
// reconciliation of the name copies denormalized onto products. Bill items
// keep their historical snapshot untouched.
func (s *Service) Update(ctx context.Context, shopID, id int64, req UpdateCategoryRequest) (Category, error) {
	existing, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return Category{}, err
	}

	updated := existing
	updated.Name = strings.TrimSpace(req.Name)
	updated.Description = req.Description
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return Category{}, err
	}

	if updated.Name != existing.Name && s.tasks != nil {
		if err := s.tasks.EnqueueCategorySync(ctx, shopID, id); err != nil {
			// The rename itself committed; the stale product copies are
			// caught by the periodic reconciliation run.
			s.logger.Warn("enqueue category sync", slog.Int64("category_id", id), slog.Any("error", err))
		}
	}
	return s.repo.Get(ctx, shopID, id)
}

// Deactivate soft-deletes the category; products keep referencing it.
func (s *Service) Deactivate(ctx context.Context, shopID, id int64) error {
	existing, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		return err
	}
	existing.IsActive = false
	if err := s.repo.Update(ctx, existing); err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	return nil
}
