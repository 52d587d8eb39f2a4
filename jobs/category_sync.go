package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tillpoint/tillpoint/internal/catalog/categories"
	"github.com/tillpoint/tillpoint/internal/catalog/products"
)

// CategorySyncHandler reconciles the denormalized category names on products
// after a rename. Bill items keep their historical snapshots.
type CategorySyncHandler struct {
	categories categories.Repository
	products   products.Repository
	logger     *slog.Logger
}

// NewCategorySyncHandler constructs the handler.
func NewCategorySyncHandler(categories categories.Repository, products products.Repository, logger *slog.Logger) *CategorySyncHandler {
	return &CategorySyncHandler{categories: categories, products: products, logger: logger}
}

// ProcessTask implements asynq.Handler.
func (h *CategorySyncHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload CategorySyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	category, err := h.categories.Get(ctx, payload.ShopID, payload.CategoryID)
	if err != nil {
		// The category may have been removed between rename and run.
		h.logger.Warn("category sync: lookup failed",
			slog.Int64("category_id", payload.CategoryID), slog.Any("error", err))
		return asynq.SkipRetry
	}

	updated, err := h.products.RefreshCategoryName(ctx, payload.ShopID, payload.CategoryID, category.Name)
	if err != nil {
		return err
	}
	h.logger.Info("category sync",
		slog.Int64("category_id", payload.CategoryID),
		slog.String("name", category.Name),
		slog.Int64("products_updated", updated))
	return nil
}
