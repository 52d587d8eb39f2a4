package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tillpoint/tillpoint/internal/auth"
	"github.com/tillpoint/tillpoint/internal/billing"
	"github.com/tillpoint/tillpoint/internal/catalog/categories"
	"github.com/tillpoint/tillpoint/internal/catalog/products"
	"github.com/tillpoint/tillpoint/internal/collections"
	"github.com/tillpoint/tillpoint/internal/customers"
	"github.com/tillpoint/tillpoint/internal/reports"
	"github.com/tillpoint/tillpoint/internal/shared"
	"github.com/tillpoint/tillpoint/internal/shops"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler        *auth.Handler
	ProductHandler     *products.Handler
	CategoryHandler    *categories.Handler
	CustomerHandler    *customers.Handler
	ShopHandler        *shops.Handler
	BillingHandler     *billing.Handler
	CollectionsHandler *collections.Handler
	ReportsHandler     *reports.Handler
}

// NewRouter constructs the chi.Router with TillPoint defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession)
			params.ProductHandler.MountRoutes(r)
			params.CategoryHandler.MountRoutes(r)
			params.CustomerHandler.MountRoutes(r)
			params.ShopHandler.MountRoutes(r)
			params.BillingHandler.MountRoutes(r)
			params.CollectionsHandler.MountRoutes(r)
			params.ReportsHandler.MountRoutes(r)
		})
	})

	return r
}
