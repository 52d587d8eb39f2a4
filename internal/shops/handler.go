package shops

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler exposes the shop profile endpoints. The shop is resolved from the
// session, never from the URL, so a user can only read and edit their own.
type Handler struct {
	logger   *slog.Logger
	repo     Repository
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo, validate: validator.New()}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/shop", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	shop, err := h.repo.Get(r.Context(), sess.ShopID())
	if err != nil {
		h.logger.Error("get shop", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shop)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req UpdateShopRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	shop, err := h.repo.Get(r.Context(), sess.ShopID())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	shop.Name = strings.TrimSpace(req.Name)
	shop.Address = req.Address
	shop.Phone = req.Phone
	shop.Email = req.Email
	shop.GSTNumber = req.GSTNumber
	shop.LogoURL = req.LogoURL

	if err := h.repo.Update(r.Context(), shop); err != nil {
		h.logger.Error("update shop", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shop)
}
