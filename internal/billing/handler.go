package billing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler exposes cart and bill endpoints. The cart is addressed by the
// caller's session, so no ids appear in cart URLs.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
		r.Put("/customer", h.SetCustomer)
		r.Put("/adjustments", h.SetAdjustments)
		r.Post("/checkout", h.Checkout)
	})
	r.Route("/bills", func(r chi.Router) {
		r.Get("/", h.ListBills)
		r.Get("/{id}", h.GetBill)
		r.Delete("/{id}", h.DeleteBill)
	})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	view, err := h.service.GetCart(r.Context(), sess.ShopID(), sess.ID)
	if err != nil {
		h.logger.Error("load cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.ClearCart(r.Context(), sess.ShopID(), sess.ID); err != nil {
		h.logger.Error("clear cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	view, err := h.service.AddItem(r.Context(), sess.ShopID(), sess.ID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	var req UpdateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	view, err := h.service.UpdateItem(r.Context(), sess.ShopID(), sess.ID, productID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	view, err := h.service.RemoveItem(r.Context(), sess.ShopID(), sess.ID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req SetCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	view, err := h.service.SetCustomer(r.Context(), sess.ShopID(), sess.ID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) SetAdjustments(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req SetAdjustmentsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	view, err := h.service.SetAdjustments(r.Context(), sess.ShopID(), sess.ID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	var req CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	bill, err := h.service.Checkout(r.Context(), sess.ShopID(), sess.UserID(), sess.ID, req)
	if err != nil {
		h.logger.Error("checkout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	q := r.URL.Query()

	var filters ListFilters
	if raw := q.Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "customer_id must be numeric")
			return
		}
		filters.CustomerID = &id
	}
	if raw := q.Get("status"); raw != "" {
		filters.Status = PaymentStatus(raw)
	}
	if raw := q.Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "from must be RFC3339")
			return
		}
		filters.From = &ts
	}
	if raw := q.Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "to must be RFC3339")
			return
		}
		filters.To = &ts
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PerPage <= 0 || filters.PerPage > 200 {
		filters.PerPage = 20
	}

	list, pagination, err := h.service.ListBills(r.Context(), sess.ShopID(), filters)
	if err != nil {
		h.logger.Error("list bills", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bills": list, "pagination": pagination})
}

func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "bill id must be numeric")
		return
	}
	bill, err := h.service.GetBill(r.Context(), sess.ShopID(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "bill id must be numeric")
		return
	}
	if err := h.service.DeleteBill(r.Context(), sess.ShopID(), sess.UserID(), id); err != nil {
		h.logger.Error("delete bill", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
