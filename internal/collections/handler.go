package collections

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler exposes collection endpoints.
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
	r.Route("/collections", func(r chi.Router) {
		r.Get("/outstanding", h.OutstandingCustomers)
		r.Get("/customers/{customerID}/bills", h.UnpaidBills)
		r.Get("/bills/{billID}/payments", h.PaymentsForBill)
		r.Post("/bills/{billID}/payments", h.RecordPayment)
	})
}

func (h *Handler) OutstandingCustomers(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.OutstandingCustomers(r.Context(), sess.ShopID())
	if err != nil {
		h.logger.Error("outstanding customers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": list})
}

func (h *Handler) UnpaidBills(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "customer id must be numeric")
		return
	}
	list, err := h.service.UnpaidBills(r.Context(), sess.ShopID(), customerID)
	if err != nil {
		h.logger.Error("unpaid bills", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"bills": list})
}

func (h *Handler) PaymentsForBill(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	billID, err := strconv.ParseInt(chi.URLParam(r, "billID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "bill id must be numeric")
		return
	}
	list, err := h.service.PaymentsForBill(r.Context(), sess.ShopID(), billID)
	if err != nil {
		h.logger.Error("payments for bill", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": list})
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	billID, err := strconv.ParseInt(chi.URLParam(r, "billID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "bill id must be numeric")
		return
	}
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	collection, err := h.service.RecordPayment(r.Context(), sess.ShopID(), sess.UserID(), billID, req)
	if err != nil {
		h.logger.Error("record payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, collection)
}
