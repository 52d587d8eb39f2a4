package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillpoint/tillpoint/internal/platform/httpx"
	"github.com/tillpoint/tillpoint/internal/reports/export"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Handler exposes report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/daily", h.Daily)
		r.Get("/monthly", h.Monthly)
		r.Get("/range", h.Range)
		r.Get("/range/export", h.ExportSalesCSV)
		r.Get("/range/export/summary", h.ExportSummaryCSV)
	})
}

func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	report, err := h.service.Daily(r.Context(), sess.ShopID(), day)
	if err != nil {
		h.logger.Error("daily report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) Monthly(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	now := time.Now()
	year, month := now.Year(), now.Month()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Month", "month must be YYYY-MM")
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}

	report, err := h.service.Monthly(r.Context(), sess.ShopID(), year, month, now.Location())
	if err != nil {
		h.logger.Error("monthly report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) Range(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.Generate(r.Context(), sess.ShopID(), from, to)
	if err != nil {
		h.logger.Error("range report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// ExportSalesCSV downloads the flat one-row-per-bill sales sheet.
func (h *Handler) ExportSalesCSV(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	bills, err := h.service.Sales(r.Context(), sess.ShopID(), from, to)
	if err != nil {
		h.logger.Error("export sales", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("sales_%s_%s.csv", from.Format("20060102"), to.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteSalesCSV(w, bills); err != nil {
		h.logger.Error("write sales csv", slog.Any("error", err))
	}
}

// ExportSummaryCSV downloads the aggregated report blocks.
func (h *Handler) ExportSummaryCSV(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	report, err := h.service.Generate(r.Context(), sess.ShopID(), from, to)
	if err != nil {
		h.logger.Error("export report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	filename := fmt.Sprintf("report_%s_%s.csv", from.Format("20060102"), to.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := export.WriteReportCSV(w, report); err != nil {
		h.logger.Error("write report csv", slog.Any("error", err))
	}
}

// parseRange reads from/to dates; to is inclusive in the query and becomes
// exclusive here by adding a day.
func parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "from must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "to must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return from, to.AddDate(0, 0, 1), true
}
