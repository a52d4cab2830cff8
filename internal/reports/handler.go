package reports

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clarion-hms/clarion/internal/platform/httpx"
	"github.com/clarion-hms/clarion/internal/reports/export"
	"github.com/clarion-hms/clarion/internal/shared"
)

// ExportMetrics records export deliveries. Satisfied by observability.Metrics.
type ExportMetrics interface {
	CountExport(report, format string)
}

// Handler serves report listings and file exports.
type Handler struct {
	service  *Service
	renderer export.HTMLRenderer
	metrics  ExportMetrics
	logger   *slog.Logger
}

// NewHandler builds Handler. renderer and metrics are optional; without a
// renderer PDF exports respond 503.
func NewHandler(service *Service, renderer export.HTMLRenderer, metrics ExportMetrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, renderer: renderer, metrics: metrics, logger: logger}
}

// MountRoutes registers report endpoints on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/export/{report}", h.exportCSV)
	r.Get("/export-pdf/{report}", h.exportPDF)
	r.Get("/export-excel/{report}", h.exportExcel)
	r.Get("/{report}", h.list)
}

// listResponse extends the shared list envelope with stats and the covered window.
type listResponse struct {
	shared.Envelope
	Stats     any       `json:"stats"`
	DateRange DateRange `json:"dateRange"`
}

// comprehensiveResponse carries the composite statistics view. It has no rows
// to paginate, so links and meta are omitted.
type comprehensiveResponse struct {
	Data      ComprehensiveStats `json:"data"`
	Stats     ComprehensiveStats `json:"stats"`
	DateRange DateRange          `json:"dateRange"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reportType := ReportType(chi.URLParam(r, "report"))
	if !ValidReportType(reportType) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown report type")
		return
	}

	ctx := r.Context()
	query := r.URL.Query()
	filter := ParseFilter(query, h.service.now())
	page := shared.ParsePageRequest(query)
	dateRange := filter.Range(h.service.now())

	if reportType == ReportComprehensive {
		stats, err := h.service.Comprehensive(ctx, filter)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, comprehensiveResponse{Data: stats, Stats: stats, DateRange: dateRange})
		return
	}

	var (
		data  any
		stats any
		total int
		count int
		err   error
	)
	switch reportType {
	case ReportAppointments:
		var report AppointmentReport
		report, err = h.service.Appointments(ctx, filter, page.PerPage, page.Offset())
		data, stats, total, count = report.Records, report.Stats, report.Total, len(report.Records)
	case ReportPatients:
		var report PatientReport
		report, err = h.service.Patients(ctx, filter, page.PerPage, page.Offset())
		data, stats, total, count = report.Records, report.Stats, report.Total, len(report.Records)
	case ReportTransfers:
		var report TransferReport
		report, err = h.service.Transfers(ctx, filter, page.PerPage, page.Offset())
		data, stats, total, count = report.Records, report.Stats, report.Total, len(report.Records)
	case ReportInventory:
		var report InventoryReport
		report, err = h.service.Inventory(ctx, filter, page.PerPage, page.Offset())
		data, stats, total, count = report.Records, report.Stats, report.Total, len(report.Records)
	case ReportTransactions:
		var report TransactionReport
		report, err = h.service.Transactions(ctx, filter, page.PerPage, page.Offset())
		data, stats, total, count = report.Records, report.Stats, report.Total, len(report.Records)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	meta := shared.NewListMeta(page, total, count)
	httpx.JSON(w, http.StatusOK, listResponse{
		Envelope: shared.Envelope{
			Data:  data,
			Links: shared.BuildLinks(r.URL.Path, query, meta),
			Meta:  meta,
		},
		Stats:     stats,
		DateRange: dateRange,
	})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv")
}

func (h *Handler) exportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "pdf")
}

func (h *Handler) exportExcel(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "excel")
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format string) {
	reportType := ReportType(chi.URLParam(r, "report"))
	if !ValidReportType(reportType) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown report type")
		return
	}

	ctx := r.Context()
	filter := ParseFilter(r.URL.Query(), h.service.now())
	doc, err := h.service.BuildDocument(ctx, reportType, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var (
		body        bytes.Buffer
		contentType string
		ext         string
	)
	switch format {
	case "csv":
		contentType, ext = "text/csv", "csv"
		err = export.WriteCSV(&body, doc)
	case "excel":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
		err = export.WriteXLSX(&body, doc)
	case "pdf":
		if h.renderer == nil {
			httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "pdf rendering is not configured")
			return
		}
		contentType, ext = "application/pdf", "pdf"
		var pdf []byte
		pdf, err = export.RenderPDF(ctx, h.renderer, doc)
		if err == nil {
			_, err = body.Write(pdf)
		}
	}
	if err != nil {
		h.logger.Error("report export failed",
			slog.String("report", string(reportType)),
			slog.String("format", format),
			slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "export failed")
		return
	}

	filename := fmt.Sprintf("%s_report_%s.%s", reportType, doc.GeneratedAt.Format("2006-01-02"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)

	if h.metrics != nil {
		h.metrics.CountExport(string(reportType), format)
	}
	h.logger.Info("report exported",
		slog.String("report", string(reportType)),
		slog.String("format", format),
		slog.String("filename", filename))
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnknownReport) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown report type")
		return
	}
	h.logger.Error("report request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "report request failed")
}
