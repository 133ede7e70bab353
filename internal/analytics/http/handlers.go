package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/chart"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/export"
	"github.com/apex-analytics/apex-dashboard/internal/analytics/ui"
	"github.com/apex-analytics/apex-dashboard/internal/dataset"
	"github.com/apex-analytics/apex-dashboard/internal/platform/httpx"
	"github.com/apex-analytics/apex-dashboard/internal/view"
)

const (
	maxMerchantLength = 128
	maxPeriodLength   = 64
	reloadTimeout     = 30 * time.Second

	// loadingRefresh is how often the loading page polls for the snapshot.
	loadingRefresh = 2
)

// DatasetService defines the dataset contract used by the handler.
type DatasetService interface {
	Status() (dataset.State, *dataset.Snapshot, error)
	Merchant(name string) (*dataset.Snapshot, string, *dataset.Payload, error)
	Reload(ctx context.Context) error
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) (export.Document, error)
}

// Handler coordinates HTTP requests for the approval dashboard.
type Handler struct {
	logger    *slog.Logger
	service   DatasetService
	templates *view.Engine
	line      ui.LineRenderer
	bar       ui.BarRenderer
	donut     ui.DonutRenderer
	pdf       PDFService
	csvPool   sync.Pool
	origins   []string
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DatasetService, templates *view.Engine, line ui.LineRenderer, bar ui.BarRenderer, donut ui.DonutRenderer, pdf PDFService) *Handler {
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		line:      line,
		bar:       bar,
		donut:     donut,
		pdf:       pdf,
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithAllowedOrigins restricts CORS on the JSON API.
func (h *Handler) WithAllowedOrigins(origins []string) {
	h.origins = origins
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	state, _, _ := h.service.Status()
	switch state {
	case dataset.StateLoading:
		h.renderPage(w, r, http.StatusOK, "pages/loading.html", view.TemplateData{Title: "Carregando", RefreshSeconds: loadingRefresh})
		return
	case dataset.StateFailed:
		// The load already logged the cause.
		h.renderPage(w, r, http.StatusServiceUnavailable, "pages/error.html", view.TemplateData{Title: "Erro"})
		return
	}

	snap, merchant, payload, err := h.service.Merchant(filters.Merchant)
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	vm, err := h.buildViewModel(filters, snap, merchant, payload)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}
	h.renderPage(w, r, http.StatusOK, "pages/dashboard.html", view.TemplateData{Title: merchant, Data: vm})
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, name string, data view.TemplateData) {
	data.CurrentPath = r.URL.Path
	if err := h.templates.RenderStatus(w, status, name, data); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleRawData(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	etag := `"` + snap.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", snap.LoadedAt.UTC().Format(http.TimeFormat))
	if _, err := w.Write(snap.Raw); err != nil {
		h.logError("stream dataset", err)
	}
}

func (h *Handler) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	snap, merchant, payload, err := h.merchant(filters.Merchant)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	vm, err := h.buildViewModel(filters, snap, merchant, payload)
	if err != nil {
		h.logError("build dashboard", err)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("ETag", `"`+snap.Fingerprint+`"`)
	httpx.JSON(w, http.StatusOK, toAPIDashboard(vm))
}

func (h *Handler) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	_, _, payload, err := h.merchant(filters.Merchant)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAPITransactions(analytics.PageTransactions(payload.Transactions, filters.Page)))
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	_, merchant, payload, err := h.merchant(filters.Merchant)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteKPICSV(buf, merchant, payload.KPIs); err != nil {
		h.handleServerError(w, "write kpi csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteErrorsCSV(buf, payload.ErrorData); err != nil {
		h.handleServerError(w, "write errors csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteBrandsCSV(buf, payload.BrandData); err != nil {
		h.handleServerError(w, "write brands csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteTransactionsCSV(buf, payload.Transactions); err != nil {
		h.handleServerError(w, "write transactions csv", err)
		return
	}

	filename := fmt.Sprintf("dashboard-%s.csv", slug(merchant))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	_, merchant, payload, err := h.merchant(filters.Merchant)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	doc, err := h.pdf.RenderDashboard(r.Context(), export.DashboardPayload{
		Merchant:    merchant,
		KPIs:        payload.KPIs,
		Errors:      analytics.TopErrors(payload.ErrorData, true).Entries,
		Brands:      payload.BrandData,
		Actions:     analytics.BuildActionPlan(payload),
		GeneratedAt: h.now(),
	})
	if err != nil {
		h.logError("render pdf", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", doc.Filename()))
	w.Header().Set("X-Export-ID", doc.ID)
	if _, err := w.Write(doc.Bytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	_, _, payload, err := h.merchant(filters.Merchant)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var buf bytes.Buffer
	err = chart.Render(&buf, chi.URLParam(r, "name"), payload, filters.Period)
	switch {
	case errors.Is(err, chart.ErrUnknownChart):
		http.NotFound(w, r)
		return
	case errors.Is(err, chart.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		h.handleServerError(w, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := buf.WriteTo(w); err != nil {
		h.logError("stream chart", err)
	}
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := h.service.Reload(ctx); err != nil {
			h.logError("reload dataset", err)
		}
	}()
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) snapshot() (*dataset.Snapshot, error) {
	state, snap, err := h.service.Status()
	switch state {
	case dataset.StateLoaded:
		return snap, nil
	case dataset.StateFailed:
		return nil, fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	default:
		return nil, fmt.Errorf("%w: %w", httpx.ErrUnavailable, dataset.ErrNotLoaded)
	}
}

// merchant resolves a payload and maps dataset errors onto httpx sentinels.
func (h *Handler) merchant(name string) (*dataset.Snapshot, string, *dataset.Payload, error) {
	if _, err := h.snapshot(); err != nil {
		return nil, "", nil, err
	}
	snap, merchant, payload, err := h.service.Merchant(name)
	switch {
	case err == nil:
		return snap, merchant, payload, nil
	case errors.Is(err, dataset.ErrMerchantNotFound):
		return nil, "", nil, fmt.Errorf("%w: %w", httpx.ErrNotFound, err)
	case errors.Is(err, dataset.ErrNotLoaded):
		return nil, "", nil, fmt.Errorf("%w: %w", httpx.ErrUnavailable, err)
	default:
		return nil, "", nil, err
	}
}

func (h *Handler) parseFilters(r *http.Request) (ui.DashboardFilters, error) {
	q := r.URL.Query()
	filters := ui.DashboardFilters{Page: 1}

	merchant := strings.TrimSpace(q.Get("merchant"))
	if !validFilterText(merchant, maxMerchantLength) {
		return ui.DashboardFilters{}, validationError{field: "merchant"}
	}
	filters.Merchant = merchant

	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ui.DashboardFilters{}, validationError{field: "page"}
		}
		filters.Page = page
	}

	switch strings.ToLower(strings.TrimSpace(q.Get("errors"))) {
	case "", "top":
	case "all":
		filters.ShowAllErrors = true
	default:
		return ui.DashboardFilters{}, validationError{field: "errors"}
	}

	period := strings.TrimSpace(q.Get("period"))
	if !validFilterText(period, maxPeriodLength) {
		return ui.DashboardFilters{}, validationError{field: "period"}
	}
	filters.Period = period
	return filters, nil
}

func validFilterText(s string, max int) bool {
	if len(s) > max {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}

func slug(s string) string {
	out := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '-'
	}, s)
	out = strings.Trim(out, "-")
	if out == "" {
		return "export"
	}
	return out
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		http.Error(w, "Parâmetro inválido: "+vErr.field, http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) handleLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, dataset.ErrMerchantNotFound) {
		http.Error(w, "Estabelecimento não encontrado", http.StatusNotFound)
		return
	}
	h.handleServerError(w, "lookup merchant", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

// Is lets httpx map filter errors to 400.
func (v validationError) Is(target error) bool {
	return target == httpx.ErrValidation
}

// HandleDashboardForTest exposes the dashboard handler for tests.
func (h *Handler) HandleDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboard(w, r)
}

// HandlePDFForTest exposes the PDF handler for tests.
func (h *Handler) HandlePDFForTest(w http.ResponseWriter, r *http.Request) { h.handlePDF(w, r) }

// HandleCSVForTest exposes the CSV handler for tests.
func (h *Handler) HandleCSVForTest(w http.ResponseWriter, r *http.Request) { h.handleCSV(w, r) }
