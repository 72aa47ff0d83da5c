package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics/export"
	"github.com/odyssey-erp/odyssey-pulse/internal/analytics/ui"
	"github.com/odyssey-erp/odyssey-pulse/internal/dashboard"
	"github.com/odyssey-erp/odyssey-pulse/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pulse/internal/view"
	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

const requestTimeout = 2 * time.Second

// Board is the dashboard container contract used by the handler.
type Board interface {
	Views() []widget.ViewModel
	View(id string) (widget.ViewModel, error)
	Spec(id string) (dashboard.WidgetSpec, bool)
	Range() int
	Global() int64
	Loading() bool
	RefreshAll(ctx context.Context) error
	SetRange(ctx context.Context, raw string) error
	RefreshWidget(id string) error
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Handler serves the analytics dashboard.
type Handler struct {
	logger    *slog.Logger
	board     Board
	templates *view.Engine
	renderers ui.Renderers
	pdf       PDFService
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. pdf may be nil.
func NewHandler(logger *slog.Logger, board Board, templates *view.Engine, renderers ui.Renderers, pdf PDFService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		board:     board,
		templates: templates,
		renderers: renderers,
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

// DashboardResponse is the JSON shape of the whole board.
type DashboardResponse struct {
	Range   int                `json:"range"`
	Refresh int64              `json:"refresh"`
	Loading bool               `json:"loading"`
	Widgets []widget.ViewModel `json:"widgets"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	vm := h.buildViewModel()
	data := view.TemplateData{
		Title:       "Analytics",
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", data); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleWidgets(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.snapshot())
}

func (h *Handler) handleWidget(w http.ResponseWriter, r *http.Request) {
	vm, err := h.board.View(chi.URLParam(r, "id"))
	if err != nil {
		h.respondBoardError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vm)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := h.board.RefreshAll(ctx); err != nil {
		// The bump still applies to this replica.
		h.logger.Warn("refresh broadcast", slog.Any("error", err))
	}
	h.respondAccepted(w, r)
}

func (h *Handler) handleRange(w http.ResponseWriter, r *http.Request) {
	raw, err := readRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	err = h.board.SetRange(ctx, raw)
	if errors.Is(err, dashboard.ErrInvalidRange) {
		h.respondBoardError(w, err)
		return
	}
	if err != nil {
		h.logger.Warn("range broadcast", slog.Any("error", err))
	}
	h.respondAccepted(w, r)
}

func (h *Handler) handleWidgetRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.board.RefreshWidget(chi.URLParam(r, "id")); err != nil {
		h.respondBoardError(w, err)
		return
	}
	h.respondAccepted(w, r)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	views := h.board.Views()

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSummaryCSV(buf, views, h.board.Range()); err != nil {
		h.handleServerError(w, "write summary csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteSeriesCSV(buf, views); err != nil {
		h.handleServerError(w, "write series csv", err)
		return
	}

	filename := fmt.Sprintf("analytics-%dd-%s.csv", h.board.Range(), h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusNotImplemented, "Not Implemented", "pdf exporter not configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 4*requestTimeout)
	defer cancel()

	payload := export.DashboardPayload{
		Range:       h.board.Range(),
		GeneratedAt: h.now(),
		Widgets:     h.board.Views(),
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}

	filename := fmt.Sprintf("analytics-%dd-%s.pdf", payload.Range, payload.GeneratedAt.UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) buildViewModel() ui.DashboardViewModel {
	snap := h.snapshot()
	vm := ui.DashboardViewModel{
		Range:        snap.Range,
		RangeOptions: ui.RangeOptions(snap.Range),
		Refresh:      snap.Refresh,
		Loading:      snap.Loading,
		Widgets:      make([]ui.WidgetCard, 0, len(snap.Widgets)),
	}
	for _, wvm := range snap.Widgets {
		color := ""
		if spec, ok := h.board.Spec(wvm.WidgetID); ok {
			color = spec.Color
		}
		vm.Widgets = append(vm.Widgets, ui.ToWidgetCard(wvm, color, h.renderers))
	}
	return vm
}

func (h *Handler) snapshot() DashboardResponse {
	views := h.board.Views()
	loading := false
	for _, vm := range views {
		if vm.IsLoading {
			loading = true
			break
		}
	}
	return DashboardResponse{
		Range:   h.board.Range(),
		Refresh: h.board.Global(),
		Loading: loading,
		Widgets: views,
	}
}

// respondAccepted answers API clients with the board state and sends
// browsers back to the page.
func (h *Handler) respondAccepted(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusAccepted, h.snapshot())
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) respondBoardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrWidgetNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, dashboard.ErrInvalidRange):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	default:
		h.logError("dashboard", err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	h.logger.Error(context, slog.Any("error", err))
}

type rangeBody struct {
	Range string `json:"range"`
}

func readRange(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body rangeBody
		if err := httpx.DecodeJSON(r, &body); err != nil {
			return "", fmt.Errorf("decode body: %w", err)
		}
		return strings.TrimSpace(body.Range), nil
	}
	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("parse form: %w", err)
	}
	return strings.TrimSpace(r.FormValue("range")), nil
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
