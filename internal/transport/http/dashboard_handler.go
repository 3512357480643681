package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "pmopulse/internal/errors"
	"pmopulse/internal/services"
	"pmopulse/pkg/contracts/domain"
)

// filterParams maps query parameter names to filterable fields.
var filterParams = map[string]domain.Field{
	"status":   domain.FieldStatus,
	"priority": domain.FieldPriority,
	"category": domain.FieldCategory,
	"owner":    domain.FieldOwner,
	"manager":  domain.FieldManager,
	"vendor":   domain.FieldVendor,
}

// DashboardHandler handles dataset and dashboard HTTP requests
type DashboardHandler struct {
	service      *services.DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
	onLoaded     func(rows int, source string)
}

// OnDatasetLoaded registers a callback invoked after each successful
// upload, used to push reload events to websocket clients.
func (h *DashboardHandler) OnDatasetLoaded(fn func(rows int, source string)) {
	h.onLoaded = fn
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *services.DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUpload int64) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
	}
}

// Routes returns the dashboard routes with proper Chi patterns
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/dataset", func(r chi.Router) {
		r.Post("/", h.UploadDataset)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/status", h.DatasetStatus)
	})

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/projects", h.GetProjects)
		r.Get("/summary", h.GetSummary)
		r.Get("/aggregations/{field}", h.GetAggregation)
		r.Get("/overdue", h.GetOverdue)
		r.Get("/timeline", h.GetTimeline)
	})

	r.Get("/export/projects.csv", h.ExportProjects)
	r.Get("/export/overdue.csv", h.ExportOverdue)

	return r
}

// UploadDataset handles POST /api/dataset. Accepts a multipart form
// with a "file" part holding a CSV or XLSX register.
func (h *DashboardHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	rows, err := h.service.LoadFromUpload(r.Context(), header.Filename, data)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if h.onLoaded != nil {
		h.onLoaded(rows, header.Filename)
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Status(r.Context()),
		"count":  rows,
	})
}

// DatasetStatus handles GET /api/dataset/status
func (h *DashboardHandler) DatasetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Status(r.Context()),
	})
}

// GetProjects handles GET /api/projects
func (h *DashboardHandler) GetProjects(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.Filtered(r.Context(), selectionsFromQuery(r.URL.Query()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
		"count":  len(table),
	})
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), selectionsFromQuery(r.URL.Query()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
	})
}

// GetAggregation handles GET /api/aggregations/{field}
func (h *DashboardHandler) GetAggregation(w http.ResponseWriter, r *http.Request) {
	field, ok := domain.ParseField(chi.URLParam(r, "field"))
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("field",
			fmt.Sprintf("unknown field %q", chi.URLParam(r, "field"))))
		return
	}

	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("top", "must be a positive integer"))
			return
		}
		top = n
	}

	counts, err := h.service.Distribution(r.Context(), field, selectionsFromQuery(r.URL.Query()), top)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   counts,
		"count":  len(counts),
	})
}

// GetOverdue handles GET /api/overdue
func (h *DashboardHandler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	table, err := h.service.OverdueRows(r.Context(), q.Get("owner"), q.Get("manager"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
		"count":  len(table),
	})
}

// GetTimeline handles GET /api/timeline
func (h *DashboardHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	table, err := h.service.Timeline(r.Context(), selectionsFromQuery(r.URL.Query()), limit)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
		"count":  len(table),
	})
}

// ExportProjects handles GET /api/export/projects.csv
func (h *DashboardHandler) ExportProjects(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportProjects(r.Context(), selectionsFromQuery(r.URL.Query()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	serveCSV(w, "projects.csv", data)
}

// ExportOverdue handles GET /api/export/overdue.csv. The scope query
// parameter is "all" (default) or "filtered".
func (h *DashboardHandler) ExportOverdue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data, err := h.service.ExportOverdue(r.Context(), q.Get("scope"), selectionsFromQuery(q))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	serveCSV(w, "overdue.csv", data)
}

// handleServiceError maps service errors to API errors before handing
// off to the shared RFC 7807 error handler.
func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotFound)
	case errors.Is(err, services.ErrUnknownField), errors.Is(err, services.ErrInvalidInput):
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// selectionsFromQuery builds filter selections from repeatable query
// parameters. Unknown parameters are ignored.
func selectionsFromQuery(q url.Values) domain.Selections {
	sel := make(domain.Selections)
	for param, field := range filterParams {
		values := q[param]
		if len(values) == 0 {
			continue
		}
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			sel[field] = kept
		}
	}
	return sel
}

// serveCSV writes a CSV attachment response
func serveCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
