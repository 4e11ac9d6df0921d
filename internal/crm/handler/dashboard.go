package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/service"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// DashboardHandler serves the dashboard summary and audit trail
type DashboardHandler struct {
	dashboardService *service.DashboardService
	auditService     *service.AuditService
	logger           *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dash *service.DashboardService, audit *service.AuditService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dash,
		auditService:     audit,
		logger:           log,
	}
}

// Routes mounts the dashboard endpoints
func (h *DashboardHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("reports.view")).Get("/summary", h.Summary)
	r.With(httputil.RequirePermission("reports.view")).Get("/audit", h.ListAudit)
}

// Summary returns the aggregate dashboard view
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.dashboardService.Summary(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, summary)
}

// ListAudit returns recent audit log entries
func (h *DashboardHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.auditService.List(r.Context(), limit)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entries)
}
