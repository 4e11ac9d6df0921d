package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/service"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// ExportHandler serves CSV downloads
type ExportHandler struct {
	exportService *service.ExportService
	logger        *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.ExportService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: svc,
		logger:        log,
	}
}

// Routes mounts the export endpoints
func (h *ExportHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("reports.view")).Get("/leads", h.ExportLeads)
	r.With(httputil.RequirePermission("reports.view")).Get("/appointments", h.ExportAppointments)
}

// ExportLeads downloads the company's leads as CSV
func (h *ExportHandler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	writeCSVHeaders(w, "leads")
	if err := h.exportService.ExportLeads(r.Context(), w); err != nil {
		// Headers are already out; all we can do is log and cut the stream
		h.logger.Error().Err(err).Msg("lead export failed mid-stream")
	}
}

// ExportAppointments downloads the company's appointments as CSV
func (h *ExportHandler) ExportAppointments(w http.ResponseWriter, r *http.Request) {
	writeCSVHeaders(w, "appointments")
	if err := h.exportService.ExportAppointments(r.Context(), w); err != nil {
		h.logger.Error().Err(err).Msg("appointment export failed mid-stream")
	}
}

func writeCSVHeaders(w http.ResponseWriter, name string) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
