package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/service"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// AppointmentHandler handles appointment endpoints
type AppointmentHandler struct {
	apptService *service.AppointmentService
	logger      *logger.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(svc *service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		apptService: svc,
		logger:      log,
	}
}

// Routes mounts the appointment endpoints
func (h *AppointmentHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("appointments.view")).Get("/", h.List)
	r.With(httputil.RequirePermission("appointments.view")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("appointments.create")).Post("/", h.Create)
	r.With(httputil.RequirePermission("appointments.edit")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("appointments.edit")).Put("/{id}/status", h.UpdateStatus)
	r.With(httputil.RequirePermission("appointments.delete")).Delete("/{id}", h.Delete)
}

// AppointmentRequest is the create/update payload for an appointment
type AppointmentRequest struct {
	LeadID      *string   `json:"lead_id" validate:"omitempty,uuid"`
	Title       string    `json:"title" validate:"required,min=1,max=255"`
	Description *string   `json:"description"`
	Status      string    `json:"status" validate:"omitempty,oneof=scheduled confirmed completed no_show cancelled"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Duration    int       `json:"duration_minutes" validate:"omitempty,gt=0,lte=480"`
	AssignedTo  *string   `json:"assigned_to" validate:"omitempty,uuid"`
}

func (req *AppointmentRequest) apply(appt *domain.Appointment) {
	appt.LeadID = req.LeadID
	appt.Title = req.Title
	appt.Description = req.Description
	appt.Status = req.Status
	appt.ScheduledAt = req.ScheduledAt
	appt.Duration = req.Duration
	appt.AssignedTo = req.AssignedTo
}

// Create books an appointment
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	appt := &domain.Appointment{}
	req.apply(appt)
	if userID := httputil.GetUserID(r.Context()); userID != "" {
		appt.CreatedBy = &userID
	}

	if err := h.apptService.Create(r.Context(), appt); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, appt)
}

// Get returns an appointment by ID
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	appt, err := h.apptService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, appt)
}

// List returns the company's appointments, optionally windowed by
// ?from= and ?to= (RFC 3339).
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	if fromStr != "" && toStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			httputil.Error(w, r, err)
			return
		}
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			httputil.Error(w, r, err)
			return
		}
		appointments, err := h.apptService.ListBetween(r.Context(), from, to)
		if err != nil {
			httputil.Error(w, r, err)
			return
		}
		httputil.JSON(w, http.StatusOK, appointments)
		return
	}

	appointments, err := h.apptService.List(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, appointments)
}

// Update replaces an appointment's mutable fields
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req AppointmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	appt, err := h.apptService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	req.apply(appt)

	if err := h.apptService.Update(r.Context(), appt); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, appt)
}

// StatusRequest changes only the appointment status
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled confirmed completed no_show cancelled"`
}

// UpdateStatus transitions an appointment's status
func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	appt, err := h.apptService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, appt)
}

// Delete removes an appointment
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.apptService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
