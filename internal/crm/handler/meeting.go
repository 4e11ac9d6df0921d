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

// MeetingHandler handles meeting record endpoints
type MeetingHandler struct {
	meetingService *service.MeetingService
	logger         *logger.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(svc *service.MeetingService, log *logger.Logger) *MeetingHandler {
	return &MeetingHandler{
		meetingService: svc,
		logger:         log,
	}
}

// Routes mounts the meeting endpoints
func (h *MeetingHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("meetings.view")).Get("/", h.List)
	r.With(httputil.RequirePermission("meetings.view")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("meetings.create")).Post("/", h.Create)
	r.With(httputil.RequirePermission("meetings.edit")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("meetings.delete")).Delete("/{id}", h.Delete)
}

// MeetingRequest is the create/update payload for a meeting record
type MeetingRequest struct {
	AppointmentID *string   `json:"appointment_id" validate:"omitempty,uuid"`
	LeadID        *string   `json:"lead_id" validate:"omitempty,uuid"`
	Title         string    `json:"title" validate:"required,min=1,max=255"`
	Summary       *string   `json:"summary"`
	Outcome       *string   `json:"outcome" validate:"omitempty,max=100"`
	HeldAt        time.Time `json:"held_at" validate:"required"`
}

func (req *MeetingRequest) apply(meeting *domain.Meeting) {
	meeting.AppointmentID = req.AppointmentID
	meeting.LeadID = req.LeadID
	meeting.Title = req.Title
	meeting.Summary = req.Summary
	meeting.Outcome = req.Outcome
	meeting.HeldAt = req.HeldAt
}

// Create records a held meeting
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MeetingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	meeting := &domain.Meeting{}
	req.apply(meeting)
	if userID := httputil.GetUserID(r.Context()); userID != "" {
		meeting.RecordedBy = &userID
	}

	if err := h.meetingService.Create(r.Context(), meeting); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, meeting)
}

// Get returns a meeting by ID
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	meeting, err := h.meetingService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, meeting)
}

// List returns the company's meeting history
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetingService.List(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, meetings)
}

// Update edits a meeting record
func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req MeetingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	meeting, err := h.meetingService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	req.apply(meeting)

	if err := h.meetingService.Update(r.Context(), meeting); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, meeting)
}

// Delete removes a meeting record
func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.meetingService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
