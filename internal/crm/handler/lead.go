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

// LeadHandler handles lead and follow-up endpoints
type LeadHandler struct {
	leadService *service.LeadService
	logger      *logger.Logger
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(svc *service.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: svc,
		logger:      log,
	}
}

// Routes mounts the lead endpoints
func (h *LeadHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("leads.view")).Get("/", h.List)
	r.With(httputil.RequirePermission("leads.view")).Get("/follow-ups/pending", h.ListPendingFollowUps)
	r.With(httputil.RequirePermission("leads.view")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("leads.create")).Post("/", h.Create)
	r.With(httputil.RequirePermission("leads.edit")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("leads.edit")).Put("/{id}/column", h.MoveToColumn)
	r.With(httputil.RequirePermission("leads.delete")).Delete("/{id}", h.Delete)

	r.With(httputil.RequirePermission("leads.view")).Get("/{id}/follow-ups", h.ListFollowUps)
	r.With(httputil.RequirePermission("leads.create")).Post("/{id}/follow-ups", h.CreateFollowUp)
	r.With(httputil.RequirePermission("leads.edit")).Put("/follow-ups/{followUpID}", h.UpdateFollowUp)
	r.With(httputil.RequirePermission("leads.edit")).Put("/follow-ups/{followUpID}/complete", h.CompleteFollowUp)
	r.With(httputil.RequirePermission("leads.delete")).Delete("/follow-ups/{followUpID}", h.DeleteFollowUp)
}

// LeadRequest is the create/update payload for a lead
type LeadRequest struct {
	Name       string   `json:"name" validate:"required,min=1,max=255"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	Phone      *string  `json:"phone" validate:"omitempty,max=32"`
	Source     *string  `json:"source" validate:"omitempty,max=100"`
	Status     string   `json:"status" validate:"omitempty,oneof=new contacted qualified proposal won lost"`
	ColumnID   *string  `json:"column_id" validate:"omitempty,uuid"`
	AssignedTo *string  `json:"assigned_to" validate:"omitempty,uuid"`
	PartnerID  *string  `json:"partner_id" validate:"omitempty,uuid"`
	ProductID  *string  `json:"product_id" validate:"omitempty,uuid"`
	Value      *float64 `json:"value" validate:"omitempty,gte=0"`
	Notes      *string  `json:"notes"`
}

func (req *LeadRequest) apply(lead *domain.Lead) {
	lead.Name = req.Name
	lead.Email = req.Email
	lead.Phone = req.Phone
	lead.Source = req.Source
	lead.Status = req.Status
	lead.ColumnID = req.ColumnID
	lead.AssignedTo = req.AssignedTo
	lead.PartnerID = req.PartnerID
	lead.ProductID = req.ProductID
	lead.Value = req.Value
	lead.Notes = req.Notes
}

// Create creates a lead
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	lead := &domain.Lead{}
	req.apply(lead)
	if userID := httputil.GetUserID(r.Context()); userID != "" {
		lead.CreatedBy = &userID
	}

	if err := h.leadService.Create(r.Context(), lead); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, lead)
}

// Get returns a lead by ID
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leadService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, lead)
}

// List returns all leads of the company
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadService.List(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, leads)
}

// Update replaces a lead's mutable fields
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req LeadRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	lead, err := h.leadService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	req.apply(lead)

	if err := h.leadService.Update(r.Context(), lead); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lead)
}

// MoveToColumnRequest moves a lead to a pipeline column
type MoveToColumnRequest struct {
	ColumnID *string `json:"column_id" validate:"omitempty,uuid"`
}

// MoveToColumn moves a lead between pipeline columns. A null column
// removes it from the board.
func (h *LeadHandler) MoveToColumn(w http.ResponseWriter, r *http.Request) {
	var req MoveToColumnRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	lead, err := h.leadService.MoveToColumn(r.Context(), chi.URLParam(r, "id"), req.ColumnID)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lead)
}

// Delete soft-deletes a lead
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.leadService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// FollowUpRequest is the create/update payload for a follow-up
type FollowUpRequest struct {
	Notes *string   `json:"notes"`
	DueAt time.Time `json:"due_at" validate:"required"`
}

// CreateFollowUp schedules a follow-up for a lead
func (h *LeadHandler) CreateFollowUp(w http.ResponseWriter, r *http.Request) {
	var req FollowUpRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	followUp := &domain.FollowUp{
		LeadID: chi.URLParam(r, "id"),
		Notes:  req.Notes,
		DueAt:  req.DueAt,
	}
	if userID := httputil.GetUserID(r.Context()); userID != "" {
		followUp.CreatedBy = &userID
	}

	if err := h.leadService.CreateFollowUp(r.Context(), followUp); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, followUp)
}

// ListFollowUps lists a lead's follow-ups
func (h *LeadHandler) ListFollowUps(w http.ResponseWriter, r *http.Request) {
	followUps, err := h.leadService.ListFollowUps(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, followUps)
}

// ListPendingFollowUps lists the company's open follow-ups
func (h *LeadHandler) ListPendingFollowUps(w http.ResponseWriter, r *http.Request) {
	followUps, err := h.leadService.ListPendingFollowUps(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, followUps)
}

// UpdateFollowUp updates a follow-up's notes and due date
func (h *LeadHandler) UpdateFollowUp(w http.ResponseWriter, r *http.Request) {
	var req FollowUpRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	followUp, err := h.leadService.GetFollowUp(r.Context(), chi.URLParam(r, "followUpID"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	followUp.Notes = req.Notes
	followUp.DueAt = req.DueAt

	if err := h.leadService.UpdateFollowUp(r.Context(), followUp); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, followUp)
}

// CompleteFollowUp marks a follow-up as done
func (h *LeadHandler) CompleteFollowUp(w http.ResponseWriter, r *http.Request) {
	followUp, err := h.leadService.CompleteFollowUp(r.Context(), chi.URLParam(r, "followUpID"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, followUp)
}

// DeleteFollowUp removes a follow-up
func (h *LeadHandler) DeleteFollowUp(w http.ResponseWriter, r *http.Request) {
	if err := h.leadService.DeleteFollowUp(r.Context(), chi.URLParam(r, "followUpID")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
