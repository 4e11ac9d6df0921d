package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/service"
	"github.com/joaofarinelli/we-crm-sub002/internal/permissions"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// TeamHandler handles team member, role and permission grid endpoints
type TeamHandler struct {
	teamService *service.TeamService
	logger      *logger.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(svc *service.TeamService, log *logger.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: svc,
		logger:      log,
	}
}

// Routes mounts the team endpoints
func (h *TeamHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("team.view")).Get("/", h.ListProfiles)
	r.With(httputil.RequirePermission("team.view")).Get("/roles", h.ListRoles)
	r.With(httputil.RequirePermission("team.view")).Get("/roles/{roleName}/grid", h.GetGrid)
	// Any member may ask what their own role can reach
	r.Get("/access/{resource}", h.CanAccess)
	r.With(httputil.RequirePermission("settings.edit")).Put("/roles/{roleName}/grid", h.SaveGrid)
	r.With(httputil.RequirePermission("settings.edit")).Delete("/roles/{roleName}/grid", h.ResetGrid)
	r.With(httputil.RequirePermission("team.view")).Get("/{id}", h.GetProfile)
	r.With(httputil.RequirePermission("team.create")).Post("/", h.CreateProfile)
	r.With(httputil.RequirePermission("team.edit")).Put("/{id}", h.UpdateProfile)
	r.With(httputil.RequirePermission("team.delete")).Delete("/{id}", h.DeactivateProfile)
}

// ProfileRequest is the create/update payload for a team member
type ProfileRequest struct {
	UserID string  `json:"user_id" validate:"required,uuid"`
	Name   string  `json:"name" validate:"required,min=1,max=255"`
	Email  string  `json:"email" validate:"required,email"`
	Phone  *string `json:"phone" validate:"omitempty,max=32"`
	Avatar *string `json:"avatar" validate:"omitempty,url"`
	RoleID string  `json:"role_id" validate:"required,uuid"`
}

// CreateProfile adds a member to the company
func (h *TeamHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	profile := &domain.Profile{
		UserID:   req.UserID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
		RoleID:   req.RoleID,
		IsActive: true,
	}
	if err := h.teamService.CreateProfile(r.Context(), profile); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, profile)
}

// GetProfile returns a team member by ID
func (h *TeamHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.teamService.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, profile)
}

// ListProfiles lists the company's team members
func (h *TeamHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.teamService.ListProfiles(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, profiles)
}

// UpdateProfile edits a team member
func (h *TeamHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	profile, err := h.teamService.GetProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	profile.Name = req.Name
	profile.Email = req.Email
	profile.Phone = req.Phone
	profile.Avatar = req.Avatar
	profile.RoleID = req.RoleID

	if err := h.teamService.UpdateProfile(r.Context(), profile); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// DeactivateProfile removes a member's access without deleting history
func (h *TeamHandler) DeactivateProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.teamService.DeactivateProfile(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// ListRoles lists system roles plus the company's custom roles
func (h *TeamHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.teamService.ListRoles(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, roles)
}

// GetGrid returns a role's effective permission grid: the built-in
// default merged with the company's override, if any.
func (h *TeamHandler) GetGrid(w http.ResponseWriter, r *http.Request) {
	roleName := chi.URLParam(r, "roleName")
	grid, err := h.teamService.EffectiveGrid(r.Context(), roleName)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"role": roleName,
		"grid": grid,
	})
}

// CanAccess reports whether the caller's role may view a resource
func (h *TeamHandler) CanAccess(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	allowed, err := h.teamService.CanAccess(r.Context(), resource)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"resource": resource,
		"allowed":  allowed,
	})
}

// SaveGrid stores a company-level permission grid override for a role
func (h *TeamHandler) SaveGrid(w http.ResponseWriter, r *http.Request) {
	var grid permissions.Grid
	if err := httputil.DecodeJSON(r, &grid); err != nil {
		httputil.Error(w, r, err)
		return
	}

	roleName := chi.URLParam(r, "roleName")
	if err := h.teamService.SaveGridOverride(r.Context(), roleName, grid); err != nil {
		httputil.Error(w, r, err)
		return
	}

	grid2, err := h.teamService.EffectiveGrid(r.Context(), roleName)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"role": roleName,
		"grid": grid2,
	})
}

// ResetGrid drops the override, restoring the role's default grid
func (h *TeamHandler) ResetGrid(w http.ResponseWriter, r *http.Request) {
	if err := h.teamService.ResetGridOverride(r.Context(), chi.URLParam(r, "roleName")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
