package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/service"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// PipelineHandler handles pipeline column endpoints
type PipelineHandler struct {
	pipelineService *service.PipelineService
	logger          *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(svc *service.PipelineService, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipelineService: svc,
		logger:          log,
	}
}

// Routes mounts the pipeline endpoints
func (h *PipelineHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("pipeline.view")).Get("/", h.List)
	r.With(httputil.RequirePermission("pipeline.view")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("pipeline.create")).Post("/", h.Create)
	r.With(httputil.RequirePermission("pipeline.edit")).Put("/reorder", h.Reorder)
	r.With(httputil.RequirePermission("pipeline.edit")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("pipeline.delete")).Delete("/{id}", h.Delete)
}

// ColumnRequest is the create/update payload for a pipeline column
type ColumnRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	Color    *string `json:"color" validate:"omitempty,hexcolor"`
	Position int     `json:"position" validate:"gte=0"`
}

// Create adds a pipeline column
func (h *PipelineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ColumnRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	column := &domain.PipelineColumn{
		Name:     req.Name,
		Color:    req.Color,
		Position: req.Position,
	}
	if err := h.pipelineService.Create(r.Context(), column); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.Created(w, column)
}

// Get returns a column by ID
func (h *PipelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	column, err := h.pipelineService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, column)
}

// List returns the board columns in position order
func (h *PipelineHandler) List(w http.ResponseWriter, r *http.Request) {
	columns, err := h.pipelineService.List(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, columns)
}

// Update renames or recolors a column
func (h *PipelineHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ColumnRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	column, err := h.pipelineService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	column.Name = req.Name
	column.Color = req.Color
	column.Position = req.Position

	if err := h.pipelineService.Update(r.Context(), column); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, column)
}

// ReorderRequest is the full ordered column list
type ReorderRequest struct {
	ColumnIDs []string `json:"column_ids" validate:"required,min=1,dive,uuid"`
}

// Reorder rewrites the board order in one transaction
func (h *PipelineHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	columns, err := h.pipelineService.Reorder(r.Context(), req.ColumnIDs)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, columns)
}

// Delete removes a column; leads in it fall off the board
func (h *PipelineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.pipelineService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
