package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/service"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// PartnerHandler handles partner endpoints
type PartnerHandler struct {
	partnerService *service.PartnerService
	logger         *logger.Logger
}

// NewPartnerHandler creates a new partner handler
func NewPartnerHandler(svc *service.PartnerService, log *logger.Logger) *PartnerHandler {
	return &PartnerHandler{partnerService: svc, logger: log}
}

// Routes mounts the partner endpoints
func (h *PartnerHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("partners.view")).Get("/", h.List)
	r.With(httputil.RequirePermission("partners.view")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("partners.create")).Post("/", h.Create)
	r.With(httputil.RequirePermission("partners.edit")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("partners.delete")).Delete("/{id}", h.Delete)
}

// PartnerRequest is the create/update payload for a partner
type PartnerRequest struct {
	Name       string   `json:"name" validate:"required,min=1,max=255"`
	Email      *string  `json:"email" validate:"omitempty,email"`
	Phone      *string  `json:"phone" validate:"omitempty,max=32"`
	Commission *float64 `json:"commission_percent" validate:"omitempty,gte=0,lte=100"`
	IsActive   *bool    `json:"is_active"`
}

// Create registers a partner
func (h *PartnerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PartnerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	partner := &domain.Partner{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Commission: req.Commission,
		IsActive:   true,
	}
	if req.IsActive != nil {
		partner.IsActive = *req.IsActive
	}

	if err := h.partnerService.Create(r.Context(), partner); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, partner)
}

// Get returns a partner by ID
func (h *PartnerHandler) Get(w http.ResponseWriter, r *http.Request) {
	partner, err := h.partnerService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, partner)
}

// List returns the company's partners
func (h *PartnerHandler) List(w http.ResponseWriter, r *http.Request) {
	partners, err := h.partnerService.List(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, partners)
}

// Update edits a partner
func (h *PartnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req PartnerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	partner, err := h.partnerService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	partner.Name = req.Name
	partner.Email = req.Email
	partner.Phone = req.Phone
	partner.Commission = req.Commission
	if req.IsActive != nil {
		partner.IsActive = *req.IsActive
	}

	if err := h.partnerService.Update(r.Context(), partner); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, partner)
}

// Delete soft-deletes a partner
func (h *PartnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.partnerService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// ScriptHandler handles sales script endpoints
type ScriptHandler struct {
	scriptService *service.ScriptService
	logger        *logger.Logger
}

// NewScriptHandler creates a new script handler
func NewScriptHandler(svc *service.ScriptService, log *logger.Logger) *ScriptHandler {
	return &ScriptHandler{scriptService: svc, logger: log}
}

// Routes mounts the script endpoints
func (h *ScriptHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("scripts.view")).Get("/", h.List)
	r.With(httputil.RequirePermission("scripts.view")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("scripts.create")).Post("/", h.Create)
	r.With(httputil.RequirePermission("scripts.edit")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("scripts.delete")).Delete("/{id}", h.Delete)
}

// ScriptRequest is the create/update payload for a script
type ScriptRequest struct {
	Title    string  `json:"title" validate:"required,min=1,max=255"`
	Content  string  `json:"content" validate:"required"`
	Category *string `json:"category" validate:"omitempty,max=100"`
}

// Create adds a sales script
func (h *ScriptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ScriptRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	script := &domain.Script{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	}
	if userID := httputil.GetUserID(r.Context()); userID != "" {
		script.CreatedBy = &userID
	}

	if err := h.scriptService.Create(r.Context(), script); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, script)
}

// Get returns a script by ID
func (h *ScriptHandler) Get(w http.ResponseWriter, r *http.Request) {
	script, err := h.scriptService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, script)
}

// List returns the company's scripts
func (h *ScriptHandler) List(w http.ResponseWriter, r *http.Request) {
	scripts, err := h.scriptService.List(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, scripts)
}

// Update edits a script
func (h *ScriptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ScriptRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	script, err := h.scriptService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	script.Title = req.Title
	script.Content = req.Content
	script.Category = req.Category

	if err := h.scriptService.Update(r.Context(), script); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, script)
}

// Delete soft-deletes a script
func (h *ScriptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.scriptService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *service.ProductService
	logger         *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.ProductService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{productService: svc, logger: log}
}

// Routes mounts the product endpoints
func (h *ProductHandler) Routes(r chi.Router) {
	r.With(httputil.RequirePermission("products.view")).Get("/", h.List)
	r.With(httputil.RequirePermission("products.view")).Get("/{id}", h.Get)
	r.With(httputil.RequirePermission("products.create")).Post("/", h.Create)
	r.With(httputil.RequirePermission("products.edit")).Put("/{id}", h.Update)
	r.With(httputil.RequirePermission("products.delete")).Delete("/{id}", h.Delete)
}

// ProductRequest is the create/update payload for a product
type ProductRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	IsActive    *bool    `json:"is_active"`
}

// Create adds a product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		IsActive:    true,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.productService.Create(r.Context(), product); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.Created(w, product)
}

// Get returns a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, product)
}

// List returns the company's products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, products)
}

// Update edits a product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}
	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.productService.Update(r.Context(), product); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, product)
}

// Delete soft-deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.productService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, r, err)
		return
	}
	httputil.NoContent(w)
}
