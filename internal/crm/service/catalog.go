package service

import (
	"context"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/events"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
)

// PartnerService handles referral partner logic
type PartnerService struct {
	repo      *repository.PartnerRepository
	publisher *events.ChangePublisher
	audit     *AuditService
	logger    *logger.Logger
}

// NewPartnerService creates a new partner service
func NewPartnerService(repo *repository.PartnerRepository, publisher *events.ChangePublisher, audit *AuditService, log *logger.Logger) *PartnerService {
	return &PartnerService{repo: repo, publisher: publisher, audit: audit, logger: log}
}

// Create creates a new partner
func (s *PartnerService) Create(ctx context.Context, partner *domain.Partner) error {
	if partner.Commission != nil && (*partner.Commission < 0 || *partner.Commission > 100) {
		return errors.Validation(map[string]string{"commission_percent": "commission must be between 0 and 100"})
	}

	if err := s.repo.Create(ctx, partner); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TablePartners, partner.ID, partner)
	s.audit.Record(ctx, "partner.created", "partner", partner.ID, map[string]interface{}{"name": partner.Name})
	return nil
}

// Get gets a partner by ID
func (s *PartnerService) Get(ctx context.Context, id string) (*domain.Partner, error) {
	return s.repo.Get(ctx, id)
}

// List lists the company's partners
func (s *PartnerService) List(ctx context.Context) ([]*domain.Partner, error) {
	return s.repo.List(ctx)
}

// Update updates a partner
func (s *PartnerService) Update(ctx context.Context, partner *domain.Partner) error {
	if partner.Commission != nil && (*partner.Commission < 0 || *partner.Commission > 100) {
		return errors.Validation(map[string]string{"commission_percent": "commission must be between 0 and 100"})
	}

	old, err := s.repo.Get(ctx, partner.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, partner); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TablePartners, partner.ID, partner, old)
	return nil
}

// Delete soft-deletes a partner
func (s *PartnerService) Delete(ctx context.Context, id string) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TablePartners, id, old)
	s.audit.Record(ctx, "partner.deleted", "partner", id, nil)
	return nil
}

// ScriptService handles sales script logic
type ScriptService struct {
	repo      *repository.ScriptRepository
	publisher *events.ChangePublisher
	audit     *AuditService
	logger    *logger.Logger
}

// NewScriptService creates a new script service
func NewScriptService(repo *repository.ScriptRepository, publisher *events.ChangePublisher, audit *AuditService, log *logger.Logger) *ScriptService {
	return &ScriptService{repo: repo, publisher: publisher, audit: audit, logger: log}
}

// Create creates a new script
func (s *ScriptService) Create(ctx context.Context, script *domain.Script) error {
	if err := s.repo.Create(ctx, script); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TableScripts, script.ID, script)
	s.audit.Record(ctx, "script.created", "script", script.ID, map[string]interface{}{"title": script.Title})
	return nil
}

// Get gets a script by ID
func (s *ScriptService) Get(ctx context.Context, id string) (*domain.Script, error) {
	return s.repo.Get(ctx, id)
}

// List lists the company's scripts
func (s *ScriptService) List(ctx context.Context) ([]*domain.Script, error) {
	return s.repo.List(ctx)
}

// Update updates a script
func (s *ScriptService) Update(ctx context.Context, script *domain.Script) error {
	old, err := s.repo.Get(ctx, script.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, script); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableScripts, script.ID, script, old)
	return nil
}

// Delete soft-deletes a script
func (s *ScriptService) Delete(ctx context.Context, id string) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TableScripts, id, old)
	s.audit.Record(ctx, "script.deleted", "script", id, nil)
	return nil
}

// ProductService handles product catalog logic
type ProductService struct {
	repo      *repository.ProductRepository
	publisher *events.ChangePublisher
	audit     *AuditService
	logger    *logger.Logger
}

// NewProductService creates a new product service
func NewProductService(repo *repository.ProductRepository, publisher *events.ChangePublisher, audit *AuditService, log *logger.Logger) *ProductService {
	return &ProductService{repo: repo, publisher: publisher, audit: audit, logger: log}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, product *domain.Product) error {
	if product.Price != nil && *product.Price < 0 {
		return errors.Validation(map[string]string{"price": "price must not be negative"})
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TableProducts, product.ID, product)
	s.audit.Record(ctx, "product.created", "product", product.ID, map[string]interface{}{"name": product.Name})
	return nil
}

// Get gets a product by ID
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.Get(ctx, id)
}

// List lists the company's products
func (s *ProductService) List(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

// Update updates a product
func (s *ProductService) Update(ctx context.Context, product *domain.Product) error {
	if product.Price != nil && *product.Price < 0 {
		return errors.Validation(map[string]string{"price": "price must not be negative"})
	}

	old, err := s.repo.Get(ctx, product.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableProducts, product.ID, product, old)
	return nil
}

// Delete soft-deletes a product
func (s *ProductService) Delete(ctx context.Context, id string) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TableProducts, id, old)
	s.audit.Record(ctx, "product.deleted", "product", id, nil)
	return nil
}
