package service

import (
	"context"

	"github.com/joaofarinelli/we-crm-sub002/internal/company"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/events"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/internal/permissions"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// TeamService handles team member and role management
type TeamService struct {
	profileRepo *repository.ProfileRepository
	roleRepo    *repository.RoleRepository
	permsRepo   *permissions.Repository
	evaluator   *permissions.Evaluator
	resolver    *company.Resolver
	publisher   *events.ChangePublisher
	audit       *AuditService
	logger      *logger.Logger
}

// NewTeamService creates a new team service
func NewTeamService(
	profileRepo *repository.ProfileRepository,
	roleRepo *repository.RoleRepository,
	permsRepo *permissions.Repository,
	evaluator *permissions.Evaluator,
	resolver *company.Resolver,
	publisher *events.ChangePublisher,
	audit *AuditService,
	log *logger.Logger,
) *TeamService {
	return &TeamService{
		profileRepo: profileRepo,
		roleRepo:    roleRepo,
		permsRepo:   permsRepo,
		evaluator:   evaluator,
		resolver:    resolver,
		publisher:   publisher,
		audit:       audit,
		logger:      log,
	}
}

// Profiles

// CreateProfile adds a team member to the company
func (s *TeamService) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return err
	}

	// The user's cached membership is stale the moment they join
	s.resolver.Invalidate(profile.UserID)

	s.publisher.PublishCreated(ctx, messaging.TableProfiles, profile.ID, profile)
	s.audit.Record(ctx, "profile.created", "profile", profile.ID, map[string]interface{}{"email": profile.Email})

	return nil
}

// GetProfile gets a profile by ID
func (s *TeamService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profileRepo.Get(ctx, id)
}

// ListProfiles lists the company's team members
func (s *TeamService) ListProfiles(ctx context.Context) ([]*domain.Profile, error) {
	return s.profileRepo.List(ctx)
}

// UpdateProfile updates a team member
func (s *TeamService) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	old, err := s.profileRepo.Get(ctx, profile.ID)
	if err != nil {
		return err
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return err
	}

	if old.RoleID != profile.RoleID {
		// Role changed: drop the cached membership so the next token
		// refresh carries the new role.
		s.resolver.Invalidate(profile.UserID)
		s.audit.Record(ctx, "profile.role_changed", "profile", profile.ID, map[string]interface{}{
			"old_role_id": old.RoleID,
			"new_role_id": profile.RoleID,
		})
	}

	s.publisher.PublishUpdated(ctx, messaging.TableProfiles, profile.ID, profile, old)
	return nil
}

// DeactivateProfile removes a team member from the company without
// touching their account
func (s *TeamService) DeactivateProfile(ctx context.Context, id string) error {
	old, err := s.profileRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.profileRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	s.resolver.Invalidate(old.UserID)
	s.publisher.PublishDeleted(ctx, messaging.TableProfiles, id, old)
	s.audit.Record(ctx, "profile.deactivated", "profile", id, nil)

	return nil
}

// Roles and grids

// ListRoles lists the roles visible to the company
func (s *TeamService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	return s.roleRepo.List(ctx)
}

// EffectiveGrid returns the effective permission grid of a role,
// defaults merged with the company override.
func (s *TeamService) EffectiveGrid(ctx context.Context, roleName string) (permissions.Grid, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	return s.evaluator.EffectiveGrid(ctx, companyID, roleName), nil
}

// CanAccess reports whether the caller's role may view a named API
// resource under the company's effective grid. The SPA asks this
// before rendering a module it has not loaded yet.
func (s *TeamService) CanAccess(ctx context.Context, resource string) (bool, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return false, err
	}
	return s.evaluator.CanAccess(ctx, companyID, tenant.RoleName(ctx), resource), nil
}

// SaveGridOverride stores a company-specific grid override for a role
func (s *TeamService) SaveGridOverride(ctx context.Context, roleName string, grid permissions.Grid) error {
	if err := s.permsRepo.SaveOverride(ctx, roleName, grid); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableRoles, roleName, grid, nil)
	s.audit.Record(ctx, "role.grid_overridden", "role", roleName, nil)

	return nil
}

// ResetGridOverride drops the company override, restoring the default grid
func (s *TeamService) ResetGridOverride(ctx context.Context, roleName string) error {
	if err := s.permsRepo.DeleteOverride(ctx, roleName); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableRoles, roleName, nil, nil)
	s.audit.Record(ctx, "role.grid_reset", "role", roleName, nil)

	return nil
}
