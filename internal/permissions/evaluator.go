package permissions

import (
	"context"

	"github.com/rs/zerolog"
)

// resourceModules maps API resource names to the grid module that
// governs them. Resources missing from this map are not permission
// gated.
var resourceModules = map[string]string{
	"leads":            ModuleLeads,
	"follow_ups":       ModuleLeads,
	"pipeline_columns": ModulePipeline,
	"appointments":     ModuleAppointments,
	"meetings":         ModuleMeetings,
	"scripts":          ModuleScripts,
	"products":         ModuleProducts,
	"partners":         ModulePartners,
	"whatsapp":         ModuleWhatsapp,
	"reports":          ModuleReports,
	"profiles":         ModuleTeam,
	"roles":            ModuleTeam,
	"settings":         ModuleSettings,
}

// Evaluator computes the effective permission grid of a role inside a
// company: the role's default grid with the company's stored override
// merged on top.
type Evaluator struct {
	repo   *Repository
	logger zerolog.Logger
}

// NewEvaluator creates a new grid evaluator
func NewEvaluator(repo *Repository, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		repo:   repo,
		logger: logger.With().Str("component", "permission_evaluator").Logger(),
	}
}

// EffectiveGrid returns the merged grid for a role in a company. An
// override read failure degrades to the default grid rather than
// blocking authentication.
func (e *Evaluator) EffectiveGrid(ctx context.Context, companyID, roleName string) Grid {
	base := DefaultGrid(roleName)

	override, err := e.repo.GetOverride(ctx, companyID, roleName)
	if err != nil {
		e.logger.Error().Err(err).
			Str("company_id", companyID).
			Str("role_name", roleName).
			Msg("grid override lookup failed, using default grid")
		return base
	}
	if override == nil {
		return base
	}
	return base.Merge(override)
}

// HasPermission reports whether a role may perform an action on a
// module inside a company.
func (e *Evaluator) HasPermission(ctx context.Context, companyID, roleName, module, action string) bool {
	return e.EffectiveGrid(ctx, companyID, roleName).Allows(module, action)
}

// CanAccess reports whether a role may view an API resource. A resource
// with no grid mapping is allowed; that keeps new endpoints usable
// before their module lands in the grid, and the warn log makes the
// gap visible.
func (e *Evaluator) CanAccess(ctx context.Context, companyID, roleName, resource string) bool {
	module, ok := resourceModules[resource]
	if !ok {
		e.logger.Warn().
			Str("resource", resource).
			Str("role_name", roleName).
			Msg("resource has no grid module mapping, allowing access")
		return true
	}
	return e.HasPermission(ctx, companyID, roleName, module, ActionView)
}

// FlattenForRole returns the effective grid of a role as sorted
// "module.action" strings, the form carried in access-token claims.
func (e *Evaluator) FlattenForRole(ctx context.Context, companyID, roleName string) []string {
	return e.EffectiveGrid(ctx, companyID, roleName).Flatten()
}
