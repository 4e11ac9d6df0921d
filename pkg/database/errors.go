package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "email_format"):
		return errors.Validation(map[string]string{
			"email": "must be a valid email address",
		})

	case strings.Contains(constraint, "lead_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: new, contacted, qualified, proposal, won, lost",
		})

	case strings.Contains(constraint, "appointment_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: scheduled, confirmed, completed, cancelled, no_show",
		})

	case strings.Contains(constraint, "position_non_negative"):
		return errors.Validation(map[string]string{
			"position": "must not be negative",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "leads_company_email"):
		return "a lead with this email already exists"
	case strings.Contains(constraint, "profiles_user"):
		return "this user already has a profile"
	case strings.Contains(constraint, "email"):
		return "a record with this email already exists"
	default:
		return "a record with these values already exists"
	}
}
