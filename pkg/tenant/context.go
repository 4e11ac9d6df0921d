package tenant

import (
	"context"
	"errors"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const (
	companyIDKey contextKey = "company_id"
	roleNameKey  contextKey = "role_name"
)

var (
	// ErrNoCompanyInContext is returned when company context is missing
	ErrNoCompanyInContext = errors.New("no company in context")
)

// Membership is the resolved tenant membership of the current principal.
// It is resolved once at authentication time and carried in the request
// context so downstream code never repeats the lookup.
type Membership struct {
	UserID    string `db:"user_id" json:"user_id"`
	CompanyID string `db:"company_id" json:"company_id"`
	RoleName  string `db:"role_name" json:"role_name"`
}

// WithCompanyContext adds company and role information to the context.
// This should be called by middleware after the membership is resolved.
func WithCompanyContext(ctx context.Context, companyID, roleName string) context.Context {
	ctx = context.WithValue(ctx, companyIDKey, companyID)
	ctx = context.WithValue(ctx, roleNameKey, roleName)
	return ctx
}

// WithCompanyID adds only the company ID to the context
func WithCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}

// CompanyID extracts the company ID from context.
// Returns ErrNoCompanyInContext if it is not present.
// This is the scoping key every repository uses for row-level isolation.
func CompanyID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(companyIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoCompanyInContext
	}
	return id, nil
}

// RoleName extracts the role name from context.
// Returns an empty string if no role is present (onboarding state).
func RoleName(ctx context.Context) string {
	role, _ := ctx.Value(roleNameKey).(string)
	return role
}

// MustCompanyID extracts the company ID from context and panics if not found.
// Use only in cases where a missing company is a programming error.
func MustCompanyID(ctx context.Context) string {
	id, err := CompanyID(ctx)
	if err != nil {
		panic("company ID not found in context")
	}
	return id
}
