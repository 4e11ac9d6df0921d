package httputil

import (
	"net/http"

	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/permissions"
)

// RequirePermission gates a route on a flattened "module.action" permission
// carried in the authenticated user's claims. The grid evaluator produces
// these strings at login; this check needs no database round trip.
func RequirePermission(required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userPerms := GetUserPermissions(r.Context())
			if !permissions.HasPermission(userPerms, required) {
				Error(w, r, errors.Forbidden("missing permission: "+required))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyPermission gates a route on any of the given permissions.
func RequireAnyPermission(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userPerms := GetUserPermissions(r.Context())
			if !permissions.HasAnyPermission(userPerms, required) {
				Error(w, r, errors.Forbidden("insufficient permissions"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
