package auth

import (
	"net/http"
	"strings"

	"github.com/joaofarinelli/we-crm-sub002/internal/auth/jwt"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// Middleware validates the bearer token and loads the user, company and
// permission context from its claims. No database access happens here:
// membership was resolved at login/refresh time and travels inside the
// token.
func Middleware(jwtManager *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(jwtManager, r)
			if err != nil {
				httputil.Error(w, r, err)
				return
			}

			ctx := httputil.WithUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
			ctx = httputil.WithUserPermissions(ctx, claims.Permissions)
			if claims.CompanyID != "" {
				ctx = tenant.WithCompanyContext(ctx, claims.CompanyID, claims.Role)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCompany rejects requests from accounts that have not joined a
// company yet. Mounted under every tenant-scoped route group.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := tenant.CompanyID(r.Context()); err != nil {
			httputil.Error(w, r, errors.Forbidden("no company membership"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromRequest(jwtManager *jwt.Manager, r *http.Request) (*jwt.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		// WebSocket clients cannot set headers; accept the token as a
		// query parameter there.
		if token := r.URL.Query().Get("token"); token != "" {
			return jwtManager.ValidateAccessToken(token)
		}
		return nil, errors.Unauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.Unauthorized("invalid authorization header")
	}

	return jwtManager.ValidateAccessToken(parts[1])
}
