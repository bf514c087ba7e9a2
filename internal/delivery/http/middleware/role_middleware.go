package middleware

import (
	"net/http"
	"slices"

	"medledger/internal/domain/entity"
	"medledger/pkg/response"
)

// RequireRole creates a middleware that checks if the user has any of the required roles
// Role is read from context (set by AuthMiddleware from JWT claims)
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := GetIdentityFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Role information not found")
				return
			}

			if !slices.Contains(allowedRoles, id.Role) {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePortalAdmin is a convenience middleware for portal admin endpoints
func RequirePortalAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleAdmin)(next)
}

// RequireLedgerAdmin is a convenience middleware for ledger back office endpoints
func RequireLedgerAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.LedgerRoleAdmin)(next)
}
