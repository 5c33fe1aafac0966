// Package rbac gates routes on the role carried by the caller's token.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/nearcart/pkg/auth"
	"github.com/shashiranjanraj/nearcart/pkg/response"
)

// HasRole allows only callers whose role is one of roles. It must run after
// middleware.Auth; an anonymous request is treated as having no role.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.FromContext(r.Context())
			if !ok || !allowed[id.Role] {
				response.Fail(w, http.StatusForbidden, "UNAUTHORIZED", "Your role cannot access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
