package httpx

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// AdminCheck reports whether the user currently holds admin rights.
type AdminCheck func(ctx context.Context, userID int64) (bool, error)

// RequireAdmin must run after AuthnMiddleware. The check is made against
// current state, so a demoted admin loses access before their token expires.
func RequireAdmin(isAdmin AdminCheck) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			admin, err := isAdmin(r.Context(), userID)
			if err != nil {
				slogx.FromContext(r.Context()).Error("admin check failed", "err", err, "user_id", userID)
				WriteError(w, http.StatusInternalServerError, "server_error", "could not verify permissions")
				return
			}
			if !admin {
				WriteError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
