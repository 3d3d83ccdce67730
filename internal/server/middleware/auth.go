package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

type contextKeyAuth string

// AuthAdminKey is the context key for the authenticated admin.
const AuthAdminKey contextKeyAuth = "auth_admin"

// Authenticate returns an HTTP middleware that validates the Bearer session
// token on the Authorization header. The token asserts {adminId, role}; on
// top of that stateless check the middleware re-reads the account and rejects
// inactive admins, so deactivation revokes access before the token expires.
//
// On success the current admin is attached to the request context. On failure
// a uniform 401 JSON response is returned regardless of the specific cause.
func Authenticate(authSvc *service.AuthService, st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required. Provide a Bearer token.")
				return
			}

			principal, err := authSvc.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			admin, err := st.GetAdmin(r.Context(), principal.AdminID)
			if err != nil || !admin.IsActive {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), AuthAdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin extracts the authenticated admin from the context. Returns nil if
// the request is unauthenticated.
func GetAdmin(ctx context.Context) *model.Admin {
	if a, ok := ctx.Value(AuthAdminKey).(*model.Admin); ok {
		return a
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid an import cycle with the handler package.
	w.Write([]byte(`{"error":{"code":` + strconv.Itoa(status) + `,"message":"` + message + `"}}`))
}
