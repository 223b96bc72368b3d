package api

import (
	"net/http"
	"strings"
	"time"

	"facilitybooking/internal/account"
	"facilitybooking/pkg/config"
	"facilitybooking/pkg/session"
)

// SessionAuth verifies the bearer session token and attaches the resolved
// actor to the request context. The role string from the token is mapped to
// the closed actor enum exactly once, here; nothing downstream compares raw
// role strings for authorization.
//
// Expected header:
// - Authorization: Bearer <JWT>
//
// In dev, if Authorization is missing, X-Account-ID / X-Account-Role headers
// keep local testing simple.
func SessionAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				vs, err := session.Verify(token, cfg.SessionSecret, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				actor := account.Actor{
					AccountID: vs.AccountID,
					Role:      account.ResolveRole(vs.Role),
					RoleName:  vs.Role,
				}
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				accountID := strings.TrimSpace(r.Header.Get("X-Account-ID"))
				if accountID != "" {
					roleName := strings.TrimSpace(r.Header.Get("X-Account-Role"))
					actor := account.Actor{
						AccountID: accountID,
						Role:      account.ResolveRole(roleName),
						RoleName:  roleName,
					}
					next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}
