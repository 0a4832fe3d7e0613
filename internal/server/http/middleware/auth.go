package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/http/respond"
	"github.com/dmitrijs2005/usergate/internal/server/models"
)

// RoleLookup returns the stored role of a user. It must return
// common.ErrorNotFound for unknown ids.
type RoleLookup func(ctx context.Context, userID string) (models.Role, error)

type AuthOptions struct {
	Logger  logging.Logger
	Metrics *Metrics
	// LiveRole, when set, replaces the role claim with the stored role on
	// every request and rejects tokens of deleted accounts.
	LiveRole RoleLookup
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeaderName)
	if len(h) <= len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(common.BearerPrefix):])
	return tok, tok != ""
}

// RequireAuth admits requests carrying a valid access token and puts the
// caller's auth.Principal in the context. Every failure is answered with the
// same 401; the cause is only logged and counted.
func RequireAuth(v auth.Verifier, opts AuthOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason string) {
				opts.Metrics.AuthFailure(reason)
				if opts.Logger != nil {
					opts.Logger.Warn(r.Context(), "request rejected", "reason", reason, "path", r.URL.Path)
				}
				respond.Unauthorized(w)
			}

			tok, ok := bearerToken(r)
			if !ok {
				reject("missing_token")
				return
			}

			claims, err := v.Verify(tok, auth.KindAccess)
			if err != nil {
				reject(auth.Reason(err))
				return
			}

			p := auth.PrincipalFromClaims(claims)
			if opts.LiveRole != nil {
				role, err := opts.LiveRole(r.Context(), p.UserID)
				switch {
				case errors.Is(err, common.ErrorNotFound):
					reject("unknown_subject")
					return
				case err != nil:
					respond.Error(w, r, opts.Logger, err)
					return
				}
				p.Role = role
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole must run after RequireAuth. Callers with another role get 403.
func RequireRole(role models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFrom(r.Context())
			if !ok {
				respond.Unauthorized(w)
				return
			}
			if p.Role != role {
				respond.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
