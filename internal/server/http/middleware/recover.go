package middleware

import (
	"net/http"

	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/http/respond"
)

// Recover turns a handler panic into a 500 envelope.
func Recover(l logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.Error(r.Context(), "panic", "path", r.URL.Path, "reason", rec)
					respond.JSON(w, http.StatusInternalServerError, respond.Envelope{Error: respond.MsgInternal})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
