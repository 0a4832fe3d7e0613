package middleware

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/usergate/internal/logging"
)

// Logging writes one access-log line per request. Headers and bodies are
// never logged.
func Logging(l logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			start := time.Now()
			next.ServeHTTP(sw, r)

			l.Info(r.Context(), "http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Status(),
				"dur", time.Since(start),
				"bytes", sw.count,
			)
		})
	}
}
