package middleware

import (
	"net/http"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/google/uuid"
)

// RequestID keeps an incoming X-Request-Id or generates one, echoes it in
// the response and stores it in the request context for the logger.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(common.RequestIDHeaderName)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
				r.Header.Set(common.RequestIDHeaderName, id)
			}
			w.Header().Set(common.RequestIDHeaderName, id)

			ctx := logging.WithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
