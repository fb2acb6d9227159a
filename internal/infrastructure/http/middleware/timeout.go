package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout bounds the request context with d. The deadline reaches
// schema validation and the batch worker pool, which stops taking jobs once
// it expires; a single document build runs to completion. A non-positive d
// disables the deadline.
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
