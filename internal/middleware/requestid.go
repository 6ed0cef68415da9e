package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID assigns each request a UUID, echoed in the response and in error
// envelopes so a failing exchange can be traced through the logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
