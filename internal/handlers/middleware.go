package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pallagj/behave-backend/pkg/logging"
)

// RequestIDMiddleware assigns every request an identifier, honoring an
// X-Request-ID header from the caller, and carries it through the
// request context so log lines can be correlated.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
