package http

import (
	"net/http"

	"github.com/ArfatChowdhury/nemo-e-commerce-app/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// RequestIDMiddleware exposes chi's request id to the logger and echoes it
// back in the X-Request-ID header. It must run after middleware.RequestID.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set(middleware.RequestIDHeader, requestID)
		ctx := logger.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
