package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Mahbub2001/morgan-backend/pkg/logger"
)

// RequestLogger stores a logger enriched with correlation and trace ids in
// the request context. Mount it after RequestLogging and Tracing; Auth adds
// user_id to it later on protected routes.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
