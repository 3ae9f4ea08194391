package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/puros/pkg/logger"
)

// RequestLogger stores a logger carrying correlation_id, viewer_id, trace_id
// and span_id in the request context; handlers read it with
// logger.FromContext. Mount it after RequestLogging, Tracing and Authenticate.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if v := ViewerFromContext(ctx); v != nil && logger.ViewerIDFromContext(ctx) == "" {
				ctx = logger.WithViewerID(ctx, v.ID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
