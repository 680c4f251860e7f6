package logging

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

// RequestIDHeader is read from incoming requests, and generated when absent.
const RequestIDHeader = "X-Request-Id"

// Middleware scopes a logger to each HTTP request and logs a single line once
// the request completes. Handlers can add fields to that line with Track.
func Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		logger := FromContext(r.Context()).Named("http").With("req.id", id)
		ctx := With(r.Context(), logger)

		m := httpsnoop.CaptureMetrics(h, w, r.WithContext(ctx))

		fields := []interface{}{
			"req.method", r.Method,
			"req.url", r.URL.String(),
			"req.host", r.Host,
			"resp.status", m.Code,
			"resp.bytes", m.Written,
			"duration", m.Duration,
		}
		switch {
		case m.Code >= http.StatusInternalServerError:
			Errorw(ctx, "http request", fields...)
		case m.Code >= http.StatusBadRequest:
			Warnw(ctx, "http request", fields...)
		default:
			Infow(ctx, "http request", fields...)
		}
	})
}
