package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"skillswap/internal/metrics"
)

const loggerContextKey contextKey = "logger"

func loggerFrom(r *http.Request) *zap.Logger {
	if l, ok := r.Context().Value(loggerContextKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// RequestLogger attaches a request-scoped logger and logs every request once
// it completes.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := log.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ctx := context.WithValue(r.Context(), loggerContextKey, reqLog)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", r.RemoteAddr),
			}
			switch {
			case ww.Status() >= 500:
				reqLog.Error("request", fields...)
			case ww.Status() >= 400:
				reqLog.Warn("request", fields...)
			default:
				reqLog.Info("request", fields...)
			}
		})
	}
}

// Prometheus records request counts and latencies labelled by route pattern.
func Prometheus(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
