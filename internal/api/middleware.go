package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/banshee-data/racetime/internal/monitoring"
	"github.com/banshee-data/racetime/internal/timeutil"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return loggingMiddleware(timeutil.RealClock{}, next)
}

func loggingMiddleware(clock timeutil.Clock, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clock.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)

		level := logrus.InfoLevel
		switch {
		case lrw.statusCode >= 500:
			level = logrus.ErrorLevel
		case lrw.statusCode >= 400:
			level = logrus.WarnLevel
		}
		monitoring.Logger().WithComponent("http").WithFields(monitoring.Fields{
			"status":      lrw.statusCode,
			"method":      r.Method,
			"uri":         r.RequestURI,
			"duration_ms": float64(clock.Since(start).Nanoseconds()) / 1e6,
		}).Log(level, "request")
	})
}

// Handler returns the API routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return loggingMiddleware(s.clock, s.ServeMux())
}
