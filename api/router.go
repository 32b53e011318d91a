package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/api/health", h.HealthCheck).Methods("GET")

	// Dashboard endpoints
	r.HandleFunc("/api/filters", h.GetFilters).Methods("GET")
	r.HandleFunc("/api/dashboard", h.GetDashboard).Methods("GET")
	r.HandleFunc("/api/workorders", h.GetWorkOrders).Methods("GET")

	// Charts and export
	r.HandleFunc("/api/charts/{name}", h.GetChart).Methods("GET")
	r.HandleFunc("/api/export", h.ExportBundle).Methods("GET")

	// Refresh jobs
	refreshRouter := r.PathPrefix("/api/refresh").Subrouter()
	refreshRouter.HandleFunc("", h.RequestRefresh).Methods("POST")
	refreshRouter.HandleFunc("/jobs/{jobId}", h.GetRefreshJob).Methods("GET")

	// Operational history
	r.HandleFunc("/api/snapshots", h.ListSnapshots).Methods("GET")
	r.HandleFunc("/api/loads", h.ListLoads).Methods("GET")

	// Config Management
	r.HandleFunc("/api/config", h.GetConfig).Methods("GET")
	r.HandleFunc("/api/config", h.UpdateConfig).Methods("PUT")

	return r
}

// CORSMiddleware adds CORS headers
func CORSMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		)(next)
	}
}

// LoggingMiddleware logs HTTP requests with a per-request id
func LoggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New().String()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(wrapped, r)

			log.Info("request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.RequestURI),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
