package server

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kitchenlog/recipebox/internal/adapters/auth"
	"github.com/kitchenlog/recipebox/internal/adapters/rest"
	"github.com/kitchenlog/recipebox/internal/adapters/rest/middleware"
	"github.com/kitchenlog/recipebox/internal/platform/logger"
)

// NewHTTPServer creates and configures the HTTP server with all routes
func NewHTTPServer(
	config Config,
	users *rest.UserHandler,
	recipes *rest.RecipesHandler,
	attrs *rest.AttributesHandler,
	health *rest.HealthHandler,
	authMW *middleware.AuthMiddleware,
	log logger.Logger,
) *http.Server {
	router := rest.NewRouter(users, recipes, attrs, health, authMW)

	// Wrap with observability middleware
	handler := withObservability(router, log)

	// Create and return HTTP server
	return &http.Server{
		Addr:         config.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// withObservability adds request logging
func withObservability(handler http.Handler, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Use chi's response writer wrapper to capture status code and bytes written
		wrr := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		// Process the request
		handler.ServeHTTP(wrr, r)

		// Log request details
		duration := time.Since(start)

		// Extract user ID if available for better tracing
		var userID int64
		if uid, ok := auth.GetUserID(r.Context()); ok {
			userID = uid
		}

		log.Info(r.Context(), "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrr.Status(),
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
			"user_id", userID,
		)
	})
}
