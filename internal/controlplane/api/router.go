package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devkit-go/devkit/internal/controlplane/api/auth"
	"github.com/devkit-go/devkit/internal/controlplane/api/handlers"
	apiMiddleware "github.com/devkit-go/devkit/internal/controlplane/api/middleware"
	"github.com/devkit-go/devkit/internal/logger"
	"github.com/devkit-go/devkit/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus metrics (when metrics are enabled)
//   - POST /api/v1/auth/login - Admin authentication
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET /api/v1/auth/me - Current user info
//   - GET /api/v1/drivers - Driver list (admin only)
//   - GET /api/v1/drivers/{major} - Driver detail (admin only)
//   - /api/v1/bindings/* - Binding management (admin only)
//   - GET /api/v1/handles - Open handle listing (admin only)
func NewRouter(deps Deps, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check handlers
	healthHandler := handlers.NewHealthHandler(deps.Registry, deps.Bindings, deps.Dispatcher)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Metrics endpoint - unauthenticated, only mounted when enabled
	if metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(deps.Credential, jwtService)
	driverHandler := handlers.NewDriverHandler(deps.Registry, deps.Dispatcher)
	bindingHandler := handlers.NewBindingHandler(deps.Bindings, deps.Registry)
	handleHandler := handlers.NewHandleHandler(deps.Dispatcher)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes - mostly unauthenticated
		r.Route("/auth", func(r chi.Router) {
			// Public endpoints
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Authenticated endpoint
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				r.Get("/me", authHandler.Me)
			})
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(jwtService))
			r.Use(apiMiddleware.RequireAdmin())

			// Driver registry (read only; drivers register in-process)
			r.Route("/drivers", func(r chi.Router) {
				r.Get("/", driverHandler.List)
				r.Get("/{major}", driverHandler.Get)
			})

			// Binding management
			r.Route("/bindings", func(r chi.Router) {
				r.Get("/", bindingHandler.List)
				r.Post("/", bindingHandler.Create)
				r.Get("/{kind}/{major}/{minor}", bindingHandler.Get)
				r.Delete("/{kind}/{major}/{minor}", bindingHandler.Delete)
			})

			// Open handle listing
			r.Get("/handles", handleHandler.List)
		})
	})

	return r
}

// requestLogger logs each request with method, path, status, and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
