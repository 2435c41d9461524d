package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"cardpilot/application/assistant"
	"cardpilot/application/search"
	"cardpilot/interfaces/http/rest/handlers"
	"cardpilot/interfaces/http/rest/middleware"
	"cardpilot/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	registry    *search.Registry
	service     *search.Service
	generator   *assistant.Generator
	validator   *auth.JWTValidator
	ipLimiter   *auth.IPRateLimiter
	userLimiter *auth.UserRateLimiter
	enableCORS  bool
	logger      *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	registry *search.Registry,
	service *search.Service,
	generator *assistant.Generator,
	validator *auth.JWTValidator,
	ipLimiter *auth.IPRateLimiter,
	userLimiter *auth.UserRateLimiter,
	enableCORS bool,
	logger *zap.Logger,
) *Router {
	return &Router{
		registry:    registry,
		service:     service,
		generator:   generator,
		validator:   validator,
		ipLimiter:   ipLimiter,
		userLimiter: userLimiter,
		enableCORS:  enableCORS,
		logger:      logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	// CORS configuration
	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.cardpilot.app"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.ipLimiter, rt.userLimiter, rt.logger))

		searchHandler := handlers.NewSearchHandler(rt.registry, rt.service, rt.logger)
		r.Route("/search", func(r chi.Router) {
			r.Get("/", searchHandler.Search)
			r.Post("/input", searchHandler.Input)
			r.Put("/mode", searchHandler.SetMode)
			r.Get("/results", searchHandler.Results)
			r.Delete("/cache", searchHandler.ClearCache)
		})

		assistHandler := handlers.NewAssistHandler(rt.registry, rt.service, rt.generator, rt.logger)
		r.Post("/assist", assistHandler.Assist)

		spaceHandler := handlers.NewSpaceHandler(rt.registry, rt.logger)
		r.Put("/space/cards", spaceHandler.ReplaceCards)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
