// Package api provides the HTTP API for PrivacyGuard.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/privacyguard/privacyguard/internal/api/handler"
	"github.com/privacyguard/privacyguard/internal/api/middleware"
	"github.com/privacyguard/privacyguard/internal/api/response"
	"github.com/privacyguard/privacyguard/internal/auth"
	"github.com/privacyguard/privacyguard/internal/content"
	"github.com/privacyguard/privacyguard/internal/provider/resilience"
	"github.com/privacyguard/privacyguard/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	RequireTLS  bool
	Metrics     *middleware.Metrics
	Gatherer    prometheus.Gatherer // serves /metrics when set
	AuthService *auth.Service
	Sessions    *session.Service
	Catalog     *content.Catalog
	Providers   *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "privacyguard-api"
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = content.Default()
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, no-store)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a proxy
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // Reject non-JSON request bodies

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "resource not found")
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Sessions:  cfg.Sessions,
		Providers: cfg.Providers,
	})
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	contentHandler := handler.NewContentHandler(catalog)
	simulatorHandler := handler.NewSimulatorHandler(cfg.Sessions, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)

	accessRateLimit := middleware.RateLimitByIP(middleware.AccessRateLimit)            // 10 req/min
	contentRateLimit := middleware.RateLimitByIP(middleware.ContentRateLimit)          // 60 req/min
	simulatorRateLimit := middleware.RateLimitBySession(middleware.SimulatorRateLimit) // 120 req/min per session

	r.Route("/v1", func(r chi.Router) {
		// Auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.With(accessRateLimit).Post("/access", authHandler.Access)
			r.With(authMiddleware).Post("/logout", authHandler.Logout)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Content endpoints (public)
		r.Route("/content", func(r chi.Router) {
			r.Use(contentRateLimit)
			r.Get("/concepts", contentHandler.ListConcepts)
			r.Get("/concepts/{conceptId}", contentHandler.GetConcept)
			r.Get("/categories", contentHandler.ListCategories)
		})

		// Simulator endpoints (authenticated) - session-based rate limiting
		r.Route("/simulator", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(simulatorRateLimit)

			r.Get("/", simulatorHandler.GetState)
			r.Post("/reset", simulatorHandler.Reset)
			r.Get("/history", simulatorHandler.GetHistory)

			r.Route("/consents", func(r chi.Router) {
				r.Get("/", simulatorHandler.ListConsents)
				r.Put("/{categoryId}", simulatorHandler.UpdateConsent)
			})

			r.Route("/records", func(r chi.Router) {
				r.Get("/", simulatorHandler.ListRecords)
				r.Post("/anonymize-all", simulatorHandler.AnonymizeAll)
				r.Post("/delete-without-consent", simulatorHandler.DeleteWithoutConsent)
				r.Route("/{recordId}", func(r chi.Router) {
					r.Get("/", simulatorHandler.GetRecord)
					r.Delete("/", simulatorHandler.DeleteRecord)
					r.Post("/anonymize", simulatorHandler.AnonymizeRecord)
				})
			})
		})
	})

	return r
}
