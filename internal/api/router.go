package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/jobsearch/internal/api/middleware"
	"github.com/eldtechnologies/jobsearch/internal/handlers"
	"github.com/eldtechnologies/jobsearch/internal/store"
)

// Options configures router middleware.
type Options struct {
	AllowedOrigins []string
	RateLimit      middleware.RateLimiterConfig
}

// NewRouter creates and configures the HTTP router. redisStore may be nil, in
// which case rate limiting is disabled.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, ws http.Handler, redisStore *store.RedisStore, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(16 * 1024))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	limiter := middleware.NewRateLimiter(redisStore.Client(), logger, opts.RateLimit)
	r.Use(limiter.Middleware)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)
	r.Get("/api", h.Root)
	r.Get("/api/stats", h.Stats)

	// Real-time socket
	r.Handle("/ws", ws)

	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", h.SendMessage)
		r.Get("/history/{userId}", h.History)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Get("/{id}", h.GetUser)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Put("/users/{id}/ban", h.SetBanned)
		r.Put("/companies/{id}/ban", h.SetCompanyBanned)
		r.Put("/companies/{id}/approve", h.ApproveCompany)
	})

	r.Route("/api/companies", func(r chi.Router) {
		r.Post("/", h.CreateCompany)
		r.Get("/search", h.SearchCompanies)
		r.Get("/{id}", h.GetCompany)
		r.Put("/{id}", h.UpdateCompany)
		r.Delete("/{id}", h.DeleteCompany)
	})

	r.Route("/api/jobs", func(r chi.Router) {
		r.Post("/", h.CreateJob)
		r.Get("/search", h.SearchJobs)
		r.Get("/company/{companyId}", h.CompanyJobs)
		r.Put("/applications/{applicationId}", h.UpdateApplicationStatus)
		r.Get("/{id}", h.GetJob)
		r.Put("/{id}", h.UpdateJob)
		r.Delete("/{id}", h.DeleteJob)
		r.Post("/{id}/apply", h.Apply)
		r.Get("/{id}/applications", h.ListApplications)
	})

	return r
}
