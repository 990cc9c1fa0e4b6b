package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakachris/ecom-frontend/pkg/health"
	"github.com/sakachris/ecom-frontend/pkg/middleware"

	"github.com/sakachris/ecom-frontend/internal/session"
)

// RouterConfig bundles everything the router needs.
type RouterConfig struct {
	Logger        *slog.Logger
	Registry      *session.Registry
	Auth          *AuthHandler
	Account       *AccountHandler
	Catalog       *CatalogHandler
	Health        *health.Handler
	CORS          middleware.CORSConfig
	SecureCookies bool
}

// NewRouter wires the storefront's HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("ecom-frontend"))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(SessionMiddleware(cfg.Registry, cfg.SecureCookies))

		api.Route("/auth", func(auth chi.Router) {
			auth.Get("/session", cfg.Auth.Session)
			auth.Post("/login", cfg.Auth.Login)
			auth.Post("/register", cfg.Auth.Register)
			auth.Get("/verify-email", cfg.Auth.VerifyEmail)
			auth.Post("/resend-email", cfg.Auth.ResendVerification)
			auth.Post("/logout", cfg.Auth.Logout)
		})

		api.Route("/account", func(acct chi.Router) {
			acct.Get("/profile", cfg.Account.GetProfile)
			acct.Patch("/profile", cfg.Account.UpdateProfile)
			acct.Delete("/profile", cfg.Account.DeleteAccount)
		})

		api.Get("/products", cfg.Catalog.ListProducts)
		api.Get("/products/{id}", cfg.Catalog.GetProduct)
		api.Get("/categories", cfg.Catalog.ListCategories)
		api.Get("/categories/{id}", cfg.Catalog.GetCategory)
	})

	return r
}
