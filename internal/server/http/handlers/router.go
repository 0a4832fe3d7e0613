package handlers

import (
	"net/http"

	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/http/middleware"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterOptions struct {
	Verifier       auth.Verifier
	Metrics        *middleware.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	// LiveRole enables the per-request role lookup of the access guard.
	LiveRole middleware.RoleLookup
}

// Routes builds the REST router. CORS runs before routing so that preflight
// requests never hit the access guard.
func (h *Handlers) Routes(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(h.logger), middleware.RequestID(), middleware.Logging(h.logger))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Instrument())
	}
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.Get("/livez", h.Livez)
	r.Get("/healthz", h.Healthz)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	requireAuth := middleware.RequireAuth(opts.Verifier, middleware.AuthOptions{
		Logger:   h.logger,
		Metrics:  opts.Metrics,
		LiveRole: opts.LiveRole,
	})
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refresh", h.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", h.Me)
			r.Post("/logout", h.Logout)
			r.Post("/change-password", h.ChangePassword)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.ListUsers)
		r.Get("/stats", h.Stats)
		r.Put("/profile", h.UpdateProfile)
		r.Get("/{id}", h.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", h.CreateUser)
			r.Get("/export", h.Export)
			r.Put("/{id}", h.UpdateUser)
			r.Delete("/{id}", h.DeleteUser)
		})
	})

	return r
}
