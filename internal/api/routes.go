package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/adpilot/internal/auth"
	"github.com/ignite/adpilot/internal/storage"
)

// RouteOptions carries the optional route groups.
type RouteOptions struct {
	// OAuth mounts /auth/facebook/* when non-nil.
	OAuth *auth.Manager

	// LocalMedia mounts a /media/ file server for the local media store.
	// Leave nil when media lives on S3.
	LocalMedia *storage.LocalMediaStore

	// AllowedOrigins for CORS. The embedded Shopify admin origin plus dev
	// hosts.
	AllowedOrigins []string
}

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, opts RouteOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Shop-Domain"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	if opts.OAuth != nil {
		r.Get("/auth/facebook/connect", opts.OAuth.HandleConnect)
		r.Get("/auth/facebook/callback", opts.OAuth.HandleCallback)
	}

	if opts.LocalMedia != nil {
		r.Get("/media/*", localMediaHandler(opts.LocalMedia))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(h.RequireShop)

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCompleteCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Delete("/", h.DeleteCampaign)
				r.Post("/activate", h.ActivateCampaign)
				r.Post("/pause", h.PauseCampaign)
				r.Put("/budget", h.UpdateCampaignBudget)
				r.Get("/insights", h.GetCampaignInsights)
			})
		})

		r.Route("/ad-accounts", func(r chi.Router) {
			r.Get("/", h.ListAdAccounts)
			r.Put("/{id}/default", h.SetDefaultAdAccount)
		})

		r.Route("/optimization", func(r chi.Router) {
			r.Post("/run", h.RunOptimization)
			r.Get("/recommendations", h.GetRecommendations)
			r.Get("/log", h.GetOptimizationLog)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Post("/", h.CreateRule)
			r.Delete("/{id}", h.DeleteRule)
			r.Put("/{id}/enabled", h.SetRuleEnabled)
		})

		r.Post("/media", h.UploadMedia)
	})

	return r
}

// localMediaHandler serves locally stored creative assets.
func localMediaHandler(store *storage.LocalMediaStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "*")
		if ref == "" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, store.Path(ref))
	}
}
