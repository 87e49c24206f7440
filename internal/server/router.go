package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"colab/internal/services"
)

// NewRouter creates the chi router with all routes and middleware.
// Reads are open; lifecycle and repository mutations are admin-only.
func NewRouter(
	manager *services.SessionManager,
	repo *services.RepositoryService,
	settings *services.SettingsService,
	adminToken string,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recovery)

	sessionH := NewSessionHandler(manager)
	repoH := NewRepoHandler(repo)
	settingsH := NewSettingsHandler(settings)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", sessionH.List)
		r.Get("/{id}", sessionH.Get)
		r.Get("/{id}/patch", sessionH.Patch)
		r.Get("/{id}/log", sessionH.Log)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuth(adminToken))
			r.Post("/", sessionH.Start)
			r.Post("/{id}/finish", sessionH.Finish)
		})
	})

	r.Route("/repo", func(r chi.Router) {
		r.Get("/", repoH.State)
		r.Get("/summary", repoH.Summary)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuth(adminToken))
			r.Post("/clone", repoH.Clone)
			r.Post("/fetch", repoH.Fetch)
			r.Post("/pull", repoH.Pull)
			r.Post("/checkout", repoH.Checkout)
		})
	})

	r.Route("/settings", func(r chi.Router) {
		r.Use(AdminAuth(adminToken))
		r.Get("/", settingsH.Get)
		r.Put("/", settingsH.Put)
		r.Put("/repo", settingsH.PutRepo)
	})

	return r
}
