package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"secret-notes/middleware"
)

// NewRouter mounts every page and API route on a chi mux. An empty
// corsOrigins allows any origin without credentials.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", h.Health)

	r.Get("/register", h.Register)
	r.Post("/register", h.Register)
	r.Get("/login", h.Login)
	r.Post("/login", h.Login)

	r.Get("/shared/{sharedID}", h.SharedNote)
	r.Post("/shared/{sharedID}", h.SharedNote)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.sessions))
		r.Get("/", h.Index)
		r.Get("/logout", h.Logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: len(corsOrigins) > 0,
			MaxAge:           300,
		}))

		r.Post("/login", h.APILogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(h.sessions))
			r.Get("/notes", h.GetNotes)
			r.Post("/notes", h.CreateNote)
			r.Put("/notes/{id}", h.UpdateNote)
			r.Delete("/notes/{id}", h.DeleteNote)
			r.Post("/notes/{id}/share", h.ShareNote)
		})
	})

	return r
}
