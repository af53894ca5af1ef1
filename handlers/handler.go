// Package handlers serves the HTML pages and the JSON notes API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"secret-notes/auth"
	"secret-notes/notes"
)

type Handler struct {
	auth          auth.Authenticator
	sessions      *auth.Sessions
	notes         *notes.Service
	secureCookies bool
}

type Option func(*Handler)

// WithSecureCookies marks the session cookie Secure (HTTPS only).
func WithSecureCookies(secure bool) Option {
	return func(h *Handler) {
		h.secureCookies = secure
	}
}

func New(authenticator auth.Authenticator, sessions *auth.Sessions, noteService *notes.Service, opts ...Option) *Handler {
	h := &Handler{
		auth:     authenticator,
		sessions: sessions,
		notes:    noteService,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logInternalError(r, msg, err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func logInternalError(r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", chimw.GetReqID(r.Context()),
	)
}
