package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"secret-notes/auth"
	"secret-notes/middleware"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.auth.CanRegister() {
		h.render(w, r, http.StatusForbidden, pageData{View: viewRegister, Error: "Registration is disabled"})
		return
	}
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, pageData{View: viewRegister})
		return
	}

	err := h.auth.Register(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case err == nil:
		http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
	case errors.Is(err, auth.ErrDuplicateUsername):
		h.render(w, r, http.StatusOK, pageData{View: viewRegister, Error: "Username already exists"})
	case errors.Is(err, auth.ErrMissingCredentials):
		h.render(w, r, http.StatusBadRequest, pageData{View: viewRegister, Error: "Username and password are required"})
	default:
		logInternalError(r, "failed to register user", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, pageData{View: viewLogin})
		return
	}

	id, err := h.auth.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrMissingCredentials) {
		h.render(w, r, http.StatusUnauthorized, pageData{View: viewLogin, Error: "Invalid credentials"})
		return
	}
	if err != nil {
		logInternalError(r, "failed to log in", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	token, err := h.sessions.Issue(id)
	if err != nil {
		logInternalError(r, "failed to issue session", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.sessions.TTL()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// APILogin exchanges JSON credentials for a bearer token.
func (h *Handler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrMissingCredentials) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to log in", err)
		return
	}

	token, err := h.sessions.Issue(id)
	if err != nil {
		respondInternalError(w, r, "failed to issue session", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
}
