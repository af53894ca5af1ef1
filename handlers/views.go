package handlers

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	viewLogin    = "login"
	viewRegister = "register"
	viewNotes    = "notes"
	viewShared   = "shared"
)

type pageData struct {
	View        string
	Error       string
	Username    string
	CanRegister bool
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.CanRegister = h.auth.CanRegister()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logInternalError(r, "failed to render view", err)
	}
}
