package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"secret-notes/notes"
)

// SharedNote serves the public share link. GET shows the password prompt,
// POST checks the password and renders the note on a match.
func (h *Handler) SharedNote(w http.ResponseWriter, r *http.Request) {
	sharedID := chi.URLParam(r, "sharedID")

	if r.Method != http.MethodPost {
		_, err := h.notes.Shared(r.Context(), sharedID)
		if h.sharedLookupFailed(w, r, err) {
			return
		}
		h.render(w, r, http.StatusOK, pageData{View: viewShared})
		return
	}

	note, err := h.notes.AccessShared(r.Context(), sharedID, r.FormValue("password"))
	if errors.Is(err, notes.ErrWrongPassword) {
		h.render(w, r, http.StatusOK, pageData{View: viewShared, Error: "Incorrect password"})
		return
	}
	if h.sharedLookupFailed(w, r, err) {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "shared_note", note); err != nil {
		logInternalError(r, "failed to render shared note", err)
	}
}

func (h *Handler) sharedLookupFailed(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, notes.ErrNotFound):
		http.Error(w, "Note not found", http.StatusNotFound)
	default:
		logInternalError(r, "failed to load shared note", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
	return true
}
