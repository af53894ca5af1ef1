package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"secret-notes/middleware"
	"secret-notes/models"
	"secret-notes/notes"
)

type createNoteRequest struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Tags  models.TagList `json:"tags"`
}

type updateNoteRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

type shareNoteRequest struct {
	Password string `json:"password"`
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return id.Username, true
}

// noteID parses the {id} URL param. Anything but an integer is reported
// as a missing note.
func noteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return 0, false
	}
	return id, true
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	h.render(w, r, http.StatusOK, pageData{View: viewNotes, Username: id.Username})
}

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}

	filter := notes.Filter{
		Query: r.URL.Query().Get("q"),
		Tag:   r.URL.Query().Get("tag"),
	}
	list, err := h.notes.List(r.Context(), owner, filter)
	if err != nil {
		respondInternalError(w, r, "failed to list notes", err)
		return
	}

	views := make([]models.NoteView, 0, len(list))
	for _, n := range list {
		views = append(views, n.View())
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.notes.Create(r.Context(), owner, req.Title, req.Body, req.Tags)
	if err != nil {
		respondInternalError(w, r, "failed to create note", err)
		return
	}
	respondJSON(w, http.StatusCreated, note.View())
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req updateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil || req.Body == nil {
		respondError(w, http.StatusBadRequest, "title and body are required")
		return
	}

	err := h.notes.Update(r.Context(), owner, id, *req.Title, *req.Body)
	if errors.Is(err, notes.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		respondInternalError(w, r, "failed to update note", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	if err := h.notes.Delete(r.Context(), owner, id); err != nil {
		respondInternalError(w, r, "failed to delete note", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) ShareNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req shareNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := h.notes.Share(r.Context(), owner, id, req.Password)
	switch {
	case errors.Is(err, notes.ErrMissingPassword):
		respondError(w, http.StatusBadRequest, "Password required")
	case errors.Is(err, notes.ErrNotFound):
		respondError(w, http.StatusNotFound, "Note not found")
	case err != nil:
		respondInternalError(w, r, "failed to share note", err)
	default:
		respondJSON(w, http.StatusOK, map[string]string{"msg": "Note shared", "url": url})
	}
}
