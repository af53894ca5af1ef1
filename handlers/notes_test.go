package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"secret-notes/models"
)

func seedNote(t *testing.T, env *testEnv, owner, title, body, tags string) models.Note {
	t.Helper()
	note, err := env.notes.Create(context.Background(), owner, title, body, models.ParseTags(tags))
	if err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}
	return note
}

func decodeNotes(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var notes []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &notes); err != nil {
		t.Fatalf("failed to decode notes: %v (%q)", err, rr.Body.String())
	}
	return notes
}

func TestGetNotes(t *testing.T) {
	env := newTestEnv(t)
	seedNote(t, env, "test", "Groceries", "milk and eggs", "home, errands")
	seedNote(t, env, "test", "Standup", "status update", "work")
	seedNote(t, env, "other", "Private", "not yours", "home")

	t.Run("Get notes for owner", func(t *testing.T) {
		req := withUser(httptest.NewRequest("GET", "/api/notes", nil), "test")
		rr := httptest.NewRecorder()
		env.handler.GetNotes(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		notes := decodeNotes(t, rr)
		if len(notes) != 2 {
			t.Fatalf("Expected 2 notes, got %d", len(notes))
		}
		for _, note := range notes {
			if note["owner"] != "test" {
				t.Errorf("Expected owner test, got %v", note["owner"])
			}
			if _, leaked := note["shared_password_hash"]; leaked {
				t.Errorf("Share password hash must not be exposed")
			}
		}
	})

	t.Run("Filter by tag", func(t *testing.T) {
		req := withUser(httptest.NewRequest("GET", "/api/notes?tag=work", nil), "test")
		rr := httptest.NewRecorder()
		env.handler.GetNotes(rr, req)

		notes := decodeNotes(t, rr)
		if len(notes) != 1 || notes[0]["title"] != "Standup" {
			t.Errorf("Expected only Standup, got %v", notes)
		}
	})

	t.Run("Filter by query", func(t *testing.T) {
		req := withUser(httptest.NewRequest("GET", "/api/notes?q=EGGS", nil), "test")
		rr := httptest.NewRecorder()
		env.handler.GetNotes(rr, req)

		notes := decodeNotes(t, rr)
		if len(notes) != 1 || notes[0]["title"] != "Groceries" {
			t.Errorf("Expected only Groceries, got %v", notes)
		}
	})

	t.Run("Empty list is an array", func(t *testing.T) {
		req := withUser(httptest.NewRequest("GET", "/api/notes", nil), "nobody")
		rr := httptest.NewRecorder()
		env.handler.GetNotes(rr, req)

		if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
			t.Errorf("Expected [], got %q", body)
		}
	})

	t.Run("No user in context", func(t *testing.T) {
		rr := httptest.NewRecorder()
		env.handler.GetNotes(rr, httptest.NewRequest("GET", "/api/notes", nil))

		if status := rr.Code; status == http.StatusOK {
			t.Errorf("Handler should fail without user in context, got %v", status)
		}
	})
}

func TestCreateNote(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Tags as comma string", func(t *testing.T) {
		jsonBody := []byte(`{"title":"T","body":"B","tags":"a, b, a"}`)
		req := withUser(httptest.NewRequest("POST", "/api/notes", bytes.NewBuffer(jsonBody)), "test")
		rr := httptest.NewRecorder()
		env.handler.CreateNote(rr, req)

		if status := rr.Code; status != http.StatusCreated {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusCreated)
		}

		var note models.NoteView
		if err := json.Unmarshal(rr.Body.Bytes(), &note); err != nil {
			t.Fatalf("failed to decode note: %v", err)
		}
		if note.ID != 1 {
			t.Errorf("Expected id 1, got %d", note.ID)
		}
		if got := strings.Join(note.Tags, ","); got != "a,b,a" {
			t.Errorf("Expected tags a,b,a, got %q", got)
		}
		if note.Owner != "test" {
			t.Errorf("Expected owner test, got %q", note.Owner)
		}
		if !note.CreatedAt.Equal(note.UpdatedAt.Time) {
			t.Errorf("created_at and updated_at should match on create")
		}
	})

	t.Run("Tags as array", func(t *testing.T) {
		jsonBody := []byte(`{"title":"T2","body":"B2","tags":[" x ",""]}`)
		req := withUser(httptest.NewRequest("POST", "/api/notes", bytes.NewBuffer(jsonBody)), "test")
		rr := httptest.NewRecorder()
		env.handler.CreateNote(rr, req)

		var note models.NoteView
		json.Unmarshal(rr.Body.Bytes(), &note)
		if note.ID != 2 {
			t.Errorf("Expected id 2, got %d", note.ID)
		}
		if len(note.Tags) != 1 || note.Tags[0] != "x" {
			t.Errorf("Expected tags [x], got %v", note.Tags)
		}
	})

	t.Run("Malformed body", func(t *testing.T) {
		req := withUser(httptest.NewRequest("POST", "/api/notes", strings.NewReader("not json")), "test")
		rr := httptest.NewRecorder()
		env.handler.CreateNote(rr, req)

		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
	})
}

func TestUpdateNote(t *testing.T) {
	env := newTestEnv(t)
	note := seedNote(t, env, "test", "Old", "old body", "keep")

	t.Run("Update own note", func(t *testing.T) {
		jsonBody, _ := json.Marshal(map[string]string{"title": "New", "body": "new body"})
		req := withUser(httptest.NewRequest("PUT", "/api/notes/1", bytes.NewBuffer(jsonBody)), "test")
		req = withURLParam(req, "id", "1")
		rr := httptest.NewRecorder()
		env.handler.UpdateNote(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}

		list, _ := env.store.ListNotes(context.Background(), "test")
		if len(list) != 1 {
			t.Fatalf("Expected 1 note, got %d", len(list))
		}
		got := list[0]
		if got.Title != "New" || got.Body != "new body" {
			t.Errorf("Note not updated: %+v", got)
		}
		if !got.Tags.Has("keep") || !got.CreatedAt.Equal(note.CreatedAt.Time) {
			t.Errorf("Tags and created_at must be unchanged: %+v", got)
		}
	})

	t.Run("Note of another user", func(t *testing.T) {
		jsonBody, _ := json.Marshal(map[string]string{"title": "Hijack", "body": "x"})
		req := withUser(httptest.NewRequest("PUT", "/api/notes/1", bytes.NewBuffer(jsonBody)), "other")
		req = withURLParam(req, "id", "1")
		rr := httptest.NewRecorder()
		env.handler.UpdateNote(rr, req)

		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}
	})

	t.Run("Missing note", func(t *testing.T) {
		jsonBody, _ := json.Marshal(map[string]string{"title": "x", "body": "x"})
		req := withUser(httptest.NewRequest("PUT", "/api/notes/99", bytes.NewBuffer(jsonBody)), "test")
		req = withURLParam(req, "id", "99")
		rr := httptest.NewRecorder()
		env.handler.UpdateNote(rr, req)

		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}

		var response map[string]string
		json.Unmarshal(rr.Body.Bytes(), &response)
		if response["error"] != "Note not found" {
			t.Errorf("Expected Note not found, got %v", response)
		}
	})

	t.Run("Non-integer id", func(t *testing.T) {
		req := withUser(httptest.NewRequest("PUT", "/api/notes/abc", strings.NewReader(`{}`)), "test")
		req = withURLParam(req, "id", "abc")
		rr := httptest.NewRecorder()
		env.handler.UpdateNote(rr, req)

		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}
	})

	t.Run("Missing fields", func(t *testing.T) {
		req := withUser(httptest.NewRequest("PUT", "/api/notes/1", strings.NewReader(`{"title":"only"}`)), "test")
		req = withURLParam(req, "id", "1")
		rr := httptest.NewRecorder()
		env.handler.UpdateNote(rr, req)

		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
	})
}

func TestDeleteNote(t *testing.T) {
	env := newTestEnv(t)
	seedNote(t, env, "test", "Mine", "body", "")

	t.Run("Delete by another user", func(t *testing.T) {
		req := withURLParam(withUser(httptest.NewRequest("DELETE", "/api/notes/1", nil), "other"), "id", "1")
		rr := httptest.NewRecorder()
		env.handler.DeleteNote(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
		list, _ := env.store.ListNotes(context.Background(), "test")
		if len(list) != 1 {
			t.Errorf("Note of another user must survive, got %d notes", len(list))
		}
	})

	t.Run("Delete own note", func(t *testing.T) {
		req := withURLParam(withUser(httptest.NewRequest("DELETE", "/api/notes/1", nil), "test"), "id", "1")
		rr := httptest.NewRecorder()
		env.handler.DeleteNote(rr, req)

		var response map[string]string
		json.Unmarshal(rr.Body.Bytes(), &response)
		if response["status"] != "deleted" {
			t.Errorf("Expected status deleted, got %v", response)
		}
		list, _ := env.store.ListNotes(context.Background(), "test")
		if len(list) != 0 {
			t.Errorf("Expected note to be deleted, got %d notes", len(list))
		}
	})

	t.Run("Delete missing note", func(t *testing.T) {
		req := withURLParam(withUser(httptest.NewRequest("DELETE", "/api/notes/42", nil), "test"), "id", "42")
		rr := httptest.NewRecorder()
		env.handler.DeleteNote(rr, req)

		if status := rr.Code; status != http.StatusOK {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
	})
}

func TestShareNote(t *testing.T) {
	env := newTestEnv(t)
	seedNote(t, env, "test", "Secret", "hidden", "")

	share := func(user, id, body string) *httptest.ResponseRecorder {
		req := withUser(httptest.NewRequest("POST", "/api/notes/"+id+"/share", strings.NewReader(body)), user)
		req = withURLParam(req, "id", id)
		rr := httptest.NewRecorder()
		env.handler.ShareNote(rr, req)
		return rr
	}

	t.Run("Share own note", func(t *testing.T) {
		rr := share("test", "1", `{"password":"secret"}`)

		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
		var response map[string]string
		json.Unmarshal(rr.Body.Bytes(), &response)
		if response["msg"] != "Note shared" || !strings.HasPrefix(response["url"], "/shared/") {
			t.Errorf("Unexpected response: %v", response)
		}
	})

	t.Run("Reshare replaces the token", func(t *testing.T) {
		first := share("test", "1", `{"password":"one"}`)
		second := share("test", "1", `{"password":"two"}`)

		var a, b map[string]string
		json.Unmarshal(first.Body.Bytes(), &a)
		json.Unmarshal(second.Body.Bytes(), &b)
		if a["url"] == b["url"] {
			t.Errorf("Expected a new share url, got %q twice", a["url"])
		}
	})

	t.Run("Long password", func(t *testing.T) {
		long := strings.Repeat("p", 100)
		rr := share("test", "1", `{"password":"`+long+`"}`)

		if status := rr.Code; status != http.StatusOK {
			t.Fatalf("Handler returned wrong status code: got %v want %v", status, http.StatusOK)
		}
		var response map[string]string
		json.Unmarshal(rr.Body.Bytes(), &response)
		token := strings.TrimPrefix(response["url"], "/shared/")
		if _, err := env.notes.AccessShared(context.Background(), token, long); err != nil {
			t.Errorf("Expected long password to open the note, got %v", err)
		}
	})

	t.Run("Missing password", func(t *testing.T) {
		rr := share("test", "1", `{}`)

		if status := rr.Code; status != http.StatusBadRequest {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
		}
		var response map[string]string
		json.Unmarshal(rr.Body.Bytes(), &response)
		if response["error"] != "Password required" {
			t.Errorf("Expected Password required, got %v", response)
		}
	})

	t.Run("Note of another user", func(t *testing.T) {
		rr := share("other", "1", `{"password":"x"}`)

		if status := rr.Code; status != http.StatusNotFound {
			t.Errorf("Handler returned wrong status code: got %v want %v", status, http.StatusNotFound)
		}
	})
}
