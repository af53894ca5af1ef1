package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"secret-notes/auth"
	"secret-notes/db"
	"secret-notes/middleware"
	"secret-notes/notes"
	"secret-notes/passwords"
)

type testEnv struct {
	handler  *Handler
	store    *db.JSONStore
	sessions *auth.Sessions
	notes    *notes.Service
}

func newTestHasher(t *testing.T) *passwords.Hasher {
	t.Helper()
	hasher, err := passwords.New(passwords.SchemeBcrypt, passwords.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("failed to create hasher: %v", err)
	}
	return hasher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := db.NewJSONStore(filepath.Join(dir, "users.json"), filepath.Join(dir, "notes.json"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	sessions, err := auth.NewSessions("handlers-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create sessions: %v", err)
	}

	hasher := newTestHasher(t)
	svc := notes.NewService(store, hasher)
	h := New(auth.NewUserStoreAuthenticator(store, hasher), sessions, svc)

	// Seed a user
	if err := h.auth.Register(context.Background(), "test", "testpassword"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	return &testEnv{handler: h, store: store, sessions: sessions, notes: svc}
}

func withUser(req *http.Request, username string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), auth.Identity{Username: username}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
