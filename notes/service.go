// Package notes implements owner-scoped note CRUD and password-protected
// share links on top of a db.NoteStore.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"secret-notes/db"
	"secret-notes/models"
	"secret-notes/passwords"
)

var (
	ErrNotFound        = errors.New("note not found")
	ErrMissingPassword = errors.New("password required")
	ErrWrongPassword   = errors.New("incorrect password")
)

// Filter narrows List results. Zero value matches everything.
type Filter struct {
	// Query is a case-insensitive substring of the title or body.
	Query string
	// Tag must equal one of the note's tags.
	Tag string
}

func (f Filter) matches(n models.Note) bool {
	if f.Tag != "" && !n.Tags.Has(f.Tag) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(n.Title), q) && !strings.Contains(strings.ToLower(n.Body), q) {
			return false
		}
	}
	return true
}

type Service struct {
	store    db.NoteStore
	hasher   *passwords.Hasher
	now      func() models.Timestamp
	newToken func() string
}

func NewService(store db.NoteStore, hasher *passwords.Hasher) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		now:      models.Now,
		newToken: uuid.NewString,
	}
}

// SharePath is the public URL path of a share token.
func SharePath(sharedID string) string {
	return "/shared/" + sharedID
}

func (s *Service) List(ctx context.Context, owner string, f Filter) ([]models.Note, error) {
	all, err := s.store.ListNotes(ctx, owner)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Note, 0, len(all))
	for _, n := range all {
		if f.matches(n) {
			matched = append(matched, n)
		}
	}
	return matched, nil
}

func (s *Service) Create(ctx context.Context, owner, title, body string, tags models.TagList) (models.Note, error) {
	now := s.now()
	return s.store.CreateNote(ctx, models.Note{
		Title:     title,
		Body:      body,
		Tags:      models.NormalizeTags(tags),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update overwrites title and body. Tags, owner and created_at are never
// touched. A note owned by someone else is reported as ErrNotFound.
func (s *Service) Update(ctx context.Context, owner string, id int, title, body string) error {
	err := s.store.UpdateNote(ctx, id, owner, title, body, s.now())
	if errors.Is(err, db.ErrNoteNotFound) {
		return ErrNotFound
	}
	return err
}

// Delete removes the owner's note. Deleting a missing or foreign note is
// not an error.
func (s *Service) Delete(ctx context.Context, owner string, id int) error {
	removed, err := s.store.DeleteNote(ctx, id, owner)
	if err != nil {
		return err
	}
	if !removed {
		slog.DebugContext(ctx, "delete matched no note", "id", id, "owner", owner)
	}
	return nil
}

// Share issues a fresh share token for the note, replacing any previous
// one, and returns the public path.
func (s *Service) Share(ctx context.Context, owner string, id int, password string) (string, error) {
	if password == "" {
		return "", ErrMissingPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash share password: %w", err)
	}

	sharedID := s.newToken()
	err = s.store.ShareNote(ctx, id, owner, sharedID, hash, s.now())
	if errors.Is(err, db.ErrNoteNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return SharePath(sharedID), nil
}

// Shared looks up a note by share token without checking a password.
func (s *Service) Shared(ctx context.Context, sharedID string) (models.Note, error) {
	note, err := s.store.GetSharedNote(ctx, sharedID)
	if errors.Is(err, db.ErrNoteNotFound) {
		return models.Note{}, ErrNotFound
	}
	return note, err
}

// AccessShared returns the shared note when password matches.
func (s *Service) AccessShared(ctx context.Context, sharedID, password string) (models.Note, error) {
	note, err := s.Shared(ctx, sharedID)
	if err != nil {
		return models.Note{}, err
	}

	err = s.hasher.Verify(note.SharedPasswordHash, password)
	if errors.Is(err, passwords.ErrMismatch) {
		return models.Note{}, ErrWrongPassword
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("failed to verify share password for note %d: %w", note.ID, err)
	}
	return note, nil
}
