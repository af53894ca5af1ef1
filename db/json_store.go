package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"secret-notes/models"
)

// collection is one flat JSON file holding an array of T. Every read loads
// the whole file and every write replaces it. The mutex makes
// load-mutate-save a single critical section within the process, and an
// advisory lock on path+".lock" extends it to other processes (a CLI
// command run next to the server). The data file itself cannot carry the
// lock because each save renames a new file over it.
type collection[T any] struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func openCollection[T any](path string) (*collection[T], error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := writeFileAtomic(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &collection[T]{path: path, lock: flock.New(path + ".lock")}, nil
}

// Load reads the whole collection.
func (c *collection[T]) Load() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Save overwrites the whole collection.
func (c *collection[T]) Save(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lockFile(); err != nil {
		return err
	}
	defer c.lock.Unlock()
	return c.save(items)
}

func (c *collection[T]) update(fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.lockFile(); err != nil {
		return err
	}
	defer c.lock.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}
	items, err = fn(items)
	if err != nil {
		return err
	}
	return c.save(items)
}

func (c *collection[T]) lockFile() error {
	if err := c.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", c.path, err)
	}
	return nil
}

func (c *collection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStorage, c.path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *collection[T]) save(items []T) error {
	if items == nil {
		items = []T{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.path, err)
	}
	return writeFileAtomic(c.path, buf.Bytes(), 0o644)
}

// JSONStore keeps users and notes in two flat JSON files.
type JSONStore struct {
	users *collection[models.User]
	notes *collection[models.Note]
}

// NewJSONStore opens (and lazily creates) the two collection files.
func NewJSONStore(usersPath, notesPath string) (*JSONStore, error) {
	users, err := openCollection[models.User](usersPath)
	if err != nil {
		return nil, err
	}
	notes, err := openCollection[models.Note](notesPath)
	if err != nil {
		return nil, err
	}
	return &JSONStore{users: users, notes: notes}, nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) CreateUser(ctx context.Context, user models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.users.update(func(users []models.User) ([]models.User, error) {
		for _, u := range users {
			if u.Username == user.Username {
				return nil, ErrUserExists
			}
		}
		return append(users, user), nil
	})
}

func (s *JSONStore) GetUser(ctx context.Context, username string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	users, err := s.users.Load()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, ErrUserNotFound
}

func (s *JSONStore) ListNotes(ctx context.Context, owner string) ([]models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	notes, err := s.notes.Load()
	if err != nil {
		return nil, err
	}
	owned := []models.Note{}
	for _, n := range notes {
		if n.Owner == owner {
			owned = append(owned, n)
		}
	}
	return owned, nil
}

func (s *JSONStore) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	if err := ctx.Err(); err != nil {
		return models.Note{}, err
	}
	err := s.notes.update(func(notes []models.Note) ([]models.Note, error) {
		note.ID = nextNoteID(notes)
		return append(notes, note), nil
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *JSONStore) UpdateNote(ctx context.Context, id int, owner, title, body string, at models.Timestamp) error {
	return s.mutateNote(ctx, id, owner, func(n *models.Note) {
		n.Title = title
		n.Body = body
		n.UpdatedAt = at
	})
}

func (s *JSONStore) ShareNote(ctx context.Context, id int, owner, sharedID, passwordHash string, at models.Timestamp) error {
	return s.mutateNote(ctx, id, owner, func(n *models.Note) {
		n.SharedID = sharedID
		n.SharedPasswordHash = passwordHash
		n.SharedAt = &at
	})
}

func (s *JSONStore) mutateNote(ctx context.Context, id int, owner string, fn func(*models.Note)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.notes.update(func(notes []models.Note) ([]models.Note, error) {
		for i := range notes {
			if notes[i].ID == id && notes[i].Owner == owner {
				fn(&notes[i])
				return notes, nil
			}
		}
		return nil, ErrNoteNotFound
	})
}

func (s *JSONStore) DeleteNote(ctx context.Context, id int, owner string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	removed := false
	err := s.notes.update(func(notes []models.Note) ([]models.Note, error) {
		kept := notes[:0]
		for _, n := range notes {
			if n.ID == id && n.Owner == owner {
				removed = true
				continue
			}
			kept = append(kept, n)
		}
		return kept, nil
	})
	return removed, err
}

func (s *JSONStore) GetSharedNote(ctx context.Context, sharedID string) (models.Note, error) {
	if err := ctx.Err(); err != nil {
		return models.Note{}, err
	}
	if sharedID == "" {
		return models.Note{}, ErrNoteNotFound
	}
	notes, err := s.notes.Load()
	if err != nil {
		return models.Note{}, err
	}
	for _, n := range notes {
		if n.SharedID == sharedID {
			return n, nil
		}
	}
	return models.Note{}, ErrNoteNotFound
}

func (s *JSONStore) Dump(ctx context.Context) ([]models.User, []models.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	users, err := s.users.Load()
	if err != nil {
		return nil, nil, err
	}
	notes, err := s.notes.Load()
	if err != nil {
		return nil, nil, err
	}
	return users, notes, nil
}

// Restore appends users and notes. The notes file is written inside the
// users update, so a clash in either collection leaves both untouched.
func (s *JSONStore) Restore(ctx context.Context, users []models.User, notes []models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.users.update(func(existing []models.User) ([]models.User, error) {
		seen := make(map[string]bool, len(existing))
		for _, u := range existing {
			seen[u.Username] = true
		}
		for _, u := range users {
			if seen[u.Username] {
				return nil, fmt.Errorf("%w: %s", ErrUserExists, u.Username)
			}
			seen[u.Username] = true
			existing = append(existing, u)
		}

		err := s.notes.update(func(existingNotes []models.Note) ([]models.Note, error) {
			ids := make(map[int]bool, len(existingNotes))
			for _, n := range existingNotes {
				ids[n.ID] = true
			}
			for _, n := range notes {
				if ids[n.ID] {
					return nil, fmt.Errorf("note id %d already exists", n.ID)
				}
				ids[n.ID] = true
				existingNotes = append(existingNotes, n)
			}
			return existingNotes, nil
		})
		if err != nil {
			return nil, err
		}
		return existing, nil
	})
}
