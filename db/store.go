// Package db persists users and notes.
//
// Two backends implement Store: JSONStore keeps each collection as a literal
// JSON array in a flat file, SQLStore keeps them in SQLite or MySQL tables.
// Both serialize writers, so concurrent creates never share an id.
package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"secret-notes/models"
)

var (
	ErrMalformedStorage = errors.New("malformed storage")
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrNoteNotFound     = errors.New("note not found")
)

type UserStore interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, username string) (models.User, error)
}

type NoteStore interface {
	// ListNotes returns the owner's notes in id order.
	ListNotes(ctx context.Context, owner string) ([]models.Note, error)
	// CreateNote assigns the next id (max+1, starting at 1) and stores the note.
	CreateNote(ctx context.Context, note models.Note) (models.Note, error)
	UpdateNote(ctx context.Context, id int, owner, title, body string, at models.Timestamp) error
	// DeleteNote reports whether a note owned by owner was removed.
	DeleteNote(ctx context.Context, id int, owner string) (bool, error)
	ShareNote(ctx context.Context, id int, owner, sharedID, passwordHash string, at models.Timestamp) error
	GetSharedNote(ctx context.Context, sharedID string) (models.Note, error)
}

type Store interface {
	UserStore
	NoteStore
	// Dump returns every user and note, used by export and migrate.
	Dump(ctx context.Context) ([]models.User, []models.Note, error)
	// Restore inserts users and notes verbatim, ids included.
	Restore(ctx context.Context, users []models.User, notes []models.Note) error
	Close() error
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	DataDir   string
	UsersFile string
	NotesFile string
	DSN       string
}

// Open opens the configured backend, creating empty collections as needed.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendJSON:
		return NewJSONStore(
			filepath.Join(opts.DataDir, opts.UsersFile),
			filepath.Join(opts.DataDir, opts.NotesFile),
		)
	case BackendSQLite, BackendMySQL:
		return NewSQLStore(opts.Backend, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func nextNoteID(notes []models.Note) int {
	maxID := 0
	for _, n := range notes {
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	return maxID + 1
}
