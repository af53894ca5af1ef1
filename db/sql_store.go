package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"secret-notes/models"
)

const noteColumns = `id, title, body, tags, owner, created_at, updated_at, shared_id, shared_password_hash, shared_at`

// SQLStore implements Store on SQLite (modernc.org/sqlite) or MySQL.
// Timestamps are stored as RFC 3339 text and tags as a JSON array so both
// dialects share the same queries.
type SQLStore struct {
	conn *sql.DB
	// mu serializes writers so max(id)+1 is computed and used atomically.
	mu sync.Mutex
}

// NewSQLStore opens a connection for backend ("sqlite" or "mysql") and
// creates the schema if needed.
func NewSQLStore(backend, dsn string) (*SQLStore, error) {
	var (
		driver string
		schema []string
	)
	switch backend {
	case BackendSQLite:
		driver, schema = "sqlite", sqliteSchema
		if dsn == "" {
			dsn = ":memory:"
		}
	case BackendMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		// Matched rather than changed rows, so an update that rewrites
		// identical values is not reported as a missing note.
		cfg.ClientFoundRows = true
		driver, schema, dsn = "mysql", mysqlSchema, cfg.FormatDSN()
	default:
		return nil, fmt.Errorf("unknown sql backend %q", backend)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if backend == BackendSQLite {
		// Each sqlite connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return &SQLStore{conn: conn}, nil
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

func (s *SQLStore) CreateUser(ctx context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertUser(ctx, tx, user)
	})
}

func insertUser(ctx context.Context, tx *sql.Tx, user models.User) error {
	var count int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, user.Username).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if count > 0 {
		return ErrUserExists
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		user.Username, user.PasswordHash, user.CreatedAt.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SQLStore) GetUser(ctx context.Context, username string) (models.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at FROM users WHERE username = ?`, username)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *SQLStore) ListNotes(ctx context.Context, owner string) ([]models.Note, error) {
	return s.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE owner = ? ORDER BY id`, owner)
}

func (s *SQLStore) CreateNote(ctx context.Context, note models.Note) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var maxID int
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM notes`).Scan(&maxID); err != nil {
			return fmt.Errorf("failed to read max note id: %w", err)
		}
		note.ID = maxID + 1
		return insertNote(ctx, tx, note)
	})
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func insertNote(ctx context.Context, tx *sql.Tx, note models.Note) error {
	tags, err := json.Marshal(note.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	var sharedAt sql.NullString
	if note.SharedAt != nil {
		sharedAt = sql.NullString{String: note.SharedAt.String(), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.Title, note.Body, string(tags), note.Owner,
		note.CreatedAt.String(), note.UpdatedAt.String(),
		nullString(note.SharedID), nullString(note.SharedPasswordHash), sharedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateNote(ctx context.Context, id int, owner, title, body string, at models.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET title = ?, body = ?, updated_at = ? WHERE id = ? AND owner = ?`,
		title, body, at.String(), id, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) ShareNote(ctx context.Context, id int, owner, sharedID, passwordHash string, at models.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx,
		`UPDATE notes SET shared_id = ?, shared_password_hash = ?, shared_at = ? WHERE id = ? AND owner = ?`,
		sharedID, passwordHash, at.String(), id, owner,
	)
	if err != nil {
		return fmt.Errorf("failed to share note: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) DeleteNote(ctx context.Context, id int, owner string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLStore) GetSharedNote(ctx context.Context, sharedID string) (models.Note, error) {
	if sharedID == "" {
		return models.Note{}, ErrNoteNotFound
	}
	row := s.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE shared_id = ?`, sharedID)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (s *SQLStore) Dump(ctx context.Context) ([]models.User, []models.Note, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT username, password_hash, created_at FROM users ORDER BY created_at, username`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to list users: %w", err)
	}

	notes, err := s.queryNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	return users, notes, nil
}

func (s *SQLStore) Restore(ctx context.Context, users []models.User, notes []models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, u := range users {
			if err := insertUser(ctx, tx, u); err != nil {
				return fmt.Errorf("%s: %w", u.Username, err)
			}
		}
		for _, n := range notes {
			if err := insertNote(ctx, tx, n); err != nil {
				return fmt.Errorf("note %d: %w", n.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *SQLStore) queryNotes(ctx context.Context, query string, args ...interface{}) ([]models.Note, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user      models.User
		createdAt string
	)
	if err := row.Scan(&user.Username, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, err
		}
		return models.User{}, fmt.Errorf("failed to scan user: %w", err)
	}

	ts, err := models.ParseTimestamp(createdAt)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: user %s: %v", ErrMalformedStorage, user.Username, err)
	}
	user.CreatedAt = ts
	return user, nil
}

func scanNote(row rowScanner) (models.Note, error) {
	var (
		note                 models.Note
		tags                 string
		createdAt, updatedAt string
		sharedID, sharedHash sql.NullString
		sharedAt             sql.NullString
	)
	err := row.Scan(&note.ID, &note.Title, &note.Body, &tags, &note.Owner,
		&createdAt, &updatedAt, &sharedID, &sharedHash, &sharedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Note{}, err
		}
		return models.Note{}, fmt.Errorf("failed to scan note: %w", err)
	}

	if err := json.Unmarshal([]byte(tags), &note.Tags); err != nil {
		return models.Note{}, fmt.Errorf("%w: note %d tags: %v", ErrMalformedStorage, note.ID, err)
	}
	if note.CreatedAt, err = models.ParseTimestamp(createdAt); err != nil {
		return models.Note{}, fmt.Errorf("%w: note %d: %v", ErrMalformedStorage, note.ID, err)
	}
	if note.UpdatedAt, err = models.ParseTimestamp(updatedAt); err != nil {
		return models.Note{}, fmt.Errorf("%w: note %d: %v", ErrMalformedStorage, note.ID, err)
	}
	note.SharedID = sharedID.String
	note.SharedPasswordHash = sharedHash.String
	if sharedAt.Valid {
		ts, err := models.ParseTimestamp(sharedAt.String)
		if err != nil {
			return models.Note{}, fmt.Errorf("%w: note %d: %v", ErrMalformedStorage, note.ID, err)
		}
		note.SharedAt = &ts
	}
	return note, nil
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
