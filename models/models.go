package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    Timestamp `json:"created_at"`
}

// Note is the stored record. SharedPasswordHash never leaves the server;
// handlers respond with NoteView instead.
type Note struct {
	ID                 int        `json:"id"`
	Title              string     `json:"title"`
	Body               string     `json:"body"`
	Tags               TagList    `json:"tags"`
	Owner              string     `json:"owner"`
	CreatedAt          Timestamp  `json:"created_at"`
	UpdatedAt          Timestamp  `json:"updated_at"`
	SharedID           string     `json:"shared_id,omitempty"`
	SharedPasswordHash string     `json:"shared_password_hash,omitempty"`
	SharedAt           *Timestamp `json:"shared_at,omitempty"`

	// Extra holds keys written by older clients that Note does not model,
	// so rewriting notes.json keeps them. SQL backends do not store it.
	Extra map[string]json.RawMessage `json:"-"`
}

// noteFields has Note's fields without its JSON methods.
type noteFields Note

var noteKeys = []string{
	"id", "title", "body", "tags", "owner", "created_at", "updated_at",
	"shared_id", "shared_password_hash", "shared_at",
}

func isNoteKey(key string) bool {
	for _, k := range noteKeys {
		// encoding/json matches field names case-insensitively.
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var fields noteFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if isNoteKey(key) {
			delete(raw, key)
		}
	}
	fields.Extra = nil
	if len(raw) > 0 {
		fields.Extra = raw
	}
	*n = Note(fields)
	return nil
}

// MarshalJSON writes the known fields in declaration order followed by
// any Extra keys in sorted order. HTML characters are not escaped.
func (n Note) MarshalJSON() ([]byte, error) {
	data, err := marshalUnescaped(noteFields(n))
	if err != nil || len(n.Extra) == 0 {
		return data, err
	}
	extra, err := marshalUnescaped(n.Extra)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+len(extra))
	out = append(out, data[:len(data)-1]...)
	out = append(out, ',')
	return append(out, extra[1:]...), nil
}

func marshalUnescaped(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// IsShared reports whether a share link has been issued for the note.
func (n Note) IsShared() bool {
	return n.SharedID != "" && n.SharedPasswordHash != ""
}

type NoteView struct {
	ID        int        `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Body      string     `json:"body" yaml:"body"`
	Tags      TagList    `json:"tags" yaml:"tags"`
	Owner     string     `json:"owner" yaml:"owner"`
	CreatedAt Timestamp  `json:"created_at" yaml:"created_at"`
	UpdatedAt Timestamp  `json:"updated_at" yaml:"updated_at"`
	SharedID  string     `json:"shared_id,omitempty" yaml:"shared_id,omitempty"`
	SharedAt  *Timestamp `json:"shared_at,omitempty" yaml:"shared_at,omitempty"`
}

func (n Note) View() NoteView {
	tags := n.Tags
	if tags == nil {
		tags = TagList{}
	}
	return NoteView{
		ID:        n.ID,
		Title:     n.Title,
		Body:      n.Body,
		Tags:      tags,
		Owner:     n.Owner,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		SharedID:  n.SharedID,
		SharedAt:  n.SharedAt,
	}
}

// Now returns the current time as a Timestamp in UTC.
func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC()}
}
