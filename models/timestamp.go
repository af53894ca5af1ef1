package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// legacyLayout is the naive ISO-8601 form (no zone) found in files written
// by the Flask version of the app.
const legacyLayout = "2006-01-02T15:04:05"

// Timestamp marshals as RFC 3339 with nanoseconds and also accepts the
// legacy zone-less layout when decoding.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// String is the storage form used by the SQL backends.
func (t Timestamp) String() string {
	return t.Time.Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func ParseTimestamp(s string) (Timestamp, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: parsed}, nil
	}
	parsed, err := time.ParseInLocation(legacyLayout, s, time.Local)
	if err != nil {
		return Timestamp{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return Timestamp{Time: parsed}, nil
}
