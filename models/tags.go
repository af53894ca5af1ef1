package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TagList is the canonical tag representation: an ordered sequence of
// trimmed, non-empty strings. Duplicates are kept and case is preserved.
//
// It decodes from either a JSON array of strings or a single
// comma-separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = TagList{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		*t = ParseTags(s)
		return nil
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags must be a string or a list of strings: %w", err)
	}
	*t = NormalizeTags(raw)
	return nil
}

// ParseTags splits a comma-separated tag string.
func ParseTags(s string) TagList {
	return NormalizeTags(strings.Split(s, ","))
}

// NormalizeTags trims every tag and drops empty ones. The result is never nil.
func NormalizeTags(raw []string) TagList {
	tags := TagList{}
	for _, r := range raw {
		tag := strings.TrimSpace(r)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Has reports whether tag is present (exact match).
func (t TagList) Has(tag string) bool {
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}

func (t TagList) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}
