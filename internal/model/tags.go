package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is a snippet's tag list. On input it accepts either a JSON array of
// strings or a single comma-separated string.
type Tags []string

// ParseTags splits s on commas, trims each part and drops empty parts.
func ParseTags(s string) Tags {
	parts := strings.Split(s, ",")
	tags := make(Tags, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// UnmarshalJSON accepts "a, b" or ["a","b"]. Arrays are kept as sent; a
// string holding no tags leaves t nil.
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// a string with no tags in it decodes like null
		if parsed := ParseTags(s); len(parsed) > 0 {
			*t = parsed
		} else {
			*t = nil
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("tags must be a string or a list of strings: %w", err)
	}
	*t = list
	return nil
}

// MarshalJSON always emits an array, never null.
func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}
