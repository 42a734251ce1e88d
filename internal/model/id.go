package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an opaque entity identifier. The GraphQL API returns string IDs
// while the REST auth endpoints return numeric user IDs; both decode here.
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Ref is the minimal {id, username} projection the API embeds for owners.
type Ref struct {
	ID       ID     `json:"id"`
	Username string `json:"username,omitempty"`
}

// JSONMap is a free-form JSON object. The API serializes some object
// fields as JSON-encoded strings; both forms decode here.
type JSONMap map[string]any

// UnmarshalJSON accepts a JSON object, a string holding a JSON object,
// or null.
func (m *JSONMap) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding json field: %w", err)
		}
		if s == "" {
			*m = nil
			return nil
		}
		data = []byte(s)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decoding json field: %w", err)
	}
	*m = out
	return nil
}
