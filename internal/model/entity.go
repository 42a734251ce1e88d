package model

import "strings"

// Entity is the common interface for records kept in the local store.
// Every entity carries a stable identity used for merge and remove.
type Entity interface {
	GetID() string
}

// Searchable is implemented by entities that support free-text search.
type Searchable interface {
	Entity
	Matches(query string) bool
}

func (t Task) GetID() string            { return string(t.ID) }
func (m Message) GetID() string         { return string(m.ID) }
func (a LinkedAccount) GetID() string   { return string(a.ID) }
func (a Action) GetID() string          { return string(a.ID) }
func (e ActionExecution) GetID() string { return string(e.ID) }
func (n Notification) GetID() string    { return string(n.ID) }

// Matches reports whether the task title or description contains query,
// ignoring case. An empty query matches everything.
func (t Task) Matches(query string) bool {
	return containsFold(query, t.Title, t.Description)
}

// Matches reports whether the message title, content or summary contains
// query, ignoring case.
func (m Message) Matches(query string) bool {
	return containsFold(query, m.Title, m.Content, m.Summary)
}

func containsFold(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
