package model

import "time"

// Severity is the visual kind of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is an ephemeral message surfaced to the user. It lives
// only in the local store and is never sent to the backend.
type Notification struct {
	// ID is generated locally when the notification is created.
	ID ID `json:"id"`

	Type    Severity `json:"type"`
	Title   string   `json:"title"`
	Message string   `json:"message"`

	// CreatedAt is when this notification was added to the store.
	CreatedAt time.Time `json:"created_at"`

	// AutoHide removes the notification once Duration has elapsed.
	AutoHide bool          `json:"auto_hide"`
	Duration time.Duration `json:"duration"`
}

// NotificationInput is the caller-supplied part of a notification.
// A nil AutoHide means true; a zero Duration means the store default.
type NotificationInput struct {
	Type     Severity
	Title    string
	Message  string
	AutoHide *bool
	Duration time.Duration
}
