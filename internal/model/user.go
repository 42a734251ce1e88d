package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// User is the authenticated account of the person using the client.
type User struct {
	ID          ID         `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	DateJoined  *time.Time `json:"dateJoined,omitempty"`
}

// Name returns the best available display name: the explicit display
// name, then first and last name, then the username, then the email.
func (u User) Name() string {
	if n := strings.TrimSpace(u.DisplayName); n != "" {
		return n
	}
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Initials returns up to two uppercase initials derived from Name.
func (u User) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(u.Name()) {
		r, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(r)
		if b.Len() >= 2 {
			break
		}
	}
	return strings.ToUpper(b.String())
}

// Credentials is the login payload. Either Email or Username identifies
// the account.
type Credentials struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// Validate returns the client-side validation messages for the credentials.
func (c Credentials) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Email) == "" && strings.TrimSpace(c.Username) == "" {
		errs = append(errs, "Email or username is required")
	}
	if c.Email != "" && !emailPattern.MatchString(c.Email) {
		errs = append(errs, "Email must be a valid email")
	}
	if c.Password == "" {
		errs = append(errs, "Password is required")
	}
	return errs
}

// Registration is the sign-up payload.
type Registration struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Validate returns the client-side validation messages for the payload.
func (r Registration) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.Username) == "" {
		errs = append(errs, "Username is required")
	}
	if !emailPattern.MatchString(r.Email) {
		errs = append(errs, "Email must be a valid email")
	}
	if len(r.Password) < 8 {
		errs = append(errs, "Password must be at least 8 characters")
	}
	return errs
}
