package model

import (
	"strings"
	"time"
)

// ServiceName identifies an external service an account can be linked to.
type ServiceName string

const (
	ServiceGmail    ServiceName = "gmail"
	ServiceDiscord  ServiceName = "discord"
	ServiceSlack    ServiceName = "slack"
	ServiceTeams    ServiceName = "teams"
	ServiceTelegram ServiceName = "telegram"
	ServiceWhatsApp ServiceName = "whatsapp"
	ServiceTwitter  ServiceName = "twitter"
	ServiceLinkedIn ServiceName = "linkedin"
)

// ServiceNames lists every supported service.
var ServiceNames = []ServiceName{
	ServiceGmail,
	ServiceDiscord,
	ServiceSlack,
	ServiceTeams,
	ServiceTelegram,
	ServiceWhatsApp,
	ServiceTwitter,
	ServiceLinkedIn,
}

// Valid reports whether s is a supported service.
func (s ServiceName) Valid() bool {
	for _, v := range ServiceNames {
		if s == v {
			return true
		}
	}
	return false
}

// LinkedAccount is an association between the current user and an
// account on an external service. Tokens are held server-side and never
// returned to the client.
type LinkedAccount struct {
	ID                ID          `json:"id"`
	ServiceName       ServiceName `json:"serviceName"`
	AccountIdentifier string      `json:"accountIdentifier"`
	IsActive          bool        `json:"isActive"`
	AddedAt           time.Time   `json:"addedAt"`
	LastSyncedAt      *time.Time  `json:"lastSyncedAt,omitempty"`
	Owner             *Ref        `json:"owner,omitempty"`
}

// Connected reports whether the account counts as a live connection for
// its service.
func (a LinkedAccount) Connected() bool { return a.IsActive }

// LinkedAccountInput is the payload for linking an account.
type LinkedAccountInput struct {
	ServiceName       ServiceName `json:"serviceName"`
	AccountIdentifier string      `json:"accountIdentifier"`
	Token             string      `json:"token"`
	RefreshToken      string      `json:"refreshToken,omitempty"`
}

// Validate returns the client-side validation messages for the input.
func (in LinkedAccountInput) Validate() []string {
	var errs []string
	if !in.ServiceName.Valid() {
		errs = append(errs, "Unsupported service: "+string(in.ServiceName))
	}
	if strings.TrimSpace(in.AccountIdentifier) == "" {
		errs = append(errs, "Account identifier is required")
	}
	if strings.TrimSpace(in.Token) == "" {
		errs = append(errs, "Token is required")
	}
	return errs
}
