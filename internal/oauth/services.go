// Package oauth builds provider authorization URLs for linking external
// accounts, exchanges authorization codes and receives the provider
// redirect on a local callback server.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/nhle/taskpilot/internal/model"
)

// Service describes how to authorize one external service.
type Service struct {
	Name        model.ServiceName
	DisplayName string
	Endpoint    oauth2.Endpoint
	Scopes      []string
}

// Services is the catalog of linkable services.
var Services = map[model.ServiceName]Service{
	model.ServiceGmail: {
		Name: model.ServiceGmail, DisplayName: "Gmail",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		Scopes: []string{"https://www.googleapis.com/auth/gmail.readonly"},
	},
	model.ServiceDiscord: {
		Name: model.ServiceDiscord, DisplayName: "Discord",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://discord.com/api/oauth2/authorize",
			TokenURL: "https://discord.com/api/oauth2/token",
		},
		Scopes: []string{"guilds", "messages.read"},
	},
	model.ServiceSlack: {
		Name: model.ServiceSlack, DisplayName: "Slack",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://slack.com/oauth/v2/authorize",
			TokenURL: "https://slack.com/api/oauth.v2.access",
		},
		Scopes: []string{"channels:read", "chat:write"},
	},
	model.ServiceTeams: {
		Name: model.ServiceTeams, DisplayName: "Microsoft Teams",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://login.microsoftonline.com/common/oauth2/v2.0/authorize",
			TokenURL: "https://login.microsoftonline.com/common/oauth2/v2.0/token",
		},
		Scopes: []string{"https://graph.microsoft.com/Team.ReadBasic.All"},
	},
	model.ServiceTelegram: {
		Name: model.ServiceTelegram, DisplayName: "Telegram",
		Endpoint: oauth2.Endpoint{
			AuthURL: "https://oauth.telegram.org/auth",
		},
		Scopes: []string{"bot"},
	},
	model.ServiceWhatsApp: {
		Name: model.ServiceWhatsApp, DisplayName: "WhatsApp Business",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.facebook.com/v18.0/dialog/oauth",
			TokenURL: "https://graph.facebook.com/v18.0/oauth/access_token",
		},
		Scopes: []string{"whatsapp_business_messaging"},
	},
	model.ServiceTwitter: {
		Name: model.ServiceTwitter, DisplayName: "Twitter",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://twitter.com/i/oauth2/authorize",
			TokenURL: "https://api.twitter.com/2/oauth2/token",
		},
		Scopes: []string{"tweet.read", "users.read"},
	},
	model.ServiceLinkedIn: {
		Name: model.ServiceLinkedIn, DisplayName: "LinkedIn",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.linkedin.com/oauth/v2/authorization",
			TokenURL: "https://www.linkedin.com/oauth/v2/accessToken",
		},
		Scopes: []string{"r_liteprofile", "r_emailaddress"},
	},
}

// DisplayName returns the human-readable name of a service, falling back
// to its identifier.
func DisplayName(name model.ServiceName) string {
	if s, ok := Services[name]; ok {
		return s.DisplayName
	}
	return string(name)
}

// ErrNoTokenEndpoint is returned when a service does not support the
// authorization code exchange.
var ErrNoTokenEndpoint = errors.New("service has no token endpoint")

// Provider builds authorization URLs and exchanges codes for every
// service in the catalog.
type Provider struct {
	redirectURL string
	clients     map[string]model.OAuthClient
	httpClient  *http.Client
	services    map[model.ServiceName]Service
}

// NewProvider returns a Provider for cfg. A nil httpClient uses the
// oauth2 default.
func NewProvider(cfg model.OAuthConfig, httpClient *http.Client) *Provider {
	return &Provider{
		redirectURL: cfg.RedirectURL,
		clients:     cfg.Clients,
		httpClient:  httpClient,
		services:    Services,
	}
}

// WithServices returns a copy of p using a different catalog.
func (p *Provider) WithServices(services map[model.ServiceName]Service) *Provider {
	cp := *p
	cp.services = services
	return &cp
}

// Config returns the oauth2 configuration for service.
func (p *Provider) Config(service model.ServiceName) (*oauth2.Config, error) {
	s, ok := p.services[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}
	client := p.clients[string(service)]
	return &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		RedirectURL:  p.redirectURL,
		Scopes:       s.Scopes,
		Endpoint:     s.Endpoint,
	}, nil
}

// AuthCodeURL returns the provider URL that starts the authorization flow
// for service. The state parameter carries the service name so the
// callback knows which service completed.
func (p *Provider) AuthCodeURL(service model.ServiceName) (string, error) {
	cfg, err := p.Config(service)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(string(service), oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for provider tokens.
func (p *Provider) Exchange(ctx context.Context, service model.ServiceName, code string) (*oauth2.Token, error) {
	cfg, err := p.Config(service)
	if err != nil {
		return nil, err
	}
	if cfg.Endpoint.TokenURL == "" {
		return nil, fmt.Errorf("%s: %w", service, ErrNoTokenEndpoint)
	}
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for %s: %w", service, err)
	}
	return tok, nil
}
