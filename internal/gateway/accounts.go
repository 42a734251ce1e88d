package gateway

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/nhle/taskpilot/internal/model"
)

// ErrOAuthDisabled is returned when no OAuth provider is configured.
var ErrOAuthDisabled = errors.New("oauth is not configured")

// FetchLinkedAccounts loads the linked accounts and replaces the
// collection. Concurrent callers share a single request, which is not
// tied to any one caller's cancellation; a caller whose ctx ends returns
// early and leaves the store alone.
func (g *Gateway) FetchLinkedAccounts(ctx context.Context) Result[[]model.LinkedAccount] {
	shared := context.WithoutCancel(ctx)
	ch := g.accounts.DoChan("linkedAccounts", func() (any, error) {
		return fetch[[]model.LinkedAccount](shared, g, queryLinkedAccounts, nil, "linkedAccounts", ""), nil
	})

	select {
	case <-ctx.Done():
		return Failed[[]model.LinkedAccount](ctx.Err())
	case res := <-ch:
		if res.Shared {
			g.logger.Debug("shared linked accounts fetch")
		}
		r := res.Val.(Result[[]model.LinkedAccount])
		if r.OK() && live(ctx) {
			g.store.Accounts.SetAll(r.Value)
		}
		return r
	}
}

// RefreshAccount re-fetches one linked account and merges it.
func (g *Gateway) RefreshAccount(ctx context.Context, id model.ID) Result[model.LinkedAccount] {
	r := fetch[model.LinkedAccount](ctx, g, queryLinkedAccount, map[string]any{"id": id}, "linkedAccount", "Account not found")
	if r.OK() && live(ctx) {
		g.store.Accounts.Merge(r.Value)
	}
	return r
}

// TestConnection re-fetches an account and fails when it is no longer
// active. The fetched state is merged either way.
func (g *Gateway) TestConnection(ctx context.Context, id model.ID) Result[model.LinkedAccount] {
	r := g.RefreshAccount(ctx, id)
	if !r.OK() {
		return r
	}
	if !r.Value.IsActive {
		return Business[model.LinkedAccount]("Connection test failed")
	}
	return r
}

// LinkAccount links an external account and prepends it to the
// collection.
func (g *Gateway) LinkAccount(ctx context.Context, in model.LinkedAccountInput) Result[model.LinkedAccount] {
	if errs := in.Validate(); len(errs) > 0 {
		return Invalid[model.LinkedAccount](errs...)
	}

	vars := map[string]any{
		"serviceName":       in.ServiceName,
		"accountIdentifier": in.AccountIdentifier,
		"token":             in.Token,
	}
	if in.RefreshToken != "" {
		vars["refreshToken"] = in.RefreshToken
	}

	r := mutate[model.LinkedAccount](ctx, g, mutationLinkAccount, vars, "linkAccount", "account")
	if r.OK() && live(ctx) {
		g.store.Accounts.Merge(r.Value)
	}
	return r
}

// UnlinkAccount unlinks an account and removes it from the collection.
func (g *Gateway) UnlinkAccount(ctx context.Context, id model.ID) Result[model.ID] {
	r := mutate[model.ID](ctx, g, mutationUnlinkAccount, map[string]any{"accountId": id}, "unlinkAccount", "")
	if !r.OK() {
		return r
	}
	if live(ctx) {
		g.store.Accounts.Remove(string(id))
	}
	return Ok(id)
}

// InitiateOAuth returns the provider URL the user must visit to link
// service. No backend request is made.
func (g *Gateway) InitiateOAuth(service model.ServiceName) Result[string] {
	if !service.Valid() {
		return Invalid[string]("Unsupported service: " + string(service))
	}
	if g.oauth == nil {
		return Failed[string](ErrOAuthDisabled)
	}

	url, err := g.oauth.AuthCodeURL(service)
	if err != nil {
		return Failed[string](err)
	}
	g.logger.Info("oauth started", "service", service)
	return Ok(url)
}

// CompleteOAuth exchanges the provider's authorization code and links the
// resulting account. State carries the service name.
func (g *Gateway) CompleteOAuth(ctx context.Context, code, state string) Result[model.LinkedAccount] {
	service := model.ServiceName(state)
	if !service.Valid() {
		return Invalid[model.LinkedAccount]("Unsupported service: " + state)
	}
	if code == "" {
		return Invalid[model.LinkedAccount]("Authorization code is required")
	}
	if g.oauth == nil {
		return Failed[model.LinkedAccount](ErrOAuthDisabled)
	}

	tok, err := g.oauth.Exchange(ctx, service, code)
	if err != nil {
		g.logger.Warn("oauth exchange failed", "service", service, "err", err)
		return Failed[model.LinkedAccount](err)
	}

	return g.LinkAccount(ctx, model.LinkedAccountInput{
		ServiceName:       service,
		AccountIdentifier: accountIdentifier(service, tok),
		Token:             tok.AccessToken,
		RefreshToken:      tok.RefreshToken,
	})
}

// accountIdentifier picks a stable identifier from the token response,
// falling back to a service-scoped placeholder.
func accountIdentifier(service model.ServiceName, tok *oauth2.Token) string {
	for _, key := range []string{"email", "username", "user_id", "account_id"} {
		if v := tok.Extra(key); v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%s account", service)
}
