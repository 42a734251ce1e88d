package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nhle/taskpilot/internal/graphql"
	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/state"
	"github.com/nhle/taskpilot/internal/store"
)

const logoutTimeout = 5 * time.Second

// ErrNoRefreshToken is returned by RefreshSession when no refresh token
// is stored.
var ErrNoRefreshToken = errors.New("no refresh token")

type session struct {
	User         model.User
	AccessToken  string
	RefreshToken string
}

// authPayload is the login/register mutation payload.
type authPayload struct {
	Envelope
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

// restUser is the user as serialized by the REST API.
type restUser struct {
	ID          model.ID   `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DisplayName string     `json:"display_name"`
	Avatar      string     `json:"avatar"`
	DateJoined  *time.Time `json:"date_joined"`
}

func (u restUser) model() model.User {
	return model.User{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		DateJoined:  u.DateJoined,
	}
}

// restAuthResponse accepts both {user, access, refresh} and the legacy
// {token, user}.
type restAuthResponse struct {
	User    *restUser `json:"user"`
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	Token   string    `json:"token"`
}

// Login signs in and persists the session. Nothing is written unless the
// backend accepts the credentials.
func (g *Gateway) Login(ctx context.Context, creds model.Credentials) Result[model.User] {
	if errs := creds.Validate(); len(errs) > 0 {
		return Invalid[model.User](errs...)
	}

	var r Result[session]
	if g.authTransport == model.AuthTransportREST {
		r = g.restAuth(ctx, DefaultLoginPath, creds)
	} else {
		r = g.graphqlAuth(ctx, mutationLogin, map[string]any{"credentials": creds}, "login")
	}
	return g.establish(ctx, r)
}

// Register creates an account, signs in and persists the session.
func (g *Gateway) Register(ctx context.Context, reg model.Registration) Result[model.User] {
	if errs := reg.Validate(); len(errs) > 0 {
		return Invalid[model.User](errs...)
	}

	var r Result[session]
	if g.authTransport == model.AuthTransportREST {
		r = g.restAuth(ctx, DefaultRegisterPath, map[string]string{
			"username":   reg.Username,
			"email":      reg.Email,
			"password":   reg.Password,
			"first_name": reg.FirstName,
			"last_name":  reg.LastName,
		})
	} else {
		r = g.graphqlAuth(ctx, mutationRegister, map[string]any{"userData": reg}, "register")
	}
	return g.establish(ctx, r)
}

func (g *Gateway) graphqlAuth(ctx context.Context, query string, vars map[string]any, field string) Result[session] {
	var data map[string]*authPayload
	if err := g.call(ctx, query, vars, &data); err != nil {
		return Failed[session](err)
	}

	p := data[field]
	if p == nil {
		return malformed[session](g, field, "missing payload")
	}
	if !p.Success {
		return Business[session](p.Messages()...)
	}
	if p.User == nil || p.AccessToken == "" {
		return malformed[session](g, field, "success without user or token")
	}
	return Ok(session{User: *p.User, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken})
}

func (g *Gateway) restAuth(ctx context.Context, path string, body any) Result[session] {
	var resp restAuthResponse
	if err := g.post(ctx, path, body, &resp); err != nil {
		var se *graphql.StatusError
		if errors.As(err, &se) {
			return Business[session](restErrors(se.Body)...)
		}
		return Failed[session](err)
	}

	access := resp.Access
	if access == "" {
		access = resp.Token
	}
	if resp.User == nil || access == "" {
		return malformed[session](g, "POST "+path, "missing user or token")
	}
	return Ok(session{User: resp.User.model(), AccessToken: access, RefreshToken: resp.Refresh})
}

// restErrors extracts displayable messages from a REST 4xx body:
// {"error": ...}, {"detail": ...} or a field map of message lists.
func restErrors(body []byte) []string {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
			return []string{s}
		}
		return []string{"Unknown error"}
	}

	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := m[key].(string); ok && s != "" {
			return []string{s}
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		for _, msg := range messagesOf(m[k]) {
			if k == "non_field_errors" {
				out = append(out, msg)
			} else {
				out = append(out, k+": "+msg)
			}
		}
	}
	if len(out) == 0 {
		return []string{"Unknown error"}
	}
	return out
}

func messagesOf(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// establish persists a successful session and publishes the user. A
// storage failure undoes partial writes and is reported as a transport
// failure.
func (g *Gateway) establish(ctx context.Context, r Result[session]) Result[model.User] {
	if !r.OK() {
		return Result[model.User]{Kind: r.Kind, Errors: r.Errors, Err: r.Err}
	}
	s := r.Value

	if err := g.persist(ctx, s); err != nil {
		g.logger.Error("saving session", "err", err)
		_ = g.storage.Delete(context.WithoutCancel(ctx), store.SessionKeys...)
		return Failed[model.User](err)
	}

	g.store.SetCurrentUser(&s.User)
	if err := g.SaveSession(ctx); err != nil {
		g.logger.Warn("saving app state", "err", err)
	}
	g.logger.Info("signed in", "user", s.User.Username)
	return Ok(s.User)
}

func (g *Gateway) persist(ctx context.Context, s session) error {
	if err := g.storage.Set(ctx, store.KeyAccessToken, s.AccessToken); err != nil {
		return err
	}
	if s.RefreshToken != "" {
		if err := g.storage.Set(ctx, store.KeyRefreshToken, s.RefreshToken); err != nil {
			return err
		}
	}
	return store.SetJSON(ctx, g.storage, store.KeyCurrentUser, s.User)
}

// Logout ends the session. It never fails: the optional server-side
// revocation is best effort, and local state is always cleared.
func (g *Gateway) Logout(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if g.logoutPath != "" {
		if rt, ok, _ := g.storage.Get(ctx, store.KeyRefreshToken); ok && rt != "" {
			rctx, cancel := context.WithTimeout(ctx, logoutTimeout)
			if err := g.client.Post(rctx, g.logoutPath, map[string]string{"refresh": rt}, nil); err != nil {
				g.logger.Debug("logout request failed", "err", err)
			}
			cancel()
		}
	}

	if err := g.storage.Delete(ctx, store.SessionKeys...); err != nil {
		g.logger.Warn("clearing session storage", "err", err)
	}
	g.store.Reset()
	g.logger.Info("signed out")
}

// Me loads the current user from the backend and stores it.
func (g *Gateway) Me(ctx context.Context) Result[model.User] {
	r := fetch[model.User](ctx, g, queryMe, nil, "me", "Not authenticated")
	if !r.OK() || !live(ctx) {
		return r
	}
	if err := store.SetJSON(ctx, g.storage, store.KeyCurrentUser, r.Value); err != nil {
		g.logger.Warn("saving current user", "err", err)
	}
	g.store.SetCurrentUser(&r.Value)
	return r
}

// IsAuthenticated reports whether a usable access token is stored. A JWT
// must not be expired; opaque tokens are trusted until the backend
// rejects them.
func (g *Gateway) IsAuthenticated(ctx context.Context) bool {
	tok, ok, err := g.storage.Get(ctx, store.KeyAccessToken)
	if err != nil || !ok || tok == "" {
		return false
	}
	return !tokenExpired(tok, g.store.Now())
}

func tokenExpired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// RestoreSession loads the stored user and app state at startup and
// reports whether the session is usable. A corrupt stored user ends the
// session.
func (g *Gateway) RestoreSession(ctx context.Context) bool {
	tok, ok, err := g.storage.Get(ctx, store.KeyAccessToken)
	if err != nil {
		g.logger.Warn("reading access token", "err", err)
		return false
	}
	if !ok || tok == "" {
		return false
	}

	var user model.User
	found, err := store.GetJSON(ctx, g.storage, store.KeyCurrentUser, &user)
	if err != nil {
		g.logger.Warn("stored user is corrupt, signing out", "err", err)
		g.Logout(ctx)
		return false
	}

	var snap state.Snapshot
	if ok, err := store.GetJSON(ctx, g.storage, store.KeyAppState, &snap); err != nil {
		g.logger.Warn("ignoring corrupt app state", "err", err)
	} else if ok {
		g.store.Restore(snap)
	}
	if found {
		g.store.SetCurrentUser(&user)
	}

	return g.IsAuthenticated(ctx)
}

// SaveSession writes the current snapshot to storage.
func (g *Gateway) SaveSession(ctx context.Context) error {
	if err := store.SetJSON(ctx, g.storage, store.KeyAppState, g.store.Snapshot()); err != nil {
		return fmt.Errorf("saving app state: %w", err)
	}
	return nil
}

// RefreshSession exchanges the stored refresh token for a new access
// token.
func (g *Gateway) RefreshSession(ctx context.Context) Result[string] {
	rt, ok, err := g.storage.Get(ctx, store.KeyRefreshToken)
	if err != nil {
		return Failed[string](err)
	}
	if !ok || rt == "" {
		return Failed[string](ErrNoRefreshToken)
	}

	var resp struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	if err := g.post(ctx, g.refreshPath, map[string]string{"refresh": rt}, &resp); err != nil {
		var se *graphql.StatusError
		if errors.As(err, &se) {
			return Business[string](restErrors(se.Body)...)
		}
		return Failed[string](err)
	}
	if resp.Access == "" {
		return malformed[string](g, "POST "+g.refreshPath, "missing access token")
	}

	if err := g.storage.Set(ctx, store.KeyAccessToken, resp.Access); err != nil {
		return Failed[string](err)
	}
	if resp.Refresh != "" {
		if err := g.storage.Set(ctx, store.KeyRefreshToken, resp.Refresh); err != nil {
			return Failed[string](err)
		}
	}
	return Ok(resp.Access)
}
