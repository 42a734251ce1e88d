package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/taskpilot/internal/credential"
	"github.com/nhle/taskpilot/internal/gateway"
	"github.com/nhle/taskpilot/internal/graphql"
	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/oauth"
	"github.com/nhle/taskpilot/internal/state"
	"github.com/nhle/taskpilot/internal/store"
	appsync "github.com/nhle/taskpilot/internal/sync"
)

// runtime is everything a command needs, built from the config file.
type runtime struct {
	cfg     *model.AppConfig
	logger  *slog.Logger
	store   *state.Store
	storage store.Storage
	gw      *gateway.Gateway

	closers []func() error
}

func openRuntime() (*runtime, error) {
	cfg, err := model.LoadConfig(getConfigPath())
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger := newLogger(os.Stderr, level)

	rt := &runtime{cfg: cfg, logger: logger}

	storage, err := rt.openStorage()
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.storage = storage
	rt.store = state.New(state.WithNotificationDuration(cfg.Notifications.DefaultDuration()))

	client := graphql.NewClient(cfg.API.GraphQLURL,
		graphql.WithTimeout(cfg.API.Timeout()),
		graphql.WithMaxRetries(cfg.API.MaxRetries),
		graphql.WithRESTBase(cfg.API.RESTURL),
		graphql.WithTokenSource(gateway.AccessToken(storage)),
		graphql.WithLogger(logger),
	)

	opts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithAuthConfig(cfg.Auth),
	}
	if len(cfg.OAuth.Clients) > 0 {
		hc := &http.Client{Timeout: cfg.API.Timeout()}
		opts = append(opts, gateway.WithOAuth(oauth.NewProvider(cfg.OAuth, hc)))
	}
	rt.gw = gateway.New(client, rt.store, storage, opts...)
	return rt, nil
}

// openStorage opens the session storage selected by storage.tokens.
func (rt *runtime) openStorage() (store.Storage, error) {
	if rt.cfg.Storage.Tokens == model.TokenStoreMemory {
		return store.NewMemoryStore(), nil
	}

	path := rt.cfg.Storage.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}
	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, db.Close)

	if rt.cfg.Storage.Tokens != model.TokenStoreKeyring {
		return db, nil
	}
	ring, err := credential.Open()
	if err != nil {
		return nil, err
	}
	return store.Routed{Default: db, Secrets: ring}, nil
}

// session restores the persisted session and fails when there is none.
func (rt *runtime) session(ctx context.Context) error {
	if !rt.gw.RestoreSession(ctx) {
		return errNotSignedIn
	}
	return nil
}

func (rt *runtime) newPoller() *appsync.Poller {
	gw := rt.gw
	refresh := func(ctx context.Context) error {
		return resultErr("refreshing accounts", gw.FetchLinkedAccounts(ctx))
	}
	return appsync.New(rt.store, refresh,
		appsync.WithInterval(rt.cfg.OAuth.PollInterval()),
		appsync.WithTimeout(rt.cfg.OAuth.Timeout()),
		appsync.WithLogger(rt.logger),
	)
}

// startCallback serves provider redirects and links the resulting account.
// The returned function stops the server.
func (rt *runtime) startCallback() (func(), error) {
	gw := rt.gw
	srv := oauth.NewCallbackServer(rt.cfg.OAuth.CallbackAddr, func(ctx context.Context, code, state string) error {
		return resultErr("linking account", gw.CompleteOAuth(ctx, code, state))
	}, rt.logger)

	if _, err := srv.Start(); err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			rt.logger.Warn("stopping callback server", "err", err)
		}
	}, nil
}

// Close persists the session snapshot and releases storage.
func (rt *runtime) Close() {
	if rt.gw != nil {
		if _, ok := rt.store.CurrentUser(); ok {
			if err := rt.gw.SaveSession(context.Background()); err != nil {
				rt.logger.Warn("saving session", "err", err)
			}
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("closing storage", "err", err)
		}
	}
}
