package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CallbackPath is where providers redirect after authorization.
const CallbackPath = "/oauth/callback"

// CallbackHandler completes a flow given the provider's code and state.
type CallbackHandler func(ctx context.Context, code, state string) error

// CallbackServer receives provider redirects on a local address.
type CallbackServer struct {
	addr    string
	handler CallbackHandler
	logger  *slog.Logger

	srv *http.Server
	ln  net.Listener
}

// NewCallbackServer returns a server that will listen on addr.
func NewCallbackServer(addr string, h CallbackHandler, logger *slog.Logger) *CallbackServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallbackServer{addr: addr, handler: h, logger: logger}
}

// Routes returns the server's HTTP handler.
func (s *CallbackServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(CallbackPath, s.handleCallback)
	return r
}

// Start listens on the configured address and serves in the background.
// It returns the bound address.
func (s *CallbackServer) Start() (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("starting callback server: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server stopped", "err", err)
		}
	}()

	s.logger.Info("callback server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Shutdown stops the server.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")

	if providerErr := q.Get("error"); providerErr != "" {
		s.logger.Warn("authorization denied", "state", state, "error", providerErr)
		writePage(w, http.StatusBadRequest, "Authorization failed", providerErr)
		return
	}

	code := q.Get("code")
	if code == "" || state == "" {
		writePage(w, http.StatusBadRequest, "Authorization failed", "missing code or state")
		return
	}

	if err := s.handler(r.Context(), code, state); err != nil {
		s.logger.Warn("completing authorization", "state", state, "err", err)
		writePage(w, http.StatusBadGateway, "Authorization failed", err.Error())
		return
	}

	writePage(w, http.StatusOK, "Account connected", "You can close this window and return to the terminal.")
}

func writePage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>%[1]s</title></head>
<body><h1>%[1]s</h1><p>%[2]s</p></body>
</html>`, html.EscapeString(title), html.EscapeString(body))
}
