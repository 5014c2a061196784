package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

const shutdownTimeout = 5 * time.Second

// CallbackServer serves a single [OAuthHandler] until it produces a result.
type CallbackServer struct {
	handler  *OAuthHandler
	server   *http.Server
	listener net.Listener
	logger   *log.Logger
}

// CallbackAddr returns the listen address and path encoded in a redirect URI.
func CallbackAddr(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect uri %q: %w", redirectURI, err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid redirect uri %q: missing host", redirectURI)
	}
	addr = u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return addr, path, nil
}

// NewCallbackServer builds a server for handler on addr with request logging.
func NewCallbackServer(addr string, handler *OAuthHandler, logger *log.Logger) *CallbackServer {
	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(handler)

	return &CallbackServer{
		handler: handler,
		logger:  logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server stopped", "error", err)
		}
	}()
	s.logger.Debug("callback server listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, useful when started on port 0.
func (s *CallbackServer) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Wait blocks until the handler publishes a result or ctx is done, then shuts the server down.
func (s *CallbackServer) Wait(ctx context.Context) (*oauth2.Token, error) {
	defer s.Shutdown()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result, ok := <-s.handler.Result():
		if !ok {
			return nil, errors.New("callback closed without a result")
		}
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Token, nil
	}
}

// Shutdown stops the server, waiting briefly for in-flight requests.
func (s *CallbackServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("callback server shutdown", "error", err)
	}
}
