package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taboowiki/pkg/logging"
)

// CancelPath lets the user abandon a login from the browser.
const CancelPath = "/auth/cancel"

// CallbackServer is a temporary loopback HTTP server that serves the
// callback route for one login attempt.
type CallbackServer struct {
	host     string
	port     int
	path     string
	handler  http.Handler
	onCancel func()

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	origin   string
}

// NewCallbackServer creates a callback server. Port 0 picks a free port.
func NewCallbackServer(host string, port int, path string, handler http.Handler) *CallbackServer {
	if host == "" {
		host = "127.0.0.1"
	}
	if path == "" {
		path = "/"
	}
	return &CallbackServer{host: host, port: port, path: path, handler: handler}
}

// OnCancel sets the function run when the cancel route is hit.
func (s *CallbackServer) OnCancel(fn func()) {
	s.onCancel = fn
}

// Start begins listening. The server stops when ctx is cancelled.
// It returns the callback URL.
func (s *CallbackServer) Start(ctx context.Context) (string, error) {
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, s.handler)
	mux.HandleFunc(CancelPath, s.handleCancel)

	s.mu.Lock()
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port
	s.origin = "http://" + net.JoinHostPort(s.host, strconv.Itoa(s.port))
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("OAuth", err, "Callback server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	logging.Debug("OAuth", "Callback server listening on %s", s.origin)
	return s.CallbackURL(), nil
}

func (s *CallbackServer) handleCancel(w http.ResponseWriter, _ *http.Request) {
	logging.Info("OAuth", "Login cancelled from the browser")
	if s.onCancel != nil {
		s.onCancel()
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Login cancelled. You can close this window.\n"))
}

// Stop gracefully shuts down the callback server.
func (s *CallbackServer) Stop() {
	s.mu.Lock()
	server, listener := s.server, s.listener
	s.mu.Unlock()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	if listener != nil {
		_ = listener.Close()
	}
}

// Origin returns scheme://host:port of the running server.
func (s *CallbackServer) Origin() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.origin
}

// CallbackURL returns the URL of the callback route.
func (s *CallbackServer) CallbackURL() string {
	return s.Origin() + s.path
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}
