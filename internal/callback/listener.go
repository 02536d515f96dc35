// Package callback runs the local HTTP endpoint receiving the OAuth2 redirect.
package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	codeParam         = "code"
	readHeaderTimeout = 10 * time.Second

	successPage = `<html><body><h3>Authorization complete</h3><p>You can close this page and return to the chat.</p></body></html>`
	noCodePage  = `<html><body><h3>Authorization failed</h3><p>The authorization code is missing.</p></body></html>`
	idlePage    = `<html><body><h3>Authorization failed</h3><p>No authorization is pending. Request a new link in the chat.</p></body></html>`
	failurePage = `<html><body><h3>Authorization failed</h3><p>Something went wrong. Please try again from the chat.</p></body></html>`
)

// Handler receives the authorization code of a redirect.
type Handler func(ctx context.Context, code string) error

// Listener serves a single GET / route and hands the code query parameter to the registered handler.
type Listener struct {
	addr   string
	logger *zap.Logger

	mu       sync.Mutex
	handler  Handler
	server   *http.Server
	listener net.Listener
}

// New creates a listener bound to all interfaces on port.
func New(port int, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Listener{
		addr:   fmt.Sprintf(":%d", port),
		logger: logger,
	}
}

// Start registers handler and starts serving. When the listener already runs only
// the handler is swapped. It reports false if the socket cannot be bound.
func (l *Listener) Start(handler Handler) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handler = handler

	if l.server != nil {
		l.logger.Info("callback listener already running, handler replaced", zap.String("addr", l.listener.Addr().String()))
		return true
	}

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		l.logger.Error("failed to bind callback listener", zap.String("addr", l.addr), zap.Error(err))
		return false
	}

	srv := &http.Server{
		Handler:           l.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	l.server = srv
	l.listener = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.logger.Error("callback listener stopped", zap.Error(err))
		}
	}()

	l.logger.Info("callback listener started", zap.String("addr", ln.Addr().String()))
	return true
}

// Stop releases the socket. It is a no-op when the listener is not running.
func (l *Listener) Stop(ctx context.Context) error {
	l.mu.Lock()
	srv := l.server
	l.server = nil
	l.listener = nil
	l.handler = nil
	l.mu.Unlock()

	if srv == nil {
		return nil
	}

	l.logger.Info("stopping callback listener")
	return srv.Shutdown(ctx)
}

func (l *Listener) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.server != nil
}

// Addr returns the bound address, or the configured one when not running.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.listener != nil {
		return l.listener.Addr().String()
	}
	return l.addr
}

func (l *Listener) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", l.serveCallback)

	return r
}

func (l *Listener) serveCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get(codeParam)
	if code == "" {
		l.logger.Warn("callback without authorization code", zap.String("query", r.URL.RawQuery))
		writePage(w, http.StatusBadRequest, noCodePage)
		return
	}

	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()

	if handler == nil {
		l.logger.Warn("callback received with no pending authorization")
		writePage(w, http.StatusBadRequest, idlePage)
		return
	}

	if err := handler(r.Context(), code); err != nil {
		l.logger.Error("authorization handler failed", zap.Error(err))
		writePage(w, http.StatusInternalServerError, failurePage)
		return
	}

	writePage(w, http.StatusOK, successPage)
}

func writePage(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(page))
}
