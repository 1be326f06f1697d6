package cacheserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultGitHubAPIBase is the upstream the proxy forwards to.
const DefaultGitHubAPIBase = "https://api.github.com"

// Options configures a console Server.
type Options struct {
	Port        int    // 0 picks a free port
	GitHubToken string // bearer token the proxy injects
	GitHubAPI   string // upstream base URL, defaults to DefaultGitHubAPIBase
	Logger      *slog.Logger
}

// Server ties the cache handler and the GitHub proxy to one listener.
type Server struct {
	store *Store
	opts  Options
	log   *slog.Logger

	httpServer *http.Server
	port       int
}

// New creates a Server over the given store.
func New(store *Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.GitHubAPI == "" {
		opts.GitHubAPI = DefaultGitHubAPIBase
	}
	return &Server{store: store, opts: opts, log: log}
}

// Handler assembles the HTTP mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	proxy := newProxyHandler(s.opts.GitHubAPI, s.opts.GitHubToken, nil, s.log)
	mux.HandleFunc("/api/github/rest/", proxy.ServeRESTProxy)
	mux.HandleFunc("/api/github/graphql", proxy.ServeGraphQLProxy)

	mux.Handle("/api/cache/", &cacheHandler{store: s.store, log: s.log})

	return mux
}

// Port returns the bound port after Run has started listening.
func (s *Server) Port() int {
	return s.port
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.port = ln.Addr().(*net.TCPAddr).Port
	s.httpServer = &http.Server{Handler: s.Handler()}

	s.log.Info("console server listening", "port", s.port)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
