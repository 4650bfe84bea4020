package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/estima/internal/backend"
	"github.com/alexanderramin/estima/internal/graph"
	"github.com/alexanderramin/estima/internal/intelligence"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Service   backend.Service
	Registry  *graph.Registry // nil builds one over Service
	Proposals intelligence.ProposalService
	Parser    intelligence.ParseService
	Addr      string
	Logger    *slog.Logger
	Out       io.Writer
}

// Server serves the JSON API. Project-scoped mutations go through the
// registry's workspaces so writes to one project are serialized.
type Server struct {
	svc       backend.Service
	reg       *graph.Registry
	proposals intelligence.ProposalService
	parser    intelligence.ParseService
	logger    *slog.Logger
}

func NewServer(opts StartOpts) (*Server, error) {
	if opts.Service == nil {
		return nil, errors.New("api: service is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Registry == nil {
		opts.Registry = graph.NewRegistry(opts.Service, graph.WithObserver(graph.NewLogObserver(opts.Logger)))
	}
	if opts.Proposals == nil {
		opts.Proposals = intelligence.NewProposalService(nil)
	}
	if opts.Parser == nil {
		opts.Parser = intelligence.NewParseService(nil)
	}
	return &Server{
		svc:       opts.Service,
		reg:       opts.Registry,
		proposals: opts.Proposals,
		parser:    opts.Parser,
		logger:    opts.Logger,
	}, nil
}

// Handler returns the gin router with every route registered.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestMetrics())
	registerRoutes(router, s)
	return router
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	s, err := NewServer(opts)
	if err != nil {
		return err
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "estima API listening on %s\n", opts.Addr)
	}
	s.logger.Info("api_start", "addr", opts.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}
