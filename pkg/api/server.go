// Package api serves scenario runs, run history and permission-filtered
// queries over HTTP, plus a gRPC health service for orchestration probes.
package api

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
	"github.com/codeready-toolchain/searchctl/pkg/search"
	"github.com/codeready-toolchain/searchctl/pkg/store"
)

// DefaultMaxConcurrentRuns bounds scenario runs executing at once.
const DefaultMaxConcurrentRuns = 4

// Searcher runs a query against an index.
type Searcher interface {
	Search(ctx context.Context, index string, req search.SearchRequest, opts ...search.QueryOption) (*search.SearchResponse, error)
}

// Options configures NewServer.
type Options struct {
	Registry *scenario.Registry
	Deps     *scenario.Deps
	Store    store.Store
	// DB is checked by /health when run history lives in PostgreSQL.
	DB *stdsql.DB
	// Search serves /indexes/:index/search; nil disables the route's backend.
	Search            Searcher
	Masker            scenario.Masker
	StepTimeout       time.Duration
	MaxConcurrentRuns int
	// Recorders observe every run in addition to the store.
	Recorders []scenario.Recorder
}

// Server is the HTTP API server.
type Server struct {
	registry    *scenario.Registry
	deps        *scenario.Deps
	store       store.Store
	db          *stdsql.DB
	search      Searcher
	masker      scenario.Masker
	stepTimeout time.Duration
	recorders   []scenario.Recorder

	engine     *gin.Engine
	mu         sync.Mutex
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server

	runs       *errgroup.Group
	runCtx     context.Context
	cancelRuns context.CancelFunc
	active     atomic.Int64
	closed     atomic.Bool
}

// NewServer creates the API server and registers its routes.
func NewServer(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = scenario.DefaultRegistry()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory(0)
	}
	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = DefaultMaxConcurrentRuns
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(), securityHeaders())

	runs := &errgroup.Group{}
	runs.SetLimit(opts.MaxConcurrentRuns)
	runCtx, cancel := context.WithCancel(context.Background())

	s := &Server{
		registry:    opts.Registry,
		deps:        opts.Deps,
		store:       opts.Store,
		db:          opts.DB,
		search:      opts.Search,
		masker:      opts.Masker,
		stepTimeout: opts.StepTimeout,
		recorders:   append([]scenario.Recorder{store.NewRecorder(opts.Store)}, opts.Recorders...),
		engine:      engine,
		health:      health.NewServer(),
		runs:        runs,
		runCtx:      runCtx,
		cancelRuns:  cancel,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)

	v1 := s.engine.Group("/api/v1")
	v1.GET("/scenarios", s.listScenariosHandler)
	v1.POST("/scenarios/:name/runs", s.startRunHandler)
	v1.GET("/runs", s.listRunsHandler)
	v1.GET("/runs/:id", s.getRunHandler)
	v1.POST("/indexes/:index/search", s.searchHandler)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves HTTP on addr until Shutdown. It returns http.ErrServerClosed
// after a clean shutdown.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = srv
	s.mu.Unlock()
	return srv.ListenAndServe()
}

// StartGRPC serves the gRPC health service on addr until Shutdown.
func (s *Server) StartGRPC(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		_ = lis.Close()
		return nil
	}
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.grpcServer = srv
	s.mu.Unlock()
	return srv.Serve(lis)
}

// Shutdown stops accepting runs, cancels in-flight runs (their remaining
// steps are recorded as skipped) and stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed.Store(true)
	httpServer, grpcServer := s.httpServer, s.grpcServer
	s.mu.Unlock()

	s.health.Shutdown()
	s.cancelRuns()

	done := make(chan struct{})
	go func() {
		_ = s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Timed out waiting for scenario runs to stop", "active", s.active.Load())
	}

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if httpServer == nil {
		return nil
	}
	if err := httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
