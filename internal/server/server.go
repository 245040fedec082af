// Package server exposes the batch pipeline over HTTP: submit a file,
// watch progress over SSE, fetch results, download the workbook.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/job"
	"github.com/sells-group/intel-crawler/internal/store"
)

// Config holds the server's operational settings.
type Config struct {
	Port       int
	UploadDir  string
	OutputPath string
	SheetName  string
}

// Server wires HTTP handlers to the orchestrator and store.
type Server struct {
	orch *job.Orchestrator
	st   store.Store
	cfg  Config

	// baseCtx outlives individual requests so a submitted batch is not
	// cancelled when the submitting request returns.
	baseCtx context.Context
}

// New creates a Server. st may be nil when run history is disabled.
func New(orch *job.Orchestrator, st store.Store, cfg Config) *Server {
	if cfg.SheetName == "" {
		cfg.SheetName = "Results"
	}
	return &Server{
		orch:    orch,
		st:      st,
		cfg:     cfg,
		baseCtx: context.Background(),
	}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/jobs", s.handleSubmit)
	r.Get("/progress", s.handleProgress)
	r.Get("/status", s.handleStatus)
	r.Get("/results", s.handleResults)
	r.Get("/download", s.handleDownload)
	r.Get("/runs", s.handleRuns)

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = context.WithoutCancel(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}
