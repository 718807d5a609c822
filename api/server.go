// Package api exposes the research service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/riskbench/backtest"
	"github.com/rustyeddy/riskbench/internal/telemetry"
	"github.com/rustyeddy/riskbench/research"
)

// Options configures the HTTP server.
type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	// Defaults fills zero-valued run settings in incoming requests.
	Defaults backtest.Config
	// Workers bounds batch concurrency; 0 means one per request.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		RequestTimeout: 20 * time.Second,
	}
}

type Server struct {
	router *mux.Router
	svc    *research.Service
	log    zerolog.Logger
	tel    *telemetry.Metrics
	opts   Options
}

func NewServer(svc *research.Service, log zerolog.Logger, tel *telemetry.Metrics, opts Options) *Server {
	s := &Server{
		router: mux.NewRouter(),
		svc:    svc,
		log:    log,
		tel:    tel,
		opts:   opts,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	if s.tel != nil {
		s.router.Handle("/metrics", s.tel.Handler()).Methods(http.MethodGet)
	}

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.timeoutMiddleware)
	v1.Use(jsonContentTypeMiddleware)
	v1.HandleFunc("/backtests", s.createBacktest).Methods(http.MethodPost)
	v1.HandleFunc("/backtests", s.listBacktests).Methods(http.MethodGet)
	v1.HandleFunc("/backtests/batch", s.createBatch).Methods(http.MethodPost)
	v1.HandleFunc("/backtests/{id}", s.getBacktest).Methods(http.MethodGet)
	v1.HandleFunc("/assessments", s.createAssessment).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(s.notFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
