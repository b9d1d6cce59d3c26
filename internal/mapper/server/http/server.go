package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/rfmapper/internal/mapper"
	"github.com/autopeer-io/rfmapper/internal/pkg/metrics"
	"github.com/autopeer-io/rfmapper/pkg/log"
	"github.com/autopeer-io/rfmapper/pkg/options"
)

// StatusReader is the part of the mapper the HTTP server exposes.
type StatusReader interface {
	Status() mapper.Status
	Running() bool
}

type Server struct {
	server  *http.Server
	options *options.HttpOptions
	logger  log.Logger
}

func NewServer(opts *options.HttpOptions, m StatusReader) *Server {
	return &Server{
		server: &http.Server{
			Addr:         opts.Addr,
			Handler:      NewHandler(m),
			ReadTimeout:  opts.Timeout,
			WriteTimeout: opts.Timeout,
		},
		options: opts,
		logger:  log.WithName("http"),
	}
}

// NewHandler routes the health, status and metrics endpoints.
func NewHandler(m StatusReader) http.Handler {
	r := mux.NewRouter()

	// Liveness: the process answers.
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !m.Running() {
			http.Error(w, "mapper not running", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(m.Status()); err != nil {
			log.Error(err, "Failed to encode status")
		}
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, lis)
}

func (s *Server) serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("Starting HTTP Server", "addr", lis.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.Timeout)
		defer cancel()
		s.logger.Info("Shutting down HTTP Server")
		return s.server.Shutdown(shutdownCtx)
	}
}
