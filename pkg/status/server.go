// Package status exposes the last archived record of a running recorder over
// HTTP, as JSON and in the Prometheus text format.
package status

import (
	"context"
	"net/http"

	"emperror.dev/errors"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/voluzi/pmon/pkg/record"
)

// RecordSource returns the most recent record and false when none exists yet.
type RecordSource interface {
	LastRecord() (record.Record, bool)
}

type Server struct {
	router *mux.Router
	cfg    *Options
	source RecordSource
	srv    *http.Server
}

func NewServer(source RecordSource, opts ...Option) *Server {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	s := &Server{
		cfg:    options,
		router: mux.NewRouter(),
		source: source,
	}
	s.registerRoutes()
	s.srv = &http.Server{
		Addr:              options.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	log.Infof("status server listening on %s", s.cfg.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/last_record", s.lastRecord).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.metrics).Methods(http.MethodGet)
}
