package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerOpts struct {
	ListenAddr string
	Log        *slog.Logger
}

// Server exposes the agent's own prometheus metrics and a health probe.
type Server struct {
	opts ServerOpts
	mux  *http.ServeMux
	srv  *http.Server
}

func NewServer(opts ServerOpts) *Server {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &Server{opts: opts, mux: mux}
}

// RegisterHandler adds a handler at path.  Must be called before Open.
func (s *Server) RegisterHandler(path string, h http.HandlerFunc) {
	s.mux.Handle(path, h)
}

func (s *Server) Open(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.opts.ListenAddr, Handler: s.mux}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.opts.Log.Error("http server failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

func (s *Server) Close() error {
	return s.srv.Shutdown(context.Background())
}
