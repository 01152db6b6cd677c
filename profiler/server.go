// Package profiler exposes pprof on a dedicated listener, kept apart from
// the public storefront routes.
package profiler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/pitabwire/util"

	"github.com/partsplug/storefront/config"
)

const (
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
)

// Server manages the pprof listener lifecycle.
type Server struct {
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

func NewServer() *Server {
	return &Server{}
}

// Handler serves the pprof index and profiles under /debug/pprof/.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

// StartIfEnabled listens on the configured profiler address when profiling
// is switched on. It returns once the listener is bound.
func (s *Server) StartIfEnabled(ctx context.Context, cfg config.ConfigurationProfiler) error {
	if cfg == nil || !cfg.ProfilerEnabled() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	log := util.Log(ctx).WithField("address", cfg.ProfilerPort())

	ln, err := net.Listen("tcp", cfg.ProfilerPort())
	if err != nil {
		return err
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	srv := s.server
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.WithError(serveErr).Error("pprof server failed")
		}
	}()

	log.Info("pprof server listening")
	return nil
}

// Addr is the bound listener address, empty when not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the pprof listener down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	s.server = nil
	s.listener = nil
	if err != nil {
		util.Log(ctx).WithError(err).Error("failed to shutdown pprof server")
	}
	return err
}

func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}
