package storefront

import (
	"context"
	"errors"
	"io"
	"net/http"
)

const defaultHealthCheckPath = "/healthz"

var ErrHealthCheckFailed = errors.New("health check failed")

// Checker wraps the CheckHealth method.
//
// CheckHealth returns nil if the resource is healthy, or a non-nil
// error if it is not. It must be safe to call from multiple goroutines.
type Checker interface {
	CheckHealth() error
}

// CheckerFunc is an adapter to allow ordinary functions as health checks.
type CheckerFunc func() error

// CheckHealth calls f().
func (f CheckerFunc) CheckHealth() error {
	return f()
}

// WithHealthCheckPath sets where the health endpoint is mounted.
func WithHealthCheckPath(path string) Option {
	return func(_ context.Context, s *Service) {
		s.healthCheckPath = path
	}
}

func (s *Service) HealthCheckers() []Checker {
	return s.healthCheckers
}

// AddHealthCheck registers a checker consulted on every health request.
func (s *Service) AddHealthCheck(checker Checker) {
	s.healthCheckers = append(s.healthCheckers, checker)
}

// HandleHealth returns 200 if every checker passes, 500 otherwise.
func (s *Service) HandleHealth(w http.ResponseWriter, r *http.Request) {
	for _, c := range s.healthCheckers {
		if err := c.CheckHealth(); err != nil {
			s.Log(r.Context()).WithError(errors.Join(ErrHealthCheckFailed, err)).Warn("service unhealthy")
			writeUnhealthy(w)
			return
		}
	}
	writeHealthy(w)
}

func writeHeaders(statusLen string, w http.ResponseWriter) {
	w.Header().Set("Content-Length", statusLen)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

func writeUnhealthy(w http.ResponseWriter) {
	const (
		status    = "unhealthy"
		statusLen = "9"
	)

	writeHeaders(statusLen, w)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, status)
}

func writeHealthy(w http.ResponseWriter) {
	const (
		status    = "ok"
		statusLen = "2"
	)

	writeHeaders(statusLen, w)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, status)
}
