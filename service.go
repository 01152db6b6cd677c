// Package storefront assembles the storefront HTTP service: configuration,
// logging, telemetry, the worker pool and the page routes.
package storefront

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	ghandler "github.com/gorilla/handlers"
	"github.com/pitabwire/util"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/localization"
	"github.com/partsplug/storefront/profiler"
	"github.com/partsplug/storefront/telemetry"
	"github.com/partsplug/storefront/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "storefront/" + string(c)
}

const (
	ctxKeyService = contextKey("serviceKey")

	defaultHTTPReadTimeoutSeconds  = 15
	defaultHTTPWriteTimeoutSeconds = 15
	defaultHTTPIdleTimeoutSeconds  = 60
	defaultShutdownTimeoutSeconds  = 10
)

// Service holds the application components for the lifetime of the process.
// It is pushed into and pulled from contexts so handlers can reach it.
type Service struct {
	name        string
	version     string
	environment string
	logger      *util.LogEntry

	configuration any

	handler         http.Handler
	routes          *RouteRegistry
	healthCheckers  []Checker
	healthCheckPath string
	server          *http.Server
	profiler        *profiler.Server

	logOptions []util.Option

	workerPoolManager   workerpool.Manager
	workerPoolOptions   []workerpool.Option
	telemetryManager    telemetry.Manager
	localizationManager localization.Manager

	cancelFunc   context.CancelFunc
	cleanup      func(ctx context.Context)
	startupError error

	errorChannelMutex  sync.Mutex
	errorChannel       chan error
	errorChannelClosed bool

	startOnce sync.Once
	stopMutex sync.Mutex
	stopped   bool
}

type Option func(ctx context.Context, service *Service)

// NewService creates a Service on a background context.
func NewService(opts ...Option) (context.Context, *Service) {
	return NewServiceWithContext(context.Background(), opts...)
}

// NewServiceWithContext creates a Service whose context is cancelled on
// SIGHUP, SIGINT, SIGTERM or SIGQUIT. Configuration defaults are read from
// the environment and may be replaced with WithConfig.
func NewServiceWithContext(ctx context.Context, opts ...Option) (context.Context, *Service) {
	ctx, signalCancelFunc := signal.NotifyContext(ctx,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	service := &Service{
		name:         "storefront",
		cancelFunc:   signalCancelFunc,
		errorChannel: make(chan error, 1),
		logger:       defaultLogger,
		routes:       NewRouteRegistry(),
		profiler:     profiler.NewServer(),
	}

	hasConfig := false
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		service.Init(ctx, opt)
		if service.configuration != nil {
			hasConfig = true
		}
	}

	if !hasConfig {
		defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
		if err != nil {
			defaultLogger.WithError(err).Warn("could not read configuration from environment")
		}
		WithConfig(&defaultCfg)(ctx, service)
	}

	if service.workerPoolManager == nil {
		WithWorkerPool()(ctx, service)
	}

	ctx = SvcToContext(ctx, service)
	ctx = config.ToContext(ctx, service.Config())
	ctx = util.ContextWithLogger(ctx, service.logger)
	return ctx, service
}

// SvcToContext pushes a service instance into the supplied context.
func SvcToContext(ctx context.Context, service *Service) context.Context {
	return context.WithValue(ctx, ctxKeyService, service)
}

// Svc obtains the service propagated through the context, if any.
func Svc(ctx context.Context) *Service {
	service, ok := ctx.Value(ctxKeyService).(*Service)
	if !ok {
		return nil
	}
	return service
}

func (s *Service) Name() string {
	return s.name
}

// WithName specifies the name the service will utilize.
func WithName(name string) Option {
	return func(_ context.Context, s *Service) {
		s.name = name
	}
}

func (s *Service) Version() string {
	return s.version
}

// WithVersion specifies the release version of the service.
func WithVersion(version string) Option {
	return func(_ context.Context, s *Service) {
		s.version = version
	}
}

func (s *Service) Environment() string {
	return s.environment
}

// WithEnvironment specifies the runtime environment of the service.
func WithEnvironment(environment string) Option {
	return func(_ context.Context, s *Service) {
		s.environment = environment
	}
}

// WithHTTPHandler sets the application handler served behind the health endpoint.
func WithHTTPHandler(h http.Handler) Option {
	return func(_ context.Context, s *Service) {
		s.handler = h
	}
}

// Routes is the registry page routes are mounted on when no explicit
// handler was configured.
func (s *Service) Routes() *RouteRegistry {
	return s.routes
}

// H returns the fully assembled handler: health endpoint, application routes,
// CORS and server instrumentation.
func (s *Service) H() http.Handler {
	s.startOnce.Do(func() {
		if s.healthCheckPath == "" || s.healthCheckPath == "/" {
			s.healthCheckPath = defaultHealthCheckPath
		}
		s.handler = otelhttp.NewHandler(s.applyCORSIfEnabled(s.createAndConfigureMux()), s.Name())
	})
	return s.handler
}

// Init applies options to an already constructed service.
func (s *Service) Init(ctx context.Context, opts ...Option) {
	for _, opt := range opts {
		opt(ctx, s)
	}
}

// AddCleanupMethod adds functions run just before the service stops.
// The most recently added runs first.
func (s *Service) AddCleanupMethod(f func(ctx context.Context)) {
	s.stopMutex.Lock()
	defer s.stopMutex.Unlock()

	if s.cleanup == nil {
		s.cleanup = f
		return
	}

	old := s.cleanup
	s.cleanup = func(ctx context.Context) { f(ctx); old(ctx) }
}

// Run serves HTTP on address until the context ends or the server fails.
// An empty address falls back to the configured port.
func (s *Service) Run(ctx context.Context, address string) error {
	if s.startupError != nil {
		return s.startupError
	}

	if cfg, ok := s.Config().(config.ConfigurationProfiler); ok {
		if err := s.profiler.StartIfEnabled(ctx, cfg); err != nil {
			return err
		}
	}

	go func(ctx context.Context) {
		srvErr := s.initServer(ctx, address)
		s.sendStopError(ctx, srvErr)
	}(ctx)

	select {
	case <-ctx.Done():
		s.Stop(context.WithoutCancel(ctx))
		return ctx.Err()
	case err0 := <-s.errorChannel:
		if err0 != nil {
			s.Log(ctx).WithError(err0).Error("system exit in error")
			s.Stop(ctx)
		} else {
			s.Log(ctx).Debug("system exit")
		}
		return err0
	}
}

func (s *Service) determineHTTPPort(currentPort string) string {
	if currentPort != "" {
		return currentPort
	}

	cfg, ok := s.Config().(config.ConfigurationPorts)
	if !ok {
		return ":8080"
	}
	return cfg.HTTPPort()
}

func (s *Service) createAndConfigureMux() *http.ServeMux {
	mux := http.NewServeMux()

	applicationHandler := s.handler
	if applicationHandler == nil {
		applicationHandler = s.routes
	}

	mux.HandleFunc(s.healthCheckPath, s.HandleHealth)
	mux.Handle("/", applicationHandler)
	return mux
}

func (s *Service) applyCORSIfEnabled(muxToWrap http.Handler) http.Handler {
	cfg, ok := s.Config().(config.ConfigurationCORS)
	if !ok || !cfg.IsCORSEnabled() {
		return muxToWrap
	}

	return ghandler.CORS(
		ghandler.AllowedHeaders(cfg.GetCORSAllowedHeaders()),
		ghandler.AllowedOrigins(cfg.GetCORSAllowedOrigins()),
		ghandler.AllowedMethods(cfg.GetCORSAllowedMethods()),
		ghandler.MaxAge(cfg.GetCORSMaxAge()),
	)(muxToWrap)
}

func (s *Service) initServer(ctx context.Context, address string) error {
	handler := s.H()
	address = s.determineHTTPPort(address)

	srv := &http.Server{
		Addr:    address,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadTimeout:  defaultHTTPReadTimeoutSeconds * time.Second,
		WriteTimeout: defaultHTTPWriteTimeoutSeconds * time.Second,
		IdleTimeout:  defaultHTTPIdleTimeoutSeconds * time.Second,
	}

	s.stopMutex.Lock()
	s.server = srv
	s.stopMutex.Unlock()

	if ctx.Err() != nil {
		return nil
	}

	s.Log(ctx).WithField("address", address).Info("http server listening")

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop runs the cleanup methods, drains in-flight requests and releases the
// worker pool and telemetry providers. Calls after the first are no-ops.
func (s *Service) Stop(ctx context.Context) {
	if !s.stopMutex.TryLock() {
		return
	}
	defer s.stopMutex.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true

	log := s.Log(ctx)
	log.Info("service stopping")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	if s.cleanup != nil {
		s.cleanup(ctx)
	}

	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeoutSeconds*time.Second)
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http server did not shut down cleanly")
		}
		cancel()
	}

	if err := s.profiler.Stop(ctx); err != nil {
		log.WithError(err).Warn("pprof server did not shut down cleanly")
	}

	if s.workerPoolManager != nil {
		log.Debug("shutting down worker pool")
		if err := s.workerPoolManager.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("worker pool did not shut down cleanly")
		}
	}

	if s.telemetryManager != nil {
		if err := s.telemetryManager.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.WithError(err).Warn("telemetry did not shut down cleanly")
		}
	}

	s.errorChannelMutex.Lock()
	defer s.errorChannelMutex.Unlock()
	if !s.errorChannelClosed {
		s.errorChannelClosed = true
		close(s.errorChannel)
	}
}

func (s *Service) sendStopError(ctx context.Context, err error) {
	s.errorChannelMutex.Lock()
	defer s.errorChannelMutex.Unlock()

	if s.errorChannelClosed {
		return
	}

	select {
	case <-ctx.Done():
	case s.errorChannel <- err:
	default:
	}
}
