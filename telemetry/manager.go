// Package telemetry wires OpenTelemetry traces, metrics and logs for the
// storefront. Exporters are chosen through the standard OTEL_* environment
// variables and default to none.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklogs "go.opentelemetry.io/otel/sdk/log"
	sdkmetrics "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/partsplug/storefront/config"
)

type Manager interface {
	Init(ctx context.Context) error
	Disabled() bool
	LogHandler() slog.Handler
	Shutdown(ctx context.Context) error
}

type manager struct {
	serviceName        string
	serviceVersion     string
	serviceEnvironment string

	cfg config.ConfigurationTelemetry

	disabled bool

	textMap       propagation.TextMapPropagator
	traceExporter sdktrace.SpanExporter
	traceSampler  sdktrace.Sampler
	metricsReader sdkmetrics.Reader
	logsExporter  sdklogs.Exporter

	logHandler slog.Handler
	shutdowns  []func(context.Context) error
}

// NewManager creates the telemetry manager. Init must be called before any
// provider is installed.
func NewManager(ctx context.Context, cfg config.ConfigurationTelemetry, opts ...Option) Manager {
	m := &manager{cfg: cfg}
	if cfg != nil && cfg.DisableOpenTelemetry() {
		m.disabled = true
	}

	for _, opt := range opts {
		opt(ctx, m)
	}

	return m
}

func (m *manager) Disabled() bool {
	return m.disabled
}

// LogHandler is the otelslog bridge handler, nil until Init succeeds.
func (m *manager) LogHandler() slog.Handler {
	return m.logHandler
}

func (m *manager) Init(ctx context.Context) error {
	if m.Disabled() {
		return nil
	}

	res, err := m.resource()
	if err != nil {
		return err
	}

	if m.textMap == nil {
		m.textMap = autoprop.NewTextMapPropagator()
	}

	if m.traceSampler == nil {
		ratio := 1.0
		if m.cfg != nil {
			ratio = m.cfg.SamplingRatio()
		}
		m.traceSampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}

	if m.traceExporter == nil {
		defaultExporter("OTEL_TRACES_EXPORTER")
		if m.traceExporter, err = autoexport.NewSpanExporter(ctx); err != nil {
			return err
		}
	}

	if m.metricsReader == nil {
		defaultExporter("OTEL_METRICS_EXPORTER")
		if m.metricsReader, err = autoexport.NewMetricReader(ctx); err != nil {
			return err
		}
	}

	if m.logsExporter == nil {
		defaultExporter("OTEL_LOGS_EXPORTER")
		if m.logsExporter, err = autoexport.NewLogExporter(ctx); err != nil {
			return err
		}
	}

	m.installProviders(res)
	return nil
}

// Shutdown flushes and stops every provider installed by Init.
func (m *manager) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(m.shutdowns) - 1; i >= 0; i-- {
		errs = append(errs, m.shutdowns[i](ctx))
	}
	m.shutdowns = nil
	return errors.Join(errs...)
}

func defaultExporter(envKey string) {
	if os.Getenv(envKey) == "" {
		_ = os.Setenv(envKey, "none")
	}
}

func (m *manager) resource() (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(m.serviceName),
		semconv.ServiceVersion(m.serviceVersion),
		semconv.DeploymentEnvironmentName(m.serviceEnvironment),
		semconv.ProcessPID(os.Getpid()),
		semconv.ProcessRuntimeName("go"),
		semconv.ProcessRuntimeVersion(runtime.Version()),
	}

	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

func (m *manager) installProviders(res *resource.Resource) {
	otel.SetTextMapPropagator(m.textMap)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(m.traceSampler),
		sdktrace.WithBatcher(m.traceExporter),
		sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	mp := sdkmetrics.NewMeterProvider(
		sdkmetrics.WithReader(m.metricsReader),
		sdkmetrics.WithResource(res),
		sdkmetrics.WithView(Views(InstrumentationName)...),
	)
	otel.SetMeterProvider(mp)

	lp := sdklogs.NewLoggerProvider(
		sdklogs.WithResource(res),
		sdklogs.WithProcessor(sdklogs.NewBatchProcessor(m.logsExporter)),
	)
	global.SetLoggerProvider(lp)

	m.logHandler = otelslog.NewHandler(m.serviceName,
		otelslog.WithSource(true),
		otelslog.WithLoggerProvider(lp),
		otelslog.WithAttributes(res.Attributes()...))

	m.shutdowns = append(m.shutdowns, tp.Shutdown, mp.Shutdown, lp.Shutdown)
}
