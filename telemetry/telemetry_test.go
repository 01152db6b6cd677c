package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/partsplug/storefront/config"
	"github.com/partsplug/storefront/telemetry"
)

type stringer string

func (s stringer) String() string { return string(s) }

// retainingExporter keeps exported spans across provider shutdown.
type retainingExporter struct {
	*tracetest.InMemoryExporter
}

func (retainingExporter) Shutdown(context.Context) error { return nil }

type TelemetryTestSuite struct {
	suite.Suite

	reader    *sdkmetric.ManualReader
	spans     retainingExporter
	telemetry telemetry.Manager
}

func TestTelemetrySuite(t *testing.T) {
	suite.Run(t, new(TelemetryTestSuite))
}

func (s *TelemetryTestSuite) SetupTest() {
	ctx := context.Background()
	s.reader = sdkmetric.NewManualReader()
	s.spans = retainingExporter{tracetest.NewInMemoryExporter()}

	s.telemetry = telemetry.NewManager(ctx, &config.ConfigurationDefault{OpenTelemetryTraceRatio: 1},
		telemetry.WithServiceName("storefront-test"),
		telemetry.WithServiceVersion("v0.0.1"),
		telemetry.WithServiceEnvironment("test"),
		telemetry.WithMetricsReader(s.reader),
		telemetry.WithTraceExporter(s.spans),
	)
	s.Require().False(s.telemetry.Disabled())
	s.Require().NoError(s.telemetry.Init(ctx))
	s.NotNil(s.telemetry.LogHandler())
}

func (s *TelemetryTestSuite) TearDownTest() {
	s.NoError(s.telemetry.Shutdown(context.Background()))
}

func (s *TelemetryTestSuite) collect() map[string]metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	s.Require().NoError(s.reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(m metricdata.Metrics, key attribute.Key, value string) int64 {
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return -1
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, found := dp.Attributes.Value(key); found && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func (s *TelemetryTestSuite) TestMetricsCounters() {
	ctx := context.Background()
	metrics := telemetry.NewMetrics()

	metrics.PageRendered(ctx, stringer("standard"))
	metrics.PageRendered(ctx, stringer("standard"))
	metrics.PageRendered(ctx, stringer("auth_styled"))
	metrics.NotFound(ctx, "invalid_locale")
	metrics.CategoryFetchFailed(ctx)

	collected := s.collect()

	pages, ok := collected["storefront/pages_rendered"]
	s.Require().True(ok)
	s.Equal(int64(2), sumFor(pages, telemetry.AttrChromeKey, "standard"))
	s.Equal(int64(1), sumFor(pages, telemetry.AttrChromeKey, "auth_styled"))

	notFound, ok := collected["storefront/not_found"]
	s.Require().True(ok)
	s.Equal(int64(1), sumFor(notFound, telemetry.AttrReasonKey, "invalid_locale"))

	_, ok = collected["storefront/category_fetch_failures"]
	s.True(ok)
}

func (s *TelemetryTestSuite) TestTracerRecordsSpansAndLatency() {
	tracer := telemetry.NewTracer()

	ctx, span := tracer.Start(context.Background(), "export")
	tracer.End(ctx, span, nil)

	ctx, span = tracer.Start(context.Background(), "categories")
	tracer.End(ctx, span, errors.New("upstream down"))

	latency, ok := s.collect()["storefront/latency"]
	s.Require().True(ok)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	s.Require().True(ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	s.Equal(uint64(2), count)

	s.Require().NoError(s.telemetry.Shutdown(context.Background()))
	spans := s.spans.GetSpans()
	s.Require().Len(spans, 2)
	s.Equal("export", spans[0].Name)
	s.Equal("categories", spans[1].Name)
}

func (s *TelemetryTestSuite) TestErrorCode() {
	s.Equal("ok", telemetry.ErrorCode(nil))
	s.Equal("canceled", telemetry.ErrorCode(context.Canceled))
	s.Equal("deadline exceeded", telemetry.ErrorCode(context.DeadlineExceeded))
	s.Equal("err", telemetry.ErrorCode(errors.New("x")))
}

func TestDisabledManager(t *testing.T) {
	ctx := context.Background()
	m := telemetry.NewManager(ctx, &config.ConfigurationDefault{OpenTelemetryDisable: true})
	require.True(t, m.Disabled())
	require.NoError(t, m.Init(ctx))
	require.Nil(t, m.LogHandler(), "disabled telemetry installs no log handler")
	require.NoError(t, m.Shutdown(ctx))
}
