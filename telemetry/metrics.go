package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Units follow UCUM, http://unitsofmeasure.org/ucum.html.
const (
	unitDimensionless = "1"
	unitMilliseconds  = "ms"
)

const (
	latencySuffix      = "/latency"
	pagesRenderedName  = "/pages_rendered"
	notFoundName       = "/not_found"
	categoryErrorsName = "/category_fetch_failures"
)

//nolint:gochecknoglobals // histogram boundaries are shared by every view
var defaultMillisecondsBoundaries = []float64{
	0, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000,
}

// Views shapes the latency histogram of pkg and derives a call counter
// from it.
func Views(pkg string) []sdkmetric.View {
	return []sdkmetric.View{
		func(inst sdkmetric.Instrument) (sdkmetric.Stream, bool) {
			if inst.Kind != sdkmetric.InstrumentKindHistogram || inst.Name != pkg+latencySuffix {
				return sdkmetric.Stream{}, false
			}
			return sdkmetric.Stream{
				Name:        inst.Name,
				Description: "Distribution of operation latency.",
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: defaultMillisecondsBoundaries,
				},
				AttributeFilter: func(kv attribute.KeyValue) bool {
					return kv.Key == AttrOperationKey || kv.Key == AttrStatusKey
				},
			}, true
		},
	}
}

// LatencyMeasure returns the latency histogram of pkg.
func LatencyMeasure(pkg string) metric.Float64Histogram {
	m, err := otel.Meter(pkg).Float64Histogram(
		pkg+latencySuffix,
		metric.WithDescription("Latency distribution of operations"),
		metric.WithUnit(unitMilliseconds),
	)
	if err != nil {
		// only invalid instrument names fail here
		panic(fmt.Sprintf("instrument=%q: %v", pkg+latencySuffix, err))
	}
	return m
}

// DimensionlessMeasure creates a counter named pkg+meterName.
func DimensionlessMeasure(pkg string, meterName string, description string) metric.Int64Counter {
	m, err := otel.Meter(pkg).Int64Counter(
		pkg+meterName,
		metric.WithDescription(description),
		metric.WithUnit(unitDimensionless),
	)
	if err != nil {
		panic(fmt.Sprintf("instrument=%q: %v", pkg+meterName, err))
	}
	return m
}

// Metrics holds the counters the rendering host reports to.
type Metrics struct {
	pagesRendered  metric.Int64Counter
	notFound       metric.Int64Counter
	categoryErrors metric.Int64Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		pagesRendered: DimensionlessMeasure(InstrumentationName, pagesRenderedName,
			"Pages rendered, by chrome mode."),
		notFound: DimensionlessMeasure(InstrumentationName, notFoundName,
			"Requests answered with not found, by reason."),
		categoryErrors: DimensionlessMeasure(InstrumentationName, categoryErrorsName,
			"Category list fetches that failed."),
	}
}

// PageRendered counts a rendered page under its chrome mode.
func (m *Metrics) PageRendered(ctx context.Context, mode fmt.Stringer) {
	m.pagesRendered.Add(ctx, 1, metric.WithAttributes(AttrChromeKey.String(mode.String())))
}

// NotFound counts a not-found outcome such as "invalid_locale" or "unknown_route".
func (m *Metrics) NotFound(ctx context.Context, reason string) {
	m.notFound.Add(ctx, 1, metric.WithAttributes(AttrReasonKey.String(reason)))
}

func (m *Metrics) CategoryFetchFailed(ctx context.Context) {
	m.categoryErrors.Add(ctx, 1)
}
