package observability

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Outcome labels shared by the catalog instruments.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDeclined  = "declined"
	OutcomeNoOp      = "noop"
	meterName        = "librarymanager"
	metricsNamespace = "librarymanager"
)

// MetricsConfig configures the metrics collector.
type MetricsConfig struct {
	Enabled bool
}

// Metrics records catalog activity. A zero or nil Metrics records nothing.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	registry *promclient.Registry

	mutations  metric.Int64Counter
	refreshes  metric.Int64Counter
	storeCalls metric.Float64Histogram
	bookCount  metric.Int64UpDownCounter

	lastCount atomic.Int64
}

// NewMetrics builds the otel instruments backed by a private Prometheus registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithNamespace(metricsNamespace),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)

	mutations, err := meter.Int64Counter(
		"catalog.mutations",
		metric.WithDescription("Create, update and delete requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mutations counter: %w", err)
	}

	refreshes, err := meter.Int64Counter(
		"catalog.refreshes",
		metric.WithDescription("Catalog re-fetches by outcome"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create refreshes counter: %w", err)
	}

	storeCalls, err := meter.Float64Histogram(
		"store.call.duration",
		metric.WithDescription("Remote store call latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create store latency histogram: %w", err)
	}

	bookCount, err := meter.Int64UpDownCounter(
		"catalog.books",
		metric.WithDescription("Books in the current catalog snapshot"),
		metric.WithUnit("{book}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create book count: %w", err)
	}

	return &Metrics{
		provider:   provider,
		registry:   registry,
		mutations:  mutations,
		refreshes:  refreshes,
		storeCalls: storeCalls,
		bookCount:  bookCount,
	}, nil
}

// Handler serves the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// RecordMutation counts one coordinator operation.
func (m *Metrics) RecordMutation(ctx context.Context, op, outcome string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

// RecordRefresh counts one refresh and tracks the snapshot size on success.
func (m *Metrics) RecordRefresh(ctx context.Context, ok bool, size int) {
	if m == nil || m.refreshes == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	m.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if ok {
		prev := m.lastCount.Swap(int64(size))
		m.bookCount.Add(ctx, int64(size)-prev)
	}
}

// RecordStoreCall observes the latency of one store operation.
func (m *Metrics) RecordStoreCall(ctx context.Context, op string, elapsed time.Duration, err error) {
	if m == nil || m.storeCalls == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.storeCalls.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}
