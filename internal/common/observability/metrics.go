package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter provider. Instruments are
// exported through the Prometheus registry served on /metrics.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	httpRequests  otelmetric.Int64Counter
	httpDuration  otelmetric.Float64Histogram
}

// New registers the exporter with the default Prometheus registerer.
func New(serviceName string) (*Observability, error) {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
}

func NewWithRegisterer(serviceName string, reg promclient.Registerer) (*Observability, error) {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	o := &Observability{meterProvider: provider, meter: meter}

	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return nil, err
	}
	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if o.httpRequests, err = meter.Int64Counter(
		"http.server.requests",
		otelmetric.WithDescription("Number of HTTP requests served"),
	); err != nil {
		return nil, err
	}
	if o.httpDuration, err = meter.Float64Histogram(
		"http.server.duration",
		otelmetric.WithDescription("HTTP request duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// Middleware counts requests and records their latency by route pattern.
func (o *Observability) Middleware(next http.Handler) http.Handler {
	if o == nil || o.httpRequests == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		attrs := otelmetric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(rec.status)),
		)
		o.httpRequests.Add(r.Context(), 1, attrs)
		o.httpDuration.Record(r.Context(), float64(time.Since(start).Milliseconds()), attrs)
	})
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
