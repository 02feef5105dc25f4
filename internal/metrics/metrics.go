package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const exportInterval = 10 * time.Second

// durationBuckets are request latency bounds in milliseconds.
var durationBuckets = []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000}

type Options struct {
	ServiceName string
	Endpoint    string
	Headers     string
	Insecure    bool
}

type AppMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	OrdersCreated      metric.Int64Counter
	OrderStatusChanges metric.Int64Counter
	RevenueTotal       metric.Int64Counter
	ReviewsSubmitted   metric.Int64Counter
	VouchersApplied    metric.Int64Counter
}

// Init builds the meter provider. Without an endpoint the provider has no reader and
// instruments record into nothing.
func Init(ctx context.Context, opts Options) (*AppMetrics, *sdkmetric.MeterProvider, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(semconv.ServiceName(opts.ServiceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create resource: %w", err)
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if opts.Endpoint != "" {
		exporterOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(opts.Endpoint),
			otlpmetrichttp.WithURLPath("/v1/metrics"),
		}
		if headers := parseHeaders(opts.Headers); len(headers) > 0 {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(headers))
		}
		if opts.Insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}

		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)),
		))
	}

	provider := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(provider)

	m, err := New(provider.Meter(opts.ServiceName))
	if err != nil {
		return nil, nil, err
	}
	return m, provider, nil
}

// New registers every storefront instrument on meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var (
		m   AppMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("http requests counter: %w", err)
	}
	if m.HTTPRequestsErrors, err = meter.Int64Counter("http.server.request.error.count",
		metric.WithDescription("Total number of HTTP error requests"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("http errors counter: %w", err)
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(durationBuckets...)); err != nil {
		return nil, fmt.Errorf("http duration histogram: %w", err)
	}
	if m.OrdersCreated, err = meter.Int64Counter("orders_created_total",
		metric.WithDescription("Total number of orders created"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("orders counter: %w", err)
	}
	if m.OrderStatusChanges, err = meter.Int64Counter("order_status_changes_total",
		metric.WithDescription("Order status transitions"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("order status counter: %w", err)
	}
	if m.RevenueTotal, err = meter.Int64Counter("order_value_total",
		metric.WithDescription("Sum of placed order totals"), metric.WithUnit("VND")); err != nil {
		return nil, fmt.Errorf("revenue counter: %w", err)
	}
	if m.ReviewsSubmitted, err = meter.Int64Counter("reviews_submitted_total",
		metric.WithDescription("Total number of reviews submitted"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("reviews counter: %w", err)
	}
	if m.VouchersApplied, err = meter.Int64Counter("vouchers_applied_total",
		metric.WithDescription("Successful voucher applications"), metric.WithUnit("1")); err != nil {
		return nil, fmt.Errorf("vouchers counter: %w", err)
	}

	return &m, nil
}

func (m *AppMetrics) RecordRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	if status >= 500 {
		m.HTTPRequestsErrors.Add(ctx, 1, attrs)
	}
	m.HTTPRequestDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}

func (m *AppMetrics) OrderPlaced(ctx context.Context, paymentMethod string, total int64) {
	attrs := metric.WithAttributes(attribute.String("payment.method", paymentMethod))
	m.OrdersCreated.Add(ctx, 1, attrs)
	m.RevenueTotal.Add(ctx, total, attrs)
}

func (m *AppMetrics) OrderStatusChanged(ctx context.Context, status string) {
	m.OrderStatusChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", status)))
}

func (m *AppMetrics) ReviewSubmitted(ctx context.Context, rating int) {
	m.ReviewsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.Int("review.rating", rating)))
}

func (m *AppMetrics) VoucherApplied(ctx context.Context, code string) {
	m.VouchersApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("voucher.code", code)))
}

// parseHeaders reads "k1=v1,k2=v2".
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
