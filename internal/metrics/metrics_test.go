package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecorders(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.OrderPlaced(ctx, "cod", 130_000)
	m.OrderPlaced(ctx, "momo", 70_000)
	m.ReviewSubmitted(ctx, 5)
	m.VoucherApplied(ctx, "SALE20")
	m.RecordRequest(ctx, "GET", "/products", 200, 12*time.Millisecond)
	m.RecordRequest(ctx, "POST", "/checkout", 500, 40*time.Millisecond)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["orders_created_total"]))
	assert.Equal(t, int64(200_000), sumOf(t, got["order_value_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["reviews_submitted_total"]))
	assert.Equal(t, int64(1), sumOf(t, got["vouchers_applied_total"]))
	assert.Equal(t, int64(2), sumOf(t, got["http.server.request.count"]))
	assert.Equal(t, int64(1), sumOf(t, got["http.server.request.error.count"]))
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, parseHeaders(" a = 1 ,b=x=y,broken"))
	assert.Empty(t, parseHeaders(""))
}

func TestInitWithoutEndpoint(t *testing.T) {
	m, provider, err := Init(context.Background(), Options{ServiceName: "storefront-test"})
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NoError(t, provider.Shutdown(context.Background()))
}
