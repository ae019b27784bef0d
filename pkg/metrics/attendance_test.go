package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordSubmission(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	ctx := context.Background()
	RecordSubmission(ctx, "accepted", "", 5*time.Millisecond)
	RecordSubmission(ctx, "refused", "duplicate", time.Millisecond)
	RecordDistance(ctx, "present", 12.5)
	RecordPublishError(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["attendance_submissions_total"])
	assert.True(t, names["attendance_submit_duration_seconds"])
	assert.True(t, names["attendance_distance_meters"])
	assert.True(t, names["attendance_event_publish_errors_total"])
}
