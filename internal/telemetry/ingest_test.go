package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/tinytelemetry/logrelay/internal/model"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out
}

func TestIngestMetricsCounters(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewIngestMetrics(provider)
	ctx := context.Background()

	m.EntryReceived(ctx, model.Entry{Message: "hello", Level: model.LevelWarn, Time: 1})
	m.EntryReceived(ctx, model.Entry{Message: "hi", Level: model.LevelInfo, Time: 2})
	m.FrameRejected(ctx)
	m.ConnectionAccepted(ctx)
	m.SnapshotPrinted(ctx, "count")
	m.SnapshotPrinted(ctx, "timeout")

	got := collectSums(t, reader)
	want := map[string]int64{
		"logrelay.entries.received":     2,
		"logrelay.entries.bytes":        7,
		"logrelay.frames.rejected":      1,
		"logrelay.connections.accepted": 1,
		"logrelay.snapshots.printed":    2,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %d, want %d", name, got[name], v)
		}
	}
}

func TestNewIngestMetricsGlobalNoop(t *testing.T) {
	t.Parallel()

	m := NewIngestMetrics(nil)
	m.EntryReceived(context.Background(), model.Entry{Message: "x", Level: model.LevelError})
	m.FrameRejected(context.Background())
}
