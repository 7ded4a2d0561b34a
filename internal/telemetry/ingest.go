package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tinytelemetry/logrelay/internal/model"
)

// IngestMetrics counts what the collector sees on the wire.
type IngestMetrics struct {
	entries     metric.Int64Counter
	bytes       metric.Int64Counter
	rejected    metric.Int64Counter
	connections metric.Int64Counter
	snapshots   metric.Int64Counter
}

// NewIngestMetrics creates the ingest instruments on provider. A nil
// provider means the global one, which is a no-op until Init runs.
func NewIngestMetrics(provider metric.MeterProvider) *IngestMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(MeterName)
	return &IngestMetrics{
		entries:     counter(meter, "logrelay.entries.received", "Decoded log entries"),
		bytes:       counter(meter, "logrelay.entries.bytes", "Message bytes of decoded entries"),
		rejected:    counter(meter, "logrelay.frames.rejected", "Frames that failed to decode"),
		connections: counter(meter, "logrelay.connections.accepted", "Accepted shipper connections"),
		snapshots:   counter(meter, "logrelay.snapshots.printed", "Statistics snapshots printed"),
	}
}

func counter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		log.Printf("telemetry: create counter %s: %v", name, err)
	}
	return c
}

// EntryReceived records one decoded entry.
func (m *IngestMetrics) EntryReceived(ctx context.Context, e model.Entry) {
	attrs := metric.WithAttributes(attribute.String("level", e.Level.String()))
	m.entries.Add(ctx, 1, attrs)
	m.bytes.Add(ctx, int64(len(e.Message)), attrs)
}

// FrameRejected records one frame that could not be decoded.
func (m *IngestMetrics) FrameRejected(ctx context.Context) {
	m.rejected.Add(ctx, 1)
}

// ConnectionAccepted records one accepted connection.
func (m *IngestMetrics) ConnectionAccepted(ctx context.Context) {
	m.connections.Add(ctx, 1)
}

// SnapshotPrinted records one printed snapshot and the trigger that caused it.
func (m *IngestMetrics) SnapshotPrinted(ctx context.Context, trigger string) {
	m.snapshots.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}
