// Package telemetry provides OpenTelemetry instrumentation for the sync
// engine.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/alghazaly/storesync/sync"

	// ChannelMetricsMeterName is the name used for the event channel metrics meter
	ChannelMetricsMeterName = "github.com/alghazaly/storesync/events"
)

// SyncMetrics holds the OpenTelemetry instruments for sync cycle metrics
type SyncMetrics struct {
	cycleDuration    metric.Float64Histogram
	collectionsTotal metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	cycleDuration, err := meter.Float64Histogram(
		"storesync_cycle_duration_seconds",
		metric.WithDescription("Duration of sync cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	collectionsTotal, err := meter.Int64Gauge(
		"storesync_collection_items_total",
		metric.WithDescription("Number of items in each synced collection"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycleDuration:    cycleDuration,
		collectionsTotal: collectionsTotal,
	}, nil
}

// RecordCycleDuration records the duration and outcome of one sync cycle
func (m *SyncMetrics) RecordCycleDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.cycleDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}

	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordCollectionSize records the current item count of a synced collection
func (m *SyncMetrics) RecordCollectionSize(ctx context.Context, collection string, count int64) {
	if m == nil || m.collectionsTotal == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("collection", collection),
	}

	m.collectionsTotal.Record(ctx, count, metric.WithAttributes(attrs...))
}

// ChannelMetrics holds the OpenTelemetry instruments for event channel metrics
type ChannelMetrics struct {
	reconnects metric.Int64Counter
	messages   metric.Int64Counter
}

// NewChannelMetrics creates a new ChannelMetrics instance with the given
// meter provider. If provider is nil, it returns nil (no-op metrics).
func NewChannelMetrics(provider metric.MeterProvider) (*ChannelMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ChannelMetricsMeterName)

	reconnects, err := meter.Int64Counter(
		"storesync_channel_reconnects_total",
		metric.WithDescription("Number of scheduled event channel reconnection attempts"),
	)
	if err != nil {
		return nil, err
	}

	messages, err := meter.Int64Counter(
		"storesync_channel_messages_total",
		metric.WithDescription("Number of inbound event channel messages by type"),
	)
	if err != nil {
		return nil, err
	}

	return &ChannelMetrics{
		reconnects: reconnects,
		messages:   messages,
	}, nil
}

// RecordReconnect counts one scheduled reconnection attempt
func (m *ChannelMetrics) RecordReconnect(ctx context.Context) {
	if m == nil || m.reconnects == nil {
		return
	}
	m.reconnects.Add(ctx, 1)
}

// RecordMessage counts one inbound message of the given type
func (m *ChannelMetrics) RecordMessage(ctx context.Context, messageType string) {
	if m == nil || m.messages == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("type", messageType),
	}

	m.messages.Add(ctx, 1, metric.WithAttributes(attrs...))
}
