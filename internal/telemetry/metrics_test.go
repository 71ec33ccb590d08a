package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewSyncMetrics(t *testing.T) {
	t.Parallel()

	t.Run("nil provider yields nil metrics", func(t *testing.T) {
		t.Parallel()

		m, err := NewSyncMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("noop provider", func(t *testing.T) {
		t.Parallel()

		m, err := NewSyncMetrics(noop.NewMeterProvider())
		require.NoError(t, err)
		require.NotNil(t, m)

		// recording must not panic
		m.RecordCycleDuration(context.Background(), time.Second, true)
		m.RecordCollectionSize(context.Background(), "products", 412)
	})
}

func TestNewChannelMetrics(t *testing.T) {
	t.Parallel()

	t.Run("nil provider yields nil metrics", func(t *testing.T) {
		t.Parallel()

		m, err := NewChannelMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("noop provider", func(t *testing.T) {
		t.Parallel()

		m, err := NewChannelMetrics(noop.NewMeterProvider())
		require.NoError(t, err)
		require.NotNil(t, m)

		m.RecordReconnect(context.Background())
		m.RecordMessage(context.Background(), "notification")
	})
}

func TestNilMetricsAreNoOps(t *testing.T) {
	t.Parallel()

	// the orchestrator and the channel manager call these on nil receivers
	// when metrics are disabled
	var sm *SyncMetrics
	sm.RecordCycleDuration(context.Background(), time.Second, false)
	sm.RecordCollectionSize(context.Background(), "orders", 1)

	var cm *ChannelMetrics
	cm.RecordReconnect(context.Background())
	cm.RecordMessage(context.Background(), "sync")
}

func TestNewMeterProvider(t *testing.T) {
	t.Parallel()

	t.Run("disabled returns a noop provider", func(t *testing.T) {
		t.Parallel()

		provider, shutdown, err := NewMeterProvider(context.Background(),
			WithMetricsEnabled(false))
		require.NoError(t, err)
		require.NotNil(t, provider)
		require.NoError(t, shutdown(context.Background()))
	})

	t.Run("enabled returns a working provider", func(t *testing.T) {
		t.Parallel()

		provider, shutdown, err := NewMeterProvider(context.Background(),
			WithMetricsEnabled(true),
			WithMeterServiceName("storesync-test"),
			WithMeterServiceVersion("0.0.1"),
			WithPrometheusRegisterer(prometheus.NewRegistry()),
		)
		require.NoError(t, err)
		require.NotNil(t, provider)

		m, err := NewSyncMetrics(provider)
		require.NoError(t, err)
		m.RecordCycleDuration(context.Background(), 2*time.Second, true)

		require.NoError(t, shutdown(context.Background()))
	})
}
