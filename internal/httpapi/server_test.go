package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alghazaly/storesync/internal/events"
	"github.com/alghazaly/storesync/internal/store"
)

type fakeSyncSource struct {
	online       bool
	status       store.Status
	syncError    *string
	lastSyncTime *time.Time
}

func (f *fakeSyncSource) Online() bool             { return f.online }
func (f *fakeSyncSource) SyncStatus() store.Status { return f.status }
func (f *fakeSyncSource) SyncError() *string       { return f.syncError }
func (f *fakeSyncSource) LastSyncTime() *time.Time { return f.lastSyncTime }

type fakeChannelSource struct {
	state     events.State
	connected bool
	attempts  int
}

func (f *fakeChannelSource) State() events.State    { return f.state }
func (f *fakeChannelSource) IsConnected() bool      { return f.connected }
func (f *fakeChannelSource) ReconnectAttempts() int { return f.attempts }

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	router := NewRouter(&fakeSyncSource{}, &fakeChannelSource{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("healthy state", func(t *testing.T) {
		t.Parallel()

		lastSync := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		router := NewRouter(
			&fakeSyncSource{online: true, status: store.StatusSuccess, lastSyncTime: &lastSync},
			&fakeChannelSource{state: events.StateConnected, connected: true},
		)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Online)
		assert.Equal(t, store.StatusSuccess, resp.SyncStatus)
		assert.Nil(t, resp.SyncError)
		require.NotNil(t, resp.LastSyncTime)
		assert.Equal(t, lastSync, *resp.LastSyncTime)
		assert.Equal(t, events.StateConnected, resp.ChannelState)
		assert.True(t, resp.ChannelConnected)
	})

	t.Run("degraded state", func(t *testing.T) {
		t.Parallel()

		message := "backend unreachable"
		router := NewRouter(
			&fakeSyncSource{online: true, status: store.StatusError, syncError: &message},
			&fakeChannelSource{state: events.StateGaveUp, attempts: 5},
		)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, store.StatusError, resp.SyncStatus)
		require.NotNil(t, resp.SyncError)
		assert.Equal(t, message, *resp.SyncError)
		assert.Equal(t, events.StateGaveUp, resp.ChannelState)
		assert.False(t, resp.ChannelConnected)
		assert.Equal(t, 5, resp.ReconnectAttempts)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "storesync_test_gauge"})
	require.NoError(t, registry.Register(gauge))
	gauge.Set(7)

	router := NewRouter(&fakeSyncSource{}, &fakeChannelSource{}, WithGatherer(registry))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storesync_test_gauge 7")
}

func TestMiddlewares(t *testing.T) {
	t.Parallel()

	var called bool
	marker := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}

	router := NewRouter(&fakeSyncSource{}, &fakeChannelSource{},
		WithMiddlewares(marker, LoggingMiddleware))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
