package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("strips trailing slash", func(t *testing.T) {
		t.Parallel()

		c := NewClient("https://api.example.com/")
		assert.Equal(t, "https://api.example.com", c.BaseURL())
	})

	t.Run("with timeout", func(t *testing.T) {
		t.Parallel()

		c := NewClient("https://api.example.com", WithTimeout(0))
		httpClient, ok := c.http.(*http.Client)
		require.True(t, ok)
		assert.Equal(t, DefaultTimeout, httpClient.Timeout)
	})
}

func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("sets headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(`{"data": []}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		body, err := c.get(context.Background(), "/api/car-brands", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"data": []}`, string(body))
	})

	t.Run("non-200 response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.get(context.Background(), "/api/orders", nil)
		require.Error(t, err)

		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
		assert.Contains(t, httpErr.URL, "/api/orders")
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data": []}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient(server.URL)
		_, err := c.get(ctx, "/api/car-brands", nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		// a closed server produces a transport-level error
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		c := NewClient(server.URL)
		_, err := c.get(context.Background(), "/api/car-brands", nil)
		require.Error(t, err)
	})
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	err := NewHTTPError(404, "https://api.example.com/api/products", "404 Not Found")
	assert.Equal(t, "HTTP 404 for URL https://api.example.com/api/products: 404 Not Found", err.Error())
}
