package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alghazaly/storesync/internal/store"
)

func TestDecodeCollection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr string
	}{
		{
			name: "plain list envelope",
			body: `{"data": [{"id": 1, "name": "Toyota"}, {"id": 2, "name": "Kia"}]}`,
			want: 2,
		},
		{
			name: "nested items envelope",
			body: `{"data": {"items": [{"id": 1, "name": "Toyota"}], "total": 412}}`,
			want: 1,
		},
		{
			name: "empty list",
			body: `{"data": []}`,
			want: 0,
		},
		{
			name:    "missing data field",
			body:    `{"total": 3}`,
			wantErr: "no data field",
		},
		{
			name:    "data object without items",
			body:    `{"data": {"total": 3}}`,
			wantErr: "failed to decode items list",
		},
		{
			name:    "not json",
			body:    `<html>backend error page</html>`,
			wantErr: "failed to decode response envelope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items, err := decodeCollection[store.CarBrand]([]byte(tt.body))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestResourcePaths(t *testing.T) {
	t.Parallel()

	type fetch func(*Client, context.Context) (int, error)

	tests := []struct {
		name     string
		wantPath string
		fetch    fetch
	}{
		{
			name:     "car brands",
			wantPath: "/api/car-brands",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.CarBrands(ctx)
				return len(items), err
			},
		},
		{
			name:     "car models",
			wantPath: "/api/car-models",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.CarModels(ctx)
				return len(items), err
			},
		},
		{
			name:     "product brands",
			wantPath: "/api/brands",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.ProductBrands(ctx)
				return len(items), err
			},
		},
		{
			name:     "categories",
			wantPath: "/api/categories",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.Categories(ctx)
				return len(items), err
			},
		},
		{
			name:     "suppliers",
			wantPath: "/api/suppliers",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.Suppliers(ctx)
				return len(items), err
			},
		},
		{
			name:     "distributors",
			wantPath: "/api/distributors",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.Distributors(ctx)
				return len(items), err
			},
		},
		{
			name:     "orders",
			wantPath: "/api/orders",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.Orders(ctx)
				return len(items), err
			},
		},
		{
			name:     "customers",
			wantPath: "/api/customers",
			fetch: func(c *Client, ctx context.Context) (int, error) {
				items, err := c.Customers(ctx)
				return len(items), err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				_, _ = w.Write([]byte(`{"data": [{"id": 1}]}`))
			}))
			defer server.Close()

			c := NewClient(server.URL)
			count, err := tt.fetch(c, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestProductsPageSize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, strconv.Itoa(ProductPageSize), r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"data": {"items": [{"id": 1, "sku": "A-1"}]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	products, err := c.Products(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "A-1", products[0].SKU)
}
