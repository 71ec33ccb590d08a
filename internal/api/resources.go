package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alghazaly/storesync/internal/store"
)

// ProductPageSize is the fixed page-size cap applied to product fetches
const ProductPageSize = 1000

// The backend wraps every collection in a data envelope. Two shapes exist:
// {"data": [...]} for plain lists and {"data": {"items": [...]}} for
// paginated resources. Both are accepted for every resource.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type itemsEnvelope struct {
	Items json.RawMessage `json:"items"`
}

func decodeCollection[T any](body []byte) ([]T, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("response has no data field")
	}

	var items []T
	if err := json.Unmarshal(env.Data, &items); err == nil {
		return items, nil
	}

	var nested itemsEnvelope
	if err := json.Unmarshal(env.Data, &nested); err != nil {
		return nil, fmt.Errorf("failed to decode nested data object: %w", err)
	}
	if err := json.Unmarshal(nested.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items list: %w", err)
	}
	return items, nil
}

// CarBrands fetches the car brand collection
func (c *Client) CarBrands(ctx context.Context) ([]store.CarBrand, error) {
	body, err := c.get(ctx, "/api/car-brands", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.CarBrand](body)
}

// CarModels fetches the car model collection
func (c *Client) CarModels(ctx context.Context) ([]store.CarModel, error) {
	body, err := c.get(ctx, "/api/car-models", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.CarModel](body)
}

// ProductBrands fetches the product brand collection
func (c *Client) ProductBrands(ctx context.Context) ([]store.ProductBrand, error) {
	body, err := c.get(ctx, "/api/brands", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.ProductBrand](body)
}

// Categories fetches the category collection
func (c *Client) Categories(ctx context.Context) ([]store.Category, error) {
	body, err := c.get(ctx, "/api/categories", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.Category](body)
}

// Products fetches the product collection, capped at ProductPageSize entries
func (c *Client) Products(ctx context.Context) ([]store.Product, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(ProductPageSize))
	body, err := c.get(ctx, "/api/products", query)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.Product](body)
}

// Suppliers fetches the supplier collection (privileged)
func (c *Client) Suppliers(ctx context.Context) ([]store.Supplier, error) {
	body, err := c.get(ctx, "/api/suppliers", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.Supplier](body)
}

// Distributors fetches the distributor collection (privileged)
func (c *Client) Distributors(ctx context.Context) ([]store.Distributor, error) {
	body, err := c.get(ctx, "/api/distributors", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.Distributor](body)
}

// Orders fetches all orders (privileged)
func (c *Client) Orders(ctx context.Context) ([]store.Order, error) {
	body, err := c.get(ctx, "/api/orders", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.Order](body)
}

// Customers fetches all customers (privileged)
func (c *Client) Customers(ctx context.Context) ([]store.Customer, error) {
	body, err := c.get(ctx, "/api/customers", nil)
	if err != nil {
		return nil, err
	}
	return decodeCollection[store.Customer](body)
}
