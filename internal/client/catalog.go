// ABOUTME: Product, order, and SEO page calls on the REST API client
// ABOUTME: One method per endpoint, returning the shared api response types

package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/2389/shop-admin/internal/api"
	"github.com/2389/shop-admin/internal/seo"
)

// ListProducts returns the newest products.
func (c *Client) ListProducts(ctx context.Context) ([]api.ProductResponse, error) {
	var resp []api.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetProduct returns one product.
func (c *Client) GetProduct(ctx context.Context, id string) (*api.ProductResponse, error) {
	var resp api.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/api/products/"+escape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateProduct adds a product.
func (c *Client) CreateProduct(ctx context.Context, req api.ProductRequest) (*api.ProductResponse, error) {
	var resp api.ProductResponse
	if err := c.do(ctx, http.MethodPost, "/api/products", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProduct replaces a product's fields.
func (c *Client) UpdateProduct(ctx context.Context, id string, req api.ProductRequest) (*api.ProductResponse, error) {
	var resp api.ProductResponse
	if err := c.do(ctx, http.MethodPut, "/api/products/"+escape(id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+escape(id), nil, nil)
}

// ListOrders returns orders, optionally only those in status.
func (c *Client) ListOrders(ctx context.Context, status string) ([]api.OrderResponse, error) {
	path := "/api/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var resp []api.OrderResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, id string) (*api.OrderResponse, error) {
	var resp api.OrderResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+escape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateOrderStatus moves an order to status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*api.OrderResponse, error) {
	var resp api.OrderResponse
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+escape(id)+"/status", api.OrderStatusRequest{Status: status}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteOrder removes an order.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+escape(id), nil, nil)
}

// ListPages returns SEO pages.
func (c *Client) ListPages(ctx context.Context) ([]api.PageResponse, error) {
	var resp []api.PageResponse
	if err := c.do(ctx, http.MethodGet, "/api/pages", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetPage returns one page.
func (c *Client) GetPage(ctx context.Context, id string) (*api.PageResponse, error) {
	var resp api.PageResponse
	if err := c.do(ctx, http.MethodGet, "/api/pages/"+escape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePage adds a page.
func (c *Client) CreatePage(ctx context.Context, req api.PageRequest) (*api.PageResponse, error) {
	var resp api.PageResponse
	if err := c.do(ctx, http.MethodPost, "/api/pages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePage replaces a page's fields.
func (c *Client) UpdatePage(ctx context.Context, id string, req api.PageRequest) (*api.PageResponse, error) {
	var resp api.PageResponse
	if err := c.do(ctx, http.MethodPut, "/api/pages/"+escape(id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeletePage removes a page.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/pages/"+escape(id), nil, nil)
}

// PreviewPage returns the rendered page and its metadata warnings.
func (c *Client) PreviewPage(ctx context.Context, id string) (*seo.Preview, error) {
	var resp seo.Preview
	if err := c.do(ctx, http.MethodGet, "/api/pages/"+escape(id)+"/preview", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
