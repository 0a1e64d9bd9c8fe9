// ABOUTME: JSON request and response bodies for the REST API
// ABOUTME: Shared with internal/client so both sides agree on the wire shape

package api

import (
	"time"

	"github.com/2389/shop-admin/internal/store"
)

// LoginRequest is the JSON request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the JSON response for POST /api/auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse describes an admin user. Password hashes never leave the server.
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// ProductRequest is the body for POST /api/products and PUT /api/products/{id}.
type ProductRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int    `json:"stock"`
	Active      *bool  `json:"active,omitempty"`
}

// ProductResponse is a product as returned by the API.
type ProductResponse struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OrderResponse is an order as returned by the API.
type OrderResponse struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	CustomerEmail string    `json:"customer_email"`
	TotalCents    int64     `json:"total_cents"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OrderStatusRequest is the body for PATCH /api/orders/{id}/status.
type OrderStatusRequest struct {
	Status string `json:"status"`
}

// PageRequest is the body for POST /api/pages and PUT /api/pages/{id}.
type PageRequest struct {
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	BodyMarkdown    string `json:"body_markdown"`
	Published       bool   `json:"published"`
}

// PageResponse is an SEO page as returned by the API.
type PageResponse struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	MetaDescription string    `json:"meta_description"`
	BodyMarkdown    string    `json:"body_markdown"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u *store.AdminUser) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toProductResponse(p *store.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       p.Stock,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toOrderResponse(o *store.Order) OrderResponse {
	return OrderResponse{
		ID:            o.ID,
		Number:        o.Number,
		CustomerEmail: o.CustomerEmail,
		TotalCents:    o.TotalCents,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toPageResponse(p *store.SEOPage) PageResponse {
	return PageResponse{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		BodyMarkdown:    p.BodyMarkdown,
		Published:       p.Published,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
