// ABOUTME: Store interfaces and catalog data types for shop-admin persistence
// ABOUTME: Defines Product, Order, SEOPage and the CatalogStore used by the API and web admin

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateSKU is returned when a product SKU is already taken
var ErrDuplicateSKU = errors.New("sku already exists")

// ErrDuplicateSlug is returned when an SEO page slug is already taken
var ErrDuplicateSlug = errors.New("slug already exists")

// ErrInvalidStatus is returned for an order status outside OrderStatuses
var ErrInvalidStatus = errors.New("invalid order status")

// Product is a sellable catalog item. Prices are stored in cents.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// OrderStatuses lists every valid status in display order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Order is a customer order as seen by the back office
type Order struct {
	ID            string
	Number        string
	CustomerEmail string
	TotalCents    int64
	Status        OrderStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderFilter narrows ListOrders. A nil Status matches every order.
type OrderFilter struct {
	Status *OrderStatus
	Limit  int
}

// SEOPage is a content page managed for search engines
type SEOPage struct {
	ID              string
	Slug            string
	Title           string
	MetaDescription string
	BodyMarkdown    string
	Published       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CatalogStore defines persistence for the dashboard's catalog entities
type CatalogStore interface {
	// Products
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, limit int) ([]*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	CountProducts(ctx context.Context) (int, error)

	// Orders
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) error
	DeleteOrder(ctx context.Context, id string) error
	CountOrders(ctx context.Context, status *OrderStatus) (int, error)

	// SEO pages
	CreatePage(ctx context.Context, p *SEOPage) error
	GetPage(ctx context.Context, id string) (*SEOPage, error)
	GetPageBySlug(ctx context.Context, slug string) (*SEOPage, error)
	ListPages(ctx context.Context, limit int) ([]*SEOPage, error)
	UpdatePage(ctx context.Context, p *SEOPage) error
	DeletePage(ctx context.Context, id string) error
}

// Store is everything the server needs from persistence
type Store interface {
	CatalogStore
	AdminStore

	// Close releases any resources held by the store
	Close() error
}
