// ABOUTME: Product and order pages for the admin UI
// ABOUTME: Deletions go through the confirmation dialog before touching the store

package webadmin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/shop-admin/internal/confirm"
	"github.com/2389/shop-admin/internal/store"
)

// productForm is the product editor's raw input
type productForm struct {
	Action      string
	SKU         string
	Name        string
	Description string
	Price       string
	Stock       string
	Active      bool
}

func productFormFrom(r *http.Request) productForm {
	return productForm{
		Action:      r.URL.Path,
		SKU:         strings.TrimSpace(r.FormValue("sku")),
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Price:       strings.TrimSpace(r.FormValue("price")),
		Stock:       strings.TrimSpace(r.FormValue("stock")),
		Active:      r.FormValue("active") != "",
	}
}

func productFormOf(p *store.Product) productForm {
	return productForm{
		Action:      "/admin/products/" + p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       formatCents(p.PriceCents),
		Stock:       strconv.Itoa(p.Stock),
		Active:      p.Active,
	}
}

// apply validates f and copies it onto p. It returns a message for the user
// when the form is invalid.
func (f productForm) apply(p *store.Product) string {
	if f.SKU == "" || f.Name == "" {
		return "SKU and name are required"
	}
	cents, err := parseCents(f.Price)
	if err != nil {
		return "Price must be an amount like 12.50"
	}
	stock := 0
	if f.Stock != "" {
		stock, err = strconv.Atoi(f.Stock)
		if err != nil || stock < 0 {
			return "Stock must be a whole number of zero or more"
		}
	}

	p.SKU = f.SKU
	p.Name = f.Name
	p.Description = f.Description
	p.PriceCents = cents
	p.Stock = stock
	p.Active = f.Active
	return ""
}

// parseCents parses a non-negative decimal amount with at most two
// fractional digits.
func parseCents(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return 0, errors.New("empty amount")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("too many decimal places in %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	f, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return int64(w)*100 + int64(f), nil
}

// storeError maps a store error to a response
func (a *Admin) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	a.serverError(w, op, err)
}

// handleProductsPage lists products with a create form
func (a *Admin) handleProductsPage(w http.ResponseWriter, r *http.Request) {
	a.renderProducts(w, r, http.StatusOK, productForm{Action: "/admin/products", Active: true}, "")
}

func (a *Admin) renderProducts(w http.ResponseWriter, r *http.Request, status int, form productForm, errorMsg string) {
	products, err := a.store.ListProducts(r.Context(), 0)
	if err != nil {
		a.serverError(w, "list products", err)
		return
	}

	data := productsData{Products: products, Form: form}
	data.layout = a.layoutFor(w, r, "Products")
	data.Error = errorMsg
	a.render(w, status, "products.html", data)
}

// handleCreateProduct adds a product from the create form
func (a *Admin) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	form := productFormFrom(r)
	now := a.now().UTC()
	p := &store.Product{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	if msg := form.apply(p); msg != "" {
		a.renderProducts(w, r, http.StatusBadRequest, form, msg)
		return
	}

	if err := a.store.CreateProduct(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrDuplicateSKU) {
			a.renderProducts(w, r, http.StatusConflict, form, "A product with that SKU already exists")
			return
		}
		a.serverError(w, "create product", err)
		return
	}

	a.logger.Info("product created", "id", p.ID, "sku", p.SKU, "by", getUserFromContext(r).Username)
	http.Redirect(w, r, "/admin/products", http.StatusSeeOther)
}

// handleProductPage shows the editor for one product
func (a *Admin) handleProductPage(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get product", err)
		return
	}
	a.renderProduct(w, r, http.StatusOK, p, productFormOf(p), "")
}

func (a *Admin) renderProduct(w http.ResponseWriter, r *http.Request, status int, p *store.Product, form productForm, errorMsg string) {
	data := productData{Product: p, Form: form}
	data.layout = a.layoutFor(w, r, p.Name)
	data.Error = errorMsg
	a.render(w, status, "product.html", data)
}

// handleUpdateProduct saves the product editor
func (a *Admin) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := a.store.GetProduct(ctx, r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get product", err)
		return
	}

	form := productFormFrom(r)
	if msg := form.apply(p); msg != "" {
		a.renderProduct(w, r, http.StatusBadRequest, p, form, msg)
		return
	}
	p.UpdatedAt = a.now().UTC()

	if err := a.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicateSKU) {
			a.renderProduct(w, r, http.StatusConflict, p, form, "A product with that SKU already exists")
			return
		}
		a.storeError(w, "update product", err)
		return
	}

	http.Redirect(w, r, "/admin/products/"+p.ID, http.StatusSeeOther)
}

// handleDeleteProduct asks before removing a product
func (a *Admin) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get product", err)
		return
	}

	user := getUserFromContext(r).Username
	req := &confirm.Request{
		Title:       fmt.Sprintf("Delete product %s?", p.SKU),
		Description: fmt.Sprintf("%q will be removed from the catalog. This cannot be undone.", p.Name),
		Kind:        confirm.KindDestructive,
	}
	a.askConfirmation(w, r, req, "/admin/products", func(ctx context.Context) error {
		if err := a.store.DeleteProduct(ctx, p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		a.logger.Info("product deleted", "id", p.ID, "sku", p.SKU, "by", user)
		return nil
	})
}

// parseStatusFilter reads ?status=; an empty value means every status
func parseStatusFilter(r *http.Request) (*store.OrderStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	status := store.OrderStatus(raw)
	if !status.Valid() {
		return nil, false
	}
	return &status, true
}

// handleOrdersPage lists orders, optionally filtered by status
func (a *Admin) handleOrdersPage(w http.ResponseWriter, r *http.Request) {
	status, ok := parseStatusFilter(r)
	if !ok {
		http.Error(w, "Invalid order status", http.StatusBadRequest)
		return
	}

	orders, err := a.store.ListOrders(r.Context(), store.OrderFilter{Status: status})
	if err != nil {
		a.serverError(w, "list orders", err)
		return
	}

	data := ordersData{Orders: orders, Statuses: store.OrderStatuses}
	if status != nil {
		data.Filter = string(*status)
	}
	data.layout = a.layoutFor(w, r, "Orders")
	a.render(w, http.StatusOK, "orders.html", data)
}

// handleOrderPage shows one order
func (a *Admin) handleOrderPage(w http.ResponseWriter, r *http.Request) {
	o, err := a.store.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get order", err)
		return
	}

	data := orderData{Order: o, Statuses: store.OrderStatuses}
	data.layout = a.layoutFor(w, r, "Order "+o.Number)
	a.render(w, http.StatusOK, "order.html", data)
}

// handleOrderStatus changes an order's status
func (a *Admin) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status := store.OrderStatus(r.FormValue("status"))

	if err := a.store.UpdateOrderStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, store.ErrInvalidStatus) {
			http.Error(w, "Invalid order status", http.StatusBadRequest)
			return
		}
		a.storeError(w, "update order status", err)
		return
	}

	a.logger.Info("order status changed", "id", id, "status", status, "by", getUserFromContext(r).Username)
	http.Redirect(w, r, "/admin/orders/"+id, http.StatusSeeOther)
}

// handleDeleteOrder asks before removing an order
func (a *Admin) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.store.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get order", err)
		return
	}

	user := getUserFromContext(r).Username
	req := &confirm.Request{
		Title:       fmt.Sprintf("Delete order %s?", o.Number),
		Description: fmt.Sprintf("The order for %s (%s) will be permanently deleted.", o.CustomerEmail, formatCents(o.TotalCents)),
		Kind:        confirm.KindDestructive,
	}
	a.askConfirmation(w, r, req, "/admin/orders", func(ctx context.Context) error {
		if err := a.store.DeleteOrder(ctx, o.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		a.logger.Info("order deleted", "id", o.ID, "number", o.Number, "by", user)
		return nil
	})
}
