// ABOUTME: Product endpoints for the REST API
// ABOUTME: CRUD over the catalog with basic field validation

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/shop-admin/internal/store"
)

func validateProduct(req *ProductRequest) error {
	req.SKU = strings.TrimSpace(req.SKU)
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.SKU == "" || req.Name == "":
		return errors.New("sku and name are required")
	case req.PriceCents < 0:
		return errors.New("price_cents must not be negative")
	case req.Stock < 0:
		return errors.New("stock must not be negative")
	}
	return nil
}

// handleListProducts handles GET /api/products.
func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		a.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	products, err := a.store.ListProducts(r.Context(), limit)
	if err != nil {
		a.sendStoreError(w, "list products", err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	a.sendJSON(w, http.StatusOK, resp)
}

// handleCreateProduct handles POST /api/products.
func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateProduct(&req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := a.now().UTC()
	p := &store.Product{
		ID:          uuid.New().String(),
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
		Active:      req.Active == nil || *req.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.CreateProduct(r.Context(), p); err != nil {
		a.sendStoreError(w, "create product", err)
		return
	}

	a.sendJSON(w, http.StatusCreated, toProductResponse(p))
}

// handleGetProduct handles GET /api/products/{id}.
func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		a.sendStoreError(w, "get product", err)
		return
	}
	a.sendJSON(w, http.StatusOK, toProductResponse(p))
}

// handleUpdateProduct handles PUT /api/products/{id}.
func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateProduct(&req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	p, err := a.store.GetProduct(ctx, r.PathValue("id"))
	if err != nil {
		a.sendStoreError(w, "get product", err)
		return
	}

	p.SKU = req.SKU
	p.Name = req.Name
	p.Description = req.Description
	p.PriceCents = req.PriceCents
	p.Stock = req.Stock
	if req.Active != nil {
		p.Active = *req.Active
	}
	p.UpdatedAt = a.now().UTC()

	if err := a.store.UpdateProduct(ctx, p); err != nil {
		a.sendStoreError(w, "update product", err)
		return
	}
	a.sendJSON(w, http.StatusOK, toProductResponse(p))
}

// handleDeleteProduct handles DELETE /api/products/{id}.
func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.store.DeleteProduct(r.Context(), id); err != nil {
		a.sendStoreError(w, "delete product", err)
		return
	}
	a.logger.Info("product deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
