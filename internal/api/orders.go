// ABOUTME: Order endpoints for the REST API
// ABOUTME: Listing with a status filter, status changes, and deletion

package api

import (
	"net/http"

	"github.com/2389/shop-admin/internal/store"
)

// handleListOrders handles GET /api/orders[?status=][&limit=].
func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		a.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	filter := store.OrderFilter{Limit: limit}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := store.OrderStatus(raw)
		if !status.Valid() {
			a.sendJSONError(w, http.StatusBadRequest, "invalid order status")
			return
		}
		filter.Status = &status
	}

	orders, err := a.store.ListOrders(r.Context(), filter)
	if err != nil {
		a.sendStoreError(w, "list orders", err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	a.sendJSON(w, http.StatusOK, resp)
}

// handleGetOrder handles GET /api/orders/{id}.
func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := a.store.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		a.sendStoreError(w, "get order", err)
		return
	}
	a.sendJSON(w, http.StatusOK, toOrderResponse(o))
}

// handleUpdateOrderStatus handles PATCH /api/orders/{id}/status.
func (a *API) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req OrderStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	if err := a.store.UpdateOrderStatus(ctx, id, store.OrderStatus(req.Status)); err != nil {
		a.sendStoreError(w, "update order status", err)
		return
	}

	o, err := a.store.GetOrder(ctx, id)
	if err != nil {
		a.sendStoreError(w, "get order", err)
		return
	}
	a.sendJSON(w, http.StatusOK, toOrderResponse(o))
}

// handleDeleteOrder handles DELETE /api/orders/{id}.
func (a *API) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.store.DeleteOrder(r.Context(), id); err != nil {
		a.sendStoreError(w, "delete order", err)
		return
	}
	a.logger.Info("order deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
