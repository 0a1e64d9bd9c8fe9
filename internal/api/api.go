// ABOUTME: REST API for the dashboard: login plus products, orders, pages, and users
// ABOUTME: Everything except POST /api/auth/login sits behind bearer JWT auth

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/store"
)

// maxBodyBytes bounds request bodies; page markdown is the largest payload.
const maxBodyBytes = 1 << 20

// LoginObserver is told about every login attempt.
type LoginObserver interface {
	Login(surface string, ok bool)
}

// Config holds the API's dependencies.
type Config struct {
	Store    store.Store
	Verifier *auth.JWTVerifier
	TokenTTL time.Duration
	Logger   *slog.Logger
	Observer LoginObserver
}

// API serves the JSON endpoints.
type API struct {
	store    store.Store
	verifier *auth.JWTVerifier
	tokenTTL time.Duration
	logger   *slog.Logger
	observer LoginObserver
	now      func() time.Time
}

// New creates an API from cfg.
func New(cfg Config) *API {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		store:    cfg.Store,
		verifier: cfg.Verifier,
		tokenTTL: cfg.TokenTTL,
		logger:   logger.With("component", "api"),
		observer: cfg.Observer,
		now:      time.Now,
	}
}

// RegisterRoutes mounts the API on mux under /api/.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/me", a.handleMe)

	protected.HandleFunc("GET /api/products", a.handleListProducts)
	protected.HandleFunc("POST /api/products", a.handleCreateProduct)
	protected.HandleFunc("GET /api/products/{id}", a.handleGetProduct)
	protected.HandleFunc("PUT /api/products/{id}", a.handleUpdateProduct)
	protected.HandleFunc("DELETE /api/products/{id}", a.handleDeleteProduct)

	protected.HandleFunc("GET /api/orders", a.handleListOrders)
	protected.HandleFunc("GET /api/orders/{id}", a.handleGetOrder)
	protected.HandleFunc("DELETE /api/orders/{id}", a.handleDeleteOrder)
	protected.HandleFunc("PATCH /api/orders/{id}/status", a.handleUpdateOrderStatus)

	protected.HandleFunc("GET /api/pages", a.handleListPages)
	protected.HandleFunc("POST /api/pages", a.handleCreatePage)
	protected.HandleFunc("GET /api/pages/{id}", a.handleGetPage)
	protected.HandleFunc("PUT /api/pages/{id}", a.handleUpdatePage)
	protected.HandleFunc("DELETE /api/pages/{id}", a.handleDeletePage)
	protected.HandleFunc("GET /api/pages/{id}/preview", a.handlePreviewPage)

	protected.HandleFunc("GET /api/users", a.handleListUsers)

	protected.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		a.sendJSONError(w, http.StatusNotFound, "not found")
	})

	mux.Handle("/api/", auth.HTTPAuthMiddleware(a.store, a.verifier)(protected))
}

// sendJSON writes v as a JSON response with the given status.
func (a *API) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Debug("failed to write response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (a *API) sendJSONError(w http.ResponseWriter, status int, message string) {
	a.sendJSON(w, status, ErrorResponse{Error: message})
}

// sendStoreError maps store sentinels to statuses. Anything unrecognized is
// logged and reported as a 500 without detail.
func (a *API) sendStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.sendJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicateSKU):
		a.sendJSONError(w, http.StatusConflict, "sku already exists")
	case errors.Is(err, store.ErrDuplicateSlug):
		a.sendJSONError(w, http.StatusConflict, "slug already exists")
	case errors.Is(err, store.ErrInvalidStatus):
		a.sendJSONError(w, http.StatusBadRequest, "invalid order status")
	case errors.Is(err, store.ErrInvalidSlug):
		a.sendJSONError(w, http.StatusBadRequest, store.ErrInvalidSlug.Error())
	default:
		a.logger.Error("store operation failed", "op", op, "error", err)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads the request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryLimit parses ?limit=, returning 0 when absent.
func queryLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
