// ABOUTME: Tests for the REST API handlers against a temporary SQLite store
// ABOUTME: Covers login, bearer auth, CRUD flows, and error mapping

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/store"
)

var testSecret = []byte("api-handler-test-secret-32-bytes")

type loginCounter struct{ ok, failed int }

func (c *loginCounter) Login(surface string, ok bool) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

type testServer struct {
	handler http.Handler
	store   *store.SQLiteStore
	logins  *loginCounter
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	hash, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NoError(t, s.CreateAdminUser(context.Background(), &store.AdminUser{
		ID:           "admin-1",
		Username:     "alice",
		PasswordHash: hash,
		DisplayName:  "Alice",
		CreatedAt:    time.Now(),
	}))

	verifier, err := auth.NewJWTVerifier(testSecret)
	require.NoError(t, err)

	logins := &loginCounter{}
	mux := http.NewServeMux()
	New(Config{Store: s, Verifier: verifier, TokenTTL: time.Hour, Observer: logins}).RegisterRoutes(mux)

	ts := &testServer{handler: mux, store: s, logins: logins}
	token, _, err := verifier.Generate("admin-1", time.Hour)
	require.NoError(t, err)
	ts.token = token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	rec := ts.do(t, http.MethodPost, "/api/auth/login", LoginRequest{Username: "alice", Password: "hunter2hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LoginResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	// The issued token works for protected endpoints
	ts.token = resp.Token
	rec = ts.do(t, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[UserResponse](t, rec).Username)

	assert.Equal(t, 1, ts.logins.ok)
}

func TestLogin_Failures(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantError  string
	}{
		{"wrong password", LoginRequest{Username: "alice", Password: "nope"}, http.StatusUnauthorized, "invalid username or password"},
		{"unknown user", LoginRequest{Username: "mallory", Password: "hunter2hunter2"}, http.StatusUnauthorized, "invalid username or password"},
		{"missing fields", LoginRequest{Username: "alice"}, http.StatusBadRequest, "username and password are required"},
		{"unknown field", map[string]string{"user": "alice"}, http.StatusBadRequest, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/auth/login", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, decode[ErrorResponse](t, rec).Error)
		})
	}
	assert.Equal(t, 2, ts.logins.failed)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	for _, path := range []string{"/api/me", "/api/products", "/api/orders", "/api/pages", "/api/users"} {
		rec := ts.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestProducts_Flow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/products", ProductRequest{SKU: "MUG-1", Name: "Mug", PriceCents: 1200, Stock: 3})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[ProductResponse](t, rec)
	assert.True(t, created.Active)
	assert.NotEmpty(t, created.ID)

	rec = ts.do(t, http.MethodPost, "/api/products", ProductRequest{SKU: "MUG-1", Name: "Other"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/products", ProductRequest{SKU: "X", Name: "Bad", PriceCents: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	inactive := false
	rec = ts.do(t, http.MethodPut, "/api/products/"+created.ID, ProductRequest{SKU: "MUG-1", Name: "Big mug", PriceCents: 1500, Active: &inactive})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[ProductResponse](t, rec)
	assert.Equal(t, "Big mug", updated.Name)
	assert.False(t, updated.Active)

	rec = ts.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ProductResponse](t, rec), 1)

	rec = ts.do(t, http.MethodDelete, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decode[ErrorResponse](t, rec).Error)
}

func TestOrders_Flow(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, ts.store.CreateOrder(ctx, &store.Order{ID: "o1", Number: "1001", CustomerEmail: "a@example.com", TotalCents: 500, Status: store.OrderStatusPending, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, ts.store.CreateOrder(ctx, &store.Order{ID: "o2", Number: "1002", CustomerEmail: "b@example.com", TotalCents: 700, Status: store.OrderStatusPaid, CreatedAt: now, UpdatedAt: now}))

	rec := ts.do(t, http.MethodGet, "/api/orders?status=paid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	paid := decode[[]OrderResponse](t, rec)
	require.Len(t, paid, 1)
	assert.Equal(t, "1002", paid[0].Number)

	rec = ts.do(t, http.MethodGet, "/api/orders?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPatch, "/api/orders/o1/status", OrderStatusRequest{Status: "shipped"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shipped", decode[OrderResponse](t, rec).Status)

	rec = ts.do(t, http.MethodPatch, "/api/orders/o1/status", OrderStatusRequest{Status: "teleported"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/orders/o2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/orders/o2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPages_Flow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/pages", PageRequest{Slug: "about", Title: "About", BodyMarkdown: "# About us"})
	require.Equal(t, http.StatusCreated, rec.Code)
	page := decode[PageResponse](t, rec)

	rec = ts.do(t, http.MethodPost, "/api/pages", PageRequest{Slug: "about", Title: "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/pages", PageRequest{Slug: "Not A Slug", Title: "Bad"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/pages/"+page.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview struct {
		HTML     string   `json:"html"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&preview))
	assert.Contains(t, preview.HTML, "About us</h1>")
	assert.Contains(t, preview.Warnings, "meta description is empty")

	rec = ts.do(t, http.MethodPut, "/api/pages/"+page.ID, PageRequest{Slug: "about-us", Title: "About", Published: true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[PageResponse](t, rec).Published)

	rec = ts.do(t, http.MethodDelete, "/api/pages/"+page.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUsers_List(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hash")
	users := decode[[]UserResponse](t, rec)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
