// ABOUTME: Tests for the terminal client commands against an in-process server
// ABOUTME: Covers guard routing, login persistence, listings, and confirmed deletions

package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/client"
	"github.com/2389/shop-admin/internal/config"
	"github.com/2389/shop-admin/internal/confirm"
	"github.com/2389/shop-admin/internal/guard"
	"github.com/2389/shop-admin/internal/server"
	"github.com/2389/shop-admin/internal/session"
	"github.com/2389/shop-admin/internal/store"
)

const testPassword = "hunter2hunter2"

type testEnv struct {
	*clientEnv
	store *store.SQLiteStore
	out   *bytes.Buffer
	asked []*confirm.Request
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)

	cfg := &config.Config{
		Server:   config.ServerConfig{HTTPAddr: "127.0.0.1:0"},
		Auth:     config.AuthConfig{JWTSecret: "client-test-secret-at-least-32-bytes", TokenTTL: time.Hour},
		WebAdmin: config.WebAdminConfig{SessionTTL: time.Hour},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.NewWithStore(cfg, s, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, s.CreateAdminUser(ctx, &store.AdminUser{
		ID: "admin-1", Username: "alice", PasswordHash: hash, DisplayName: "Alice", CreatedAt: time.Now(),
	}))

	sess := session.New()
	te := &testEnv{store: s, out: &bytes.Buffer{}}
	te.clientEnv = &clientEnv{
		api:     client.New(ts.URL, sess, logger),
		session: sess,
		policy:  guard.DefaultPolicy(),
		out:     te.out,
		in:      bufio.NewReader(strings.NewReader("")),
		confirm: func(_ context.Context, req *confirm.Request) (confirm.Outcome, error) {
			t.Fatalf("unexpected confirmation: %q", req.Title)
			return confirm.Outcome{}, nil
		},
		password: func(string) (string, error) { return testPassword, nil },
	}
	return te
}

// answer makes every confirmation resolve with confirmed.
func (te *testEnv) answer(confirmed bool) {
	te.confirm = func(_ context.Context, req *confirm.Request) (confirm.Outcome, error) {
		te.asked = append(te.asked, req)
		return confirm.Outcome{Confirmed: confirmed, Data: req}, nil
	}
}

func (te *testEnv) signIn(t *testing.T) {
	t.Helper()
	_, err := te.api.Login(context.Background(), "alice", testPassword)
	require.NoError(t, err)
	te.out.Reset()
}

func seedCatalog(t *testing.T, s *store.SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateProduct(ctx, &store.Product{
		ID: "p1", SKU: "MUG-01", Name: "Mug", PriceCents: 1999, Stock: 4, Active: true, CreatedAt: now, UpdatedAt: now,
	}))
	for _, o := range []*store.Order{
		{ID: "o1", Number: "SO-1001", CustomerEmail: "a@example.com", TotalCents: 1999, Status: store.OrderStatusPending},
		{ID: "o2", Number: "SO-1002", CustomerEmail: "b@example.com", TotalCents: 3998, Status: store.OrderStatusPaid},
	} {
		o.CreatedAt, o.UpdatedAt = now, now
		require.NoError(t, s.CreateOrder(ctx, o))
	}
	require.NoError(t, s.CreatePage(ctx, &store.SEOPage{
		ID: "pg1", Slug: "shipping", Title: "Shipping", BodyMarkdown: "# Shipping", CreatedAt: now, UpdatedAt: now,
	}))
}

func TestCommandPathsRoundTrip(t *testing.T) {
	for cmd, path := range commandPaths {
		got, ok := commandForPath(path)
		require.True(t, ok, path)
		assert.Equal(t, cmd, got)
	}

	p := guard.DefaultPolicy()
	login, _ := commandForPath(p.LoginPath)
	home, _ := commandForPath(p.HomePath)
	assert.Equal(t, "login", login)
	assert.Equal(t, "dashboard", home)
}

func TestRun_DataCommandsNeedLogin(t *testing.T) {
	te := setupTestEnv(t)

	for _, cmd := range []string{"whoami", "dashboard", "products", "orders", "pages", "users", "logout",
		"set-order-status", "set-stock", "publish-page"} {
		err := te.run(context.Background(), cmd, nil)
		assert.ErrorIs(t, err, errNotSignedIn, cmd)
	}
	assert.Empty(t, te.out.String())
}

func TestRun_UnknownCommand(t *testing.T) {
	te := setupTestEnv(t)
	assert.Error(t, te.run(context.Background(), "refund", nil))
}

func TestLogin(t *testing.T) {
	te := setupTestEnv(t)
	ctx := context.Background()

	require.NoError(t, te.run(ctx, "login", []string{"-username", "alice"}))
	assert.True(t, te.session.HasToken())
	assert.Contains(t, te.out.String(), "Signed in as alice")

	te.out.Reset()
	require.NoError(t, te.run(ctx, "whoami", nil))
	assert.Contains(t, te.out.String(), "Username:  alice")
	assert.Contains(t, te.out.String(), "Name:      Alice")
}

func TestLogin_PromptsForUsername(t *testing.T) {
	te := setupTestEnv(t)
	te.in = bufio.NewReader(strings.NewReader("alice\n"))

	require.NoError(t, te.run(context.Background(), "login", nil))
	assert.True(t, te.session.HasToken())
}

func TestLogin_WrongPassword(t *testing.T) {
	te := setupTestEnv(t)
	te.password = func(string) (string, error) { return "wrong-password", nil }

	err := te.run(context.Background(), "login", []string{"-username", "alice"})
	assert.Error(t, err)
	assert.False(t, te.session.HasToken())
}

func TestLogin_WhenSignedInShowsDashboard(t *testing.T) {
	te := setupTestEnv(t)
	te.signIn(t)
	te.password = func(string) (string, error) {
		t.Fatal("login should not prompt when already signed in")
		return "", nil
	}

	require.NoError(t, te.run(context.Background(), "login", nil))
	out := te.out.String()
	assert.Contains(t, out, "Already signed in.")
	assert.Contains(t, out, "Signed in as alice")
	assert.Contains(t, out, "Products:  0")
}

func TestLogout(t *testing.T) {
	te := setupTestEnv(t)
	te.signIn(t)

	require.NoError(t, te.run(context.Background(), "logout", nil))
	assert.False(t, te.session.HasToken())
	assert.ErrorIs(t, te.run(context.Background(), "products", nil), errNotSignedIn)
}

func TestRejectedTokenClearsSession(t *testing.T) {
	te := setupTestEnv(t)
	te.session.SetToken("not-a-jwt")

	err := te.run(context.Background(), "whoami", nil)
	assert.ErrorIs(t, err, errNotSignedIn)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, te.session.HasToken())
}

func TestListings(t *testing.T) {
	te := setupTestEnv(t)
	seedCatalog(t, te.store)
	te.signIn(t)
	ctx := context.Background()

	require.NoError(t, te.run(ctx, "products", nil))
	assert.Contains(t, te.out.String(), "MUG-01")
	assert.Contains(t, te.out.String(), "$19.99")

	te.out.Reset()
	require.NoError(t, te.run(ctx, "orders", []string{"-status", "paid"}))
	assert.Contains(t, te.out.String(), "SO-1002")
	assert.NotContains(t, te.out.String(), "SO-1001")

	te.out.Reset()
	require.NoError(t, te.run(ctx, "pages", nil))
	assert.Contains(t, te.out.String(), "/shipping")

	te.out.Reset()
	require.NoError(t, te.run(ctx, "users", nil))
	assert.Contains(t, te.out.String(), "alice")

	te.out.Reset()
	require.NoError(t, te.run(ctx, "dashboard", nil))
	assert.Contains(t, te.out.String(), "Orders:    2")
	assert.Regexp(t, `pending\s+1`, te.out.String())

	assert.Error(t, te.run(ctx, "orders", []string{"-status", "lost"}))
}

func TestDelete_AsksBeforeDeleting(t *testing.T) {
	te := setupTestEnv(t)
	seedCatalog(t, te.store)
	te.signIn(t)
	ctx := context.Background()

	te.answer(false)
	require.NoError(t, te.run(ctx, "delete-product", []string{"p1"}))
	assert.Contains(t, te.out.String(), "Cancelled.")
	_, err := te.store.GetProduct(ctx, "p1")
	require.NoError(t, err, "cancelled delete must leave the product")

	require.Len(t, te.asked, 1)
	assert.Equal(t, "Delete product MUG-01?", te.asked[0].Title)
	assert.True(t, te.asked[0].Destructive())

	te.answer(true)
	require.NoError(t, te.run(ctx, "delete-product", []string{"p1"}))
	assert.Contains(t, te.out.String(), "Deleted product MUG-01")
	_, err = te.store.GetProduct(ctx, "p1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_YesSkipsConfirmation(t *testing.T) {
	te := setupTestEnv(t)
	seedCatalog(t, te.store)
	te.signIn(t)
	ctx := context.Background()

	require.NoError(t, te.run(ctx, "delete-order", []string{"-yes", "o1"}))
	_, err := te.store.GetOrder(ctx, "o1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, te.run(ctx, "delete-page", []string{"-yes", "pg1"}))
	assert.Contains(t, te.out.String(), "Deleted page /shipping")
}

func TestDelete_Errors(t *testing.T) {
	te := setupTestEnv(t)
	te.signIn(t)
	ctx := context.Background()

	assert.Error(t, te.run(ctx, "delete-product", nil))

	te.answer(true)
	err := te.run(ctx, "delete-order", []string{"missing"})
	assert.ErrorIs(t, err, client.ErrNotFound)
	assert.Empty(t, te.asked)
}

func TestSetOrderStatus(t *testing.T) {
	te := setupTestEnv(t)
	seedCatalog(t, te.store)
	te.signIn(t)
	ctx := context.Background()

	require.NoError(t, te.run(ctx, "set-order-status", []string{"o2", "shipped"}))
	assert.Contains(t, te.out.String(), "Order SO-1002 is now shipped")
	o, err := te.store.GetOrder(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, store.OrderStatusShipped, o.Status)

	te.out.Reset()
	require.NoError(t, te.run(ctx, "set-order-status", []string{"o2", "shipped"}))
	assert.Contains(t, te.out.String(), "already shipped")

	assert.ErrorContains(t, te.run(ctx, "set-order-status", []string{"o2", "lost"}), "unknown order status")
	assert.Error(t, te.run(ctx, "set-order-status", []string{"o2"}))
	assert.ErrorIs(t, te.run(ctx, "set-order-status", []string{"missing", "paid"}), client.ErrNotFound)
}

func TestSetOrderStatus_RefundAsksFirst(t *testing.T) {
	te := setupTestEnv(t)
	seedCatalog(t, te.store)
	te.signIn(t)
	ctx := context.Background()

	te.answer(false)
	require.NoError(t, te.run(ctx, "set-order-status", []string{"o2", "refunded"}))
	assert.Contains(t, te.out.String(), "Cancelled.")
	o, err := te.store.GetOrder(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, store.OrderStatusPaid, o.Status)

	require.Len(t, te.asked, 1)
	assert.Equal(t, "Mark order SO-1002 refunded?", te.asked[0].Title)
	assert.True(t, te.asked[0].Destructive())

	te.answer(true)
	require.NoError(t, te.run(ctx, "set-order-status", []string{"o2", "refunded"}))
	o, err = te.store.GetOrder(ctx, "o2")
	require.NoError(t, err)
	assert.Equal(t, store.OrderStatusRefunded, o.Status)

	te.asked = nil
	require.NoError(t, te.run(ctx, "set-order-status", []string{"-yes", "o1", "cancelled"}))
	assert.Empty(t, te.asked)
	o, err = te.store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, store.OrderStatusCancelled, o.Status)
}

func TestSetStock(t *testing.T) {
	te := setupTestEnv(t)
	seedCatalog(t, te.store)
	te.signIn(t)
	ctx := context.Background()

	require.NoError(t, te.run(ctx, "set-stock", []string{"p1", "12"}))
	assert.Contains(t, te.out.String(), "MUG-01 stock 4 -> 12")

	p, err := te.store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 12, p.Stock)
	assert.Equal(t, int64(1999), p.PriceCents)
	assert.True(t, p.Active)

	assert.ErrorContains(t, te.run(ctx, "set-stock", []string{"p1", "-1"}), "non-negative")
	assert.ErrorContains(t, te.run(ctx, "set-stock", []string{"p1", "many"}), "non-negative")
	assert.ErrorIs(t, te.run(ctx, "set-stock", []string{"missing", "1"}), client.ErrNotFound)
}

func TestPublishPage(t *testing.T) {
	te := setupTestEnv(t)
	seedCatalog(t, te.store)
	te.signIn(t)
	ctx := context.Background()

	require.NoError(t, te.run(ctx, "publish-page", []string{"pg1"}))
	assert.Contains(t, te.out.String(), "Page /shipping published")
	p, err := te.store.GetPage(ctx, "pg1")
	require.NoError(t, err)
	assert.True(t, p.Published)
	assert.Equal(t, "# Shipping", p.BodyMarkdown)

	te.out.Reset()
	require.NoError(t, te.run(ctx, "unpublish-page", []string{"pg1"}))
	assert.Contains(t, te.out.String(), "Page /shipping unpublished")
	p, err = te.store.GetPage(ctx, "pg1")
	require.NoError(t, err)
	assert.False(t, p.Published)

	assert.Error(t, te.run(ctx, "publish-page", nil))
}

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:     "$0.00",
		5:     "$0.05",
		1999:  "$19.99",
		-250:  "-$2.50",
		10000: "$100.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatCents(in))
	}
}
