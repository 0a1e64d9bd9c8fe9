// ABOUTME: Tests for server wiring: health, readiness, metrics, API and admin mounting, and shutdown
// ABOUTME: Uses a temporary SQLite database and a real listener for the run/shutdown path

package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/config"
	"github.com/2389/shop-admin/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{HTTPAddr: "127.0.0.1:0"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "shop.db")},
		Auth:     config.AuthConfig{JWTSecret: "server-test-secret-at-least-32-bytes", TokenTTL: time.Hour},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics"},
		WebAdmin: config.WebAdminConfig{SessionTTL: time.Hour},
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)
}

func TestReady_NeedsAnAdmin(t *testing.T) {
	srv, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "create-admin")

	hash, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	require.NoError(t, srv.store.CreateAdminUser(context.Background(), &store.AdminUser{
		ID: "a1", Username: "alice", PasswordHash: hash, CreatedAt: time.Now(),
	}))

	status, body = get(t, ts.URL+"/health/ready")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready (1 admins)", body)
}

func TestRoutesAreMounted(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := get(t, ts.URL+"/api/products")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, body, "missing authorization header")

	status, _ = get(t, ts.URL+"/admin/orders")
	assert.Equal(t, http.StatusSeeOther, status)

	status, body = get(t, ts.URL+"/admin/login")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Sign in")
}

func TestMetrics(t *testing.T) {
	_, ts := newTestServer(t)

	// One guard redirect to count
	get(t, ts.URL+"/admin/products")

	status, body := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `shop_admin_guard_decisions_total{decision="redirect_login"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	srv, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	status, _ := get(t, ts.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNew_RejectsWeakSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "short"
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, auth.ErrWeakSecret)
}

func TestServe_StopsOnCancel(t *testing.T) {
	srv, err := New(testConfig(t), nil)
	require.NoError(t, err)
	srv.sweepInterval = 10 * time.Millisecond

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	// Let the session sweep run at least once
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err = http.Get("http://" + ln.Addr().String() + "/health")
	assert.Error(t, err)
}

func TestDetermineBaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.HTTPAddr = "127.0.0.1:9000"

	t.Setenv("SHOP_ADMIN_URL", "")
	assert.Equal(t, "http://127.0.0.1:9000", determineBaseURL(cfg))

	t.Setenv("SHOP_ADMIN_URL", "https://admin.example.com")
	assert.Equal(t, "https://admin.example.com", determineBaseURL(cfg))

	cfg.WebAdmin.BaseURL = "https://shop.example.com"
	assert.True(t, strings.HasPrefix(determineBaseURL(cfg), "https://shop."))
}

func TestSweepOnce_WithNoDialogsOpen(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NotNil(t, srv.admin)

	srv.sweepOnce(context.Background())

	pruned, err := srv.admin.PruneDialogs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pruned)
}
