// ABOUTME: Tests for the server-side sub-commands
// ABOUTME: init and create-admin run against temp directories; health against httptest

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/config"
	"github.com/2389/shop-admin/internal/store"
)

func initConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "etc", "server.yaml")
	dbPath = filepath.Join(dir, "data", "shop.db")

	require.NoError(t, runInit([]string{"-config", configPath, "-db", dbPath, "-http-addr", "127.0.0.1:9123"}))
	return configPath, dbPath
}

func TestInit(t *testing.T) {
	withoutColor(t)
	configPath, dbPath := initConfig(t)

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9123", cfg.Server.HTTPAddr)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.GreaterOrEqual(t, len(cfg.Auth.JWTSecret), 32)

	err = runInit([]string{"-config", configPath, "-db", dbPath})
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, runInit([]string{"-config", configPath, "-db", dbPath, "-force"}))
	again, err := config.Load(configPath)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Auth.JWTSecret, again.Auth.JWTSecret)
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	prev := passwordReader
	passwordReader = func(string) (string, error) {
		require.NotEmpty(t, answers, "unexpected password prompt")
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	t.Cleanup(func() { passwordReader = prev })
}

func TestCreateAdmin(t *testing.T) {
	withoutColor(t)
	t.Setenv("SHOP_ADMIN_DB_PATH", "")
	configPath, dbPath := initConfig(t)
	ctx := context.Background()

	stubPasswords(t, "hunter2hunter2", "hunter2hunter2")
	require.NoError(t, runCreateAdmin(ctx, []string{"-config", configPath, "-username", "alice", "-display-name", "Alice"}))

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	user, err := auth.CheckCredentials(ctx, s, "alice", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.DisplayName)
	require.NoError(t, s.Close())

	stubPasswords(t, "hunter2hunter2", "hunter2hunter2")
	err = runCreateAdmin(ctx, []string{"-config", configPath, "-username", "alice"})
	assert.ErrorContains(t, err, "already exists")
}

func TestCreateAdmin_Validation(t *testing.T) {
	withoutColor(t)
	configPath, _ := initConfig(t)
	ctx := context.Background()

	assert.ErrorContains(t, runCreateAdmin(ctx, []string{"-config", configPath}), "-username is required")

	stubPasswords(t, "short")
	assert.ErrorContains(t, runCreateAdmin(ctx, []string{"-config", configPath, "-username", "bob"}), "at least")

	stubPasswords(t, "hunter2hunter2", "hunter3hunter3")
	assert.ErrorContains(t, runCreateAdmin(ctx, []string{"-config", configPath, "-username", "bob"}), "do not match")
}

func TestCheckHealth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/ready" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("no admin users; run shop-admin create-admin"))
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer ts.Close()

	body, err := checkHealth(context.Background(), ts.Client(), ts.URL+"/health")
	require.NoError(t, err)
	assert.Equal(t, "OK", body)

	_, err = checkHealth(context.Background(), ts.Client(), ts.URL+"/health/ready")
	assert.ErrorContains(t, err, "status 503")
	assert.ErrorContains(t, err, "create-admin")
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("SHOP_ADMIN_CONFIG", "/etc/shop-admin.yaml")
	assert.Equal(t, "/etc/shop-admin.yaml", getConfigPath())

	t.Setenv("SHOP_ADMIN_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "shop-admin", "server.yaml"), getConfigPath())

	t.Setenv("XDG_DATA_HOME", "/xdgdata")
	assert.Equal(t, filepath.Join("/xdgdata", "shop-admin"), getDataPath())
}
