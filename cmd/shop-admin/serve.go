// ABOUTME: Server-side sub-commands: serve, init, create-admin, and health
// ABOUTME: These read the YAML server config and talk to the database or a running server

package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/config"
	"github.com/2389/shop-admin/internal/server"
	"github.com/2389/shop-admin/internal/store"
)

// configFlag registers -config on fs, defaulting to getConfigPath().
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", getConfigPath(), "server config file")
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", *configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
	}
	fmt.Println()

	logger.Info("starting shop-admin",
		"config", *configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

// serverConfigTemplate is written by init. The secret is inlined; operators
// who keep it elsewhere can replace it with ${SHOP_ADMIN_JWT_SECRET}.
const serverConfigTemplate = `# shop-admin server configuration
# Generated by shop-admin init

server:
  http_addr: %q

database:
  path: %q

auth:
  jwt_secret: %q
  token_ttl: "24h"

logging:
  level: "info"
  format: "text"

metrics:
  enabled: false
  path: "/metrics"

webadmin:
  session_ttl: "168h"
`

// runInit writes a fresh server config with a random JWT secret.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := configFlag(fs)
	httpAddr := fs.String("http-addr", config.DefaultHTTPAddr, "HTTP listen address")
	dbPath := fs.String("db", filepath.Join(getDataPath(), "shop.db"), "SQLite database path")
	force := fs.Bool("force", false, "overwrite an existing config")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*configPath); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *configPath)
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(*configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	content := fmt.Sprintf(serverConfigTemplate, *httpAddr, *dbPath, secret)
	if err := os.WriteFile(*configPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Round-trip so a bad flag value fails here rather than at serve time
	if _, err := config.Load(*configPath); err != nil {
		return fmt.Errorf("validating generated config: %w", err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	green.Printf("  ✓ Created config: %s\n", *configPath)
	fmt.Printf("    Database:  %s\n", *dbPath)
	fmt.Println()
	yellow.Println("  Next:")
	fmt.Println("    shop-admin create-admin -username <name>")
	fmt.Println("    shop-admin serve")
	fmt.Println()
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// runCreateAdmin adds an admin user straight to the database.
func runCreateAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	configPath := configFlag(fs)
	username := fs.String("username", "", "login name (required)")
	displayName := fs.String("display-name", "", "name shown in the dashboard")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name := strings.TrimSpace(*username)
	if name == "" {
		return fmt.Errorf("-username is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	password, err := passwordReader("Password")
	if err != nil {
		return err
	}
	if len(password) < auth.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	confirmation, err := passwordReader("Confirm password")
	if err != nil {
		return err
	}
	if password != confirmation {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	s, err := server.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	user := &store.AdminUser{
		ID:           uuid.New().String(),
		Username:     name,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(*displayName),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.CreateAdminUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			return fmt.Errorf("admin %q already exists", name)
		}
		return fmt.Errorf("creating admin: %w", err)
	}

	color.New(color.FgGreen).Printf("  ✓ Created admin: %s\n", name)
	return nil
}

// runHealth checks /health (or /health/ready) on the configured address.
func runHealth(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	configPath := configFlag(fs)
	ready := fs.Bool("ready", false, "check readiness instead of liveness")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path := "/health"
	if *ready {
		path = "/health/ready"
	}

	body, err := checkHealth(ctx, http.DefaultClient, "http://"+cfg.Server.HTTPAddr+path)
	if err != nil {
		return err
	}
	fmt.Println(body)
	return nil
}

func checkHealth(ctx context.Context, c *http.Client, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
