// ABOUTME: Entry point for shop-admin: the dashboard server and its terminal client
// ABOUTME: Dispatches sub-commands and resolves config and data paths

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
      _                             _           _
  ___| |__   ___  _ __         __ _| |_ __ ___ (_)_ __
 / __| '_ \ / _ \| '_ \ _____ / _' | | '_ ' _ \| | '_ \
 \__ \ | | | (_) | |_) |_____| (_| | | | | | | | | | | |
 |___/_| |_|\___/| .__/       \__,_|_|_| |_| |_|_|_| |_|
                 |_|
`

// getConfigPath returns the path to the server config file.
// Priority: SHOP_ADMIN_CONFIG env var > XDG_CONFIG_HOME/shop-admin/server.yaml > ~/.config/shop-admin/server.yaml
func getConfigPath() string {
	if envPath := os.Getenv("SHOP_ADMIN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "server.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "shop-admin", "server.yaml")
}

// getDataPath returns the path to the shop-admin data directory.
// Priority: XDG_DATA_HOME/shop-admin > ~/.local/share/shop-admin
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "shop-admin")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	// Server side
	case "serve":
		err = runServe(ctx, args)
	case "init":
		err = runInit(args)
	case "create-admin":
		err = runCreateAdmin(ctx, args)
	case "health":
		err = runHealth(ctx, args)

	// Terminal client
	case "login", "logout", "whoami", "dashboard", "products", "orders", "pages", "users",
		"delete-product", "delete-order", "delete-page",
		"set-order-status", "set-stock", "publish-page", "unpublish-page":
		err = runClient(ctx, cmd, args)

	case "help", "-h", "--help":
		printUsage()
	case "version", "--version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: shop-admin <command> [args]")
	fmt.Println()
	yellow.Println("Server:")
	fmt.Println("  serve [-config PATH]          Start the dashboard server")
	fmt.Println("  init                          Write a server config with a fresh JWT secret")
	fmt.Println("  create-admin -username NAME   Add an admin user (password read from the terminal)")
	fmt.Println("  health [-ready]               Check a running server")
	fmt.Println()
	yellow.Println("Client:")
	fmt.Println("  login [-username NAME]        Sign in to the API")
	fmt.Println("  logout                        Forget the stored session")
	fmt.Println("  whoami                        Show the signed-in admin")
	fmt.Println("  dashboard                     Catalog and order totals")
	fmt.Println("  products                      List products")
	fmt.Println("  orders [-status STATUS]       List orders")
	fmt.Println("  pages                         List SEO pages")
	fmt.Println("  users                         List admin users")
	fmt.Println("  delete-product [-yes] <id>    Delete a product")
	fmt.Println("  delete-order [-yes] <id>      Delete an order")
	fmt.Println("  delete-page [-yes] <id>       Delete an SEO page")
	fmt.Println("  set-order-status [-yes] <id> <status>")
	fmt.Println("                                Move an order to a new status")
	fmt.Println("  set-stock <id> <count>        Change a product's stock level")
	fmt.Println("  publish-page <id>             Publish an SEO page")
	fmt.Println("  unpublish-page <id>           Take an SEO page offline")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SHOP_ADMIN_CONFIG        Server config path (default: ~/.config/shop-admin/server.yaml)")
	fmt.Println("  SHOP_ADMIN_CLIENT_CONFIG Client config path (default: ~/.config/shop-admin/client.toml)")
	fmt.Println("  SHOP_ADMIN_JWT_SECRET    Referenced by generated server configs")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  shop-admin init && shop-admin create-admin -username alice")
	fmt.Println("  shop-admin serve")
	fmt.Println("  shop-admin login -username alice")
	fmt.Println("  shop-admin orders -status pending")
	fmt.Println()
}
