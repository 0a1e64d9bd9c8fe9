// Package config handles configuration loading for shop-admin.
//
// # Server Configuration
//
// The server reads YAML, passed with -config or the SHOP_ADMIN_CONFIG
// environment variable:
//
//	server:
//	  http_addr: "127.0.0.1:8080"
//	database:
//	  path: "./shop.db"
//	auth:
//	  jwt_secret: "${SHOP_ADMIN_JWT_SECRET}"
//	  token_ttl: "24h"
//	logging:
//	  level: "info"     # debug, info, warn, error
//	  format: "text"    # text, json
//	metrics:
//	  enabled: true
//	  path: "/metrics"
//	webadmin:
//	  base_url: "https://admin.example.com"
//	  session_ttl: "168h"
//
// ${VAR_NAME} references are expanded from the environment before parsing;
// unset variables become empty strings. Durations use time.ParseDuration
// syntax.
//
// # Client Configuration
//
// The terminal client reads TOML from ~/.config/shop-admin/client.toml:
//
//	api_url = "http://127.0.0.1:8080"
//	state_path = "/home/me/.config/shop-admin/state.db"
//
// A missing file is not an error; every field has a default.
package config
