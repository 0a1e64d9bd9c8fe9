// ABOUTME: Configuration for the shop-admin terminal client
// ABOUTME: Loads TOML config from the XDG config path with environment variable expansion

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultAPIURL is used when the client config has no api_url.
const DefaultAPIURL = "http://" + DefaultHTTPAddr

// ClientConfig is the terminal client's configuration.
type ClientConfig struct {
	APIURL    string `toml:"api_url"`
	StatePath string `toml:"state_path"`
}

// DefaultClientConfigPath returns ~/.config/shop-admin/client.toml, honoring
// XDG_CONFIG_HOME.
func DefaultClientConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "shop-admin", "client.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "client.toml"
	}
	return filepath.Join(home, ".config", "shop-admin", "client.toml")
}

// LoadClient reads the client config at path. A missing file yields the
// defaults; a file that exists but does not parse is an error.
func LoadClient(path string) (*ClientConfig, error) {
	var cfg ClientConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading client config: %w", err)
	default:
		if _, err := toml.Decode(expandEnvVars(string(data)), &cfg); err != nil {
			return nil, fmt.Errorf("parsing client config: %w", err)
		}
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(filepath.Dir(path), "state.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating client config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that api_url is an http(s) URL.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url must use http or https scheme")
	}
	return nil
}
