// ABOUTME: Typed HTTP client for the shop-admin REST API
// ABOUTME: Rides on session.Transport so every request carries the current bearer token

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389/shop-admin/internal/api"
	"github.com/2389/shop-admin/internal/session"
)

// ErrUnauthorized is returned when the server rejects the session token.
// The session is cleared before it is returned.
var ErrUnauthorized = errors.New("not signed in or session expired")

// ErrNotFound is returned for a 404 from the API.
var ErrNotFound = errors.New("not found")

// APIError is any other non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Client talks to the REST API on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
	logger  *slog.Logger
}

// New creates a client for baseURL that authenticates with sess.
func New(baseURL string, sess *session.Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &session.Transport{Source: sess},
		},
		session: sess,
		logger:  logger.With("component", "client"),
	}
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Store {
	return c.session
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.session.SetToken(resp.Token)
	c.logger.Debug("signed in", "username", username, "expires_at", resp.ExpiresAt)
	return &resp, nil
}

// Logout forgets the session token. The server keeps no API session state.
func (c *Client) Logout() {
	c.session.Clear()
}

// Me returns the signed-in admin.
func (c *Client) Me(ctx context.Context) (*api.UserResponse, error) {
	var resp api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUsers returns every admin user.
func (c *Client) ListUsers(ctx context.Context) ([]api.UserResponse, error) {
	var resp []api.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// do sends one JSON request. in may be nil; out may be nil for 204 responses.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return c.handleErrorResponse(resp, path)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// handleErrorResponse maps a non-2xx response to an error.
func (c *Client) handleErrorResponse(resp *http.Response, path string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	msg := strings.TrimSpace(string(data))
	var errResp api.ErrorResponse
	if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		// A failed login is a credentials problem, not a dead session
		if path == "/api/auth/login" {
			return &APIError{Status: resp.StatusCode, Message: msg}
		}
		if c.session.HasToken() {
			c.logger.Info("session rejected by server, signing out", "reason", msg)
			c.session.Clear()
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
}

func escape(id string) string {
	return url.PathEscape(id)
}
