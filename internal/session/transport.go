// ABOUTME: http.RoundTripper that attaches the current session token
// ABOUTME: Reads the token on every request so login/logout take effect immediately

package session

import "net/http"

// TokenSource is anything that can report the current bearer token.
type TokenSource interface {
	Token() string
}

// Transport adds "Authorization: Bearer <token>" to outgoing requests when
// Source holds a non-empty token.
type Transport struct {
	Source TokenSource
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token := ""
	if t.Source != nil {
		token = t.Source.Token()
	}
	if token == "" || req.Header.Get("Authorization") != "" {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(clone)
}
