// ABOUTME: Route guard decision table keyed on session presence and login path
// ABOUTME: Pure and total; re-evaluated on every navigation, never cached

package guard

import "strings"

// Decision is the outcome of evaluating a navigation attempt.
type Decision int

const (
	// Allow renders the destination.
	Allow Decision = iota
	// RedirectLogin sends an unauthenticated user to the login page.
	RedirectLogin
	// RedirectHome sends an authenticated user away from the login page.
	RedirectHome
)

// String returns a stable label, used for logs and metrics.
func (d Decision) String() string {
	switch d {
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "allow"
	}
}

// Default paths for the login page and the authenticated landing page.
const (
	DefaultLoginPath = "/auth/login"
	DefaultHomePath  = "/dashboard"
)

// Verdict is a Decision plus where to go. Location is empty for Allow.
type Verdict struct {
	Decision Decision
	Location string
}

// Policy names the two pages the guard routes between.
type Policy struct {
	LoginPath string
	HomePath  string
}

// DefaultPolicy returns the policy for the default paths.
func DefaultPolicy() Policy {
	return Policy{LoginPath: DefaultLoginPath, HomePath: DefaultHomePath}
}

// Decide evaluates one navigation attempt:
//
//	hasToken  at login  decision
//	false     true      Allow
//	false     false     RedirectLogin
//	true      true      RedirectHome
//	true      false     Allow
func (p Policy) Decide(hasToken bool, path string) Verdict {
	atLogin := p.IsLoginPath(path)
	switch {
	case !hasToken && !atLogin:
		return Verdict{Decision: RedirectLogin, Location: p.loginPath()}
	case hasToken && atLogin:
		return Verdict{Decision: RedirectHome, Location: p.homePath()}
	default:
		return Verdict{Decision: Allow}
	}
}

// IsLoginPath reports whether path addresses the login page. A trailing
// slash, query string, or fragment does not change the answer.
func (p Policy) IsLoginPath(path string) bool {
	return normalize(path) == normalize(p.loginPath())
}

func (p Policy) loginPath() string {
	if p.LoginPath == "" {
		return DefaultLoginPath
	}
	return p.LoginPath
}

func (p Policy) homePath() string {
	if p.HomePath == "" {
		return DefaultHomePath
	}
	return p.HomePath
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if path == "" {
		return "/"
	}
	return path
}
