// ABOUTME: net/http middleware that applies the guard policy to each request
// ABOUTME: Redirects with 303 See Other; the session check is supplied by the caller

package guard

import (
	"log/slog"
	"net/http"
)

// Observer is told about every decision the middleware makes.
type Observer interface {
	GuardDecision(d Decision)
}

// Middleware evaluates p on every request. hasSession reports whether the
// request carries a live session.
func Middleware(p Policy, hasSession func(*http.Request) bool, logger *slog.Logger, obs Observer) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "guard")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := p.Decide(hasSession(r), r.URL.Path)
			if obs != nil {
				obs.GuardDecision(v.Decision)
			}

			if v.Decision == Allow {
				next.ServeHTTP(w, r)
				return
			}

			logger.Debug("navigation redirected", "path", r.URL.Path, "decision", v.Decision.String(), "location", v.Location)
			http.Redirect(w, r, v.Location, http.StatusSeeOther)
		})
	}
}
