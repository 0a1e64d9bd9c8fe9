// ABOUTME: Admin web UI for the shop dashboard
// ABOUTME: Provides cookie sessions, CSRF protection, the route guard, and page routes

package webadmin

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/confirm"
	"github.com/2389/shop-admin/internal/guard"
	"github.com/2389/shop-admin/internal/store"
)

// Username validation regex: alphanumeric + underscores, 3-32 characters
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "shop_admin_session"

	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "shop_admin_csrf"

	// DefaultSessionDuration is how long sessions last when Config leaves it unset
	DefaultSessionDuration = 7 * 24 * time.Hour

	// LoginPath and HomePath are the two pages the route guard sends users to
	LoginPath = "/admin/login"
	HomePath  = "/admin/"
)

type contextKey string

const (
	userContextKey    contextKey = "admin_user"
	sessionContextKey contextKey = "admin_session"
	csrfContextKey    contextKey = "csrf_token"
)

// Observer receives login, navigation, and confirmation events.
// *metrics.Registry satisfies it.
type Observer interface {
	guard.Observer
	confirm.Observer
	Login(surface string, ok bool)
}

// Config holds admin UI configuration
type Config struct {
	// BaseURL is the external URL of the dashboard. An https URL marks
	// cookies Secure even behind a TLS-terminating proxy.
	BaseURL string

	// SessionDuration is how long a browser session stays valid
	SessionDuration time.Duration

	Logger   *slog.Logger
	Observer Observer
}

// Admin handles admin UI routes and authentication
type Admin struct {
	store    store.Store
	config   Config
	policy   guard.Policy
	dialogs  *dialogs
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// New creates a new Admin handler
func New(s store.Store, cfg Config) *Admin {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultSessionDuration
	}
	base := cfg.Logger
	if base == nil {
		base = slog.Default()
	}

	return &Admin{
		store:    s,
		config:   cfg,
		policy:   guard.Policy{LoginPath: LoginPath, HomePath: HomePath},
		dialogs:  newDialogs(base.With("component", "confirm"), cfg.Observer),
		logger:   base.With("component", "admin"),
		observer: cfg.Observer,
		now:      time.Now,
	}
}

// RegisterRoutes registers all admin routes on the given mux. Every route
// sits behind the route guard; handlers that need the signed-in user are
// additionally wrapped by requireAuth.
func (a *Admin) RegisterRoutes(mux *http.ServeMux) {
	inner := http.NewServeMux()

	// Login page (the guard lets only signed-out users through)
	inner.HandleFunc("GET /admin/login", a.handleLoginPage)
	inner.HandleFunc("POST /admin/login", a.handleLogin)
	inner.HandleFunc("POST /admin/logout", a.requireAuth(a.handleLogout))

	inner.HandleFunc("GET /admin/{$}", a.requireAuth(a.handleDashboard))

	// Products
	inner.HandleFunc("GET /admin/products", a.requireAuth(a.handleProductsPage))
	inner.HandleFunc("POST /admin/products", a.requireAuth(a.requireCSRF(a.handleCreateProduct)))
	inner.HandleFunc("GET /admin/products/{id}", a.requireAuth(a.handleProductPage))
	inner.HandleFunc("POST /admin/products/{id}", a.requireAuth(a.requireCSRF(a.handleUpdateProduct)))
	inner.HandleFunc("POST /admin/products/{id}/delete", a.requireAuth(a.requireCSRF(a.handleDeleteProduct)))

	// Orders
	inner.HandleFunc("GET /admin/orders", a.requireAuth(a.handleOrdersPage))
	inner.HandleFunc("GET /admin/orders/{id}", a.requireAuth(a.handleOrderPage))
	inner.HandleFunc("POST /admin/orders/{id}/status", a.requireAuth(a.requireCSRF(a.handleOrderStatus)))
	inner.HandleFunc("POST /admin/orders/{id}/delete", a.requireAuth(a.requireCSRF(a.handleDeleteOrder)))

	// SEO pages
	inner.HandleFunc("GET /admin/pages", a.requireAuth(a.handlePagesPage))
	inner.HandleFunc("POST /admin/pages", a.requireAuth(a.requireCSRF(a.handleCreatePage)))
	inner.HandleFunc("GET /admin/pages/{id}", a.requireAuth(a.handlePagePage))
	inner.HandleFunc("POST /admin/pages/{id}", a.requireAuth(a.requireCSRF(a.handleUpdatePage)))
	inner.HandleFunc("GET /admin/pages/{id}/preview", a.requireAuth(a.handlePagePreview))
	inner.HandleFunc("POST /admin/pages/{id}/delete", a.requireAuth(a.requireCSRF(a.handleDeletePage)))

	// Admin users
	inner.HandleFunc("GET /admin/users", a.requireAuth(a.handleUsersPage))
	inner.HandleFunc("POST /admin/users", a.requireAuth(a.requireCSRF(a.handleCreateUser)))

	// Confirmation dialog (htmx partial plus its two answers)
	inner.HandleFunc("GET /admin/confirm", a.requireAuth(a.handleConfirmDialog))
	inner.HandleFunc("POST /admin/confirm/accept", a.requireAuth(a.requireCSRF(a.handleConfirmAccept)))
	inner.HandleFunc("POST /admin/confirm/cancel", a.requireAuth(a.requireCSRF(a.handleConfirmCancel)))

	var obs guard.Observer
	if a.observer != nil {
		obs = a.observer
	}
	guarded := guard.Middleware(a.policy, a.hasSession, a.logger, obs)
	mux.Handle("/admin/", guarded(inner))

	a.logger.Info("admin routes registered", "base_url", a.config.BaseURL)
}

// hasSession reports whether the request carries a live session cookie
func (a *Admin) hasSession(r *http.Request) bool {
	_, err := a.sessionFromRequest(r)
	return err == nil
}

// sessionFromRequest looks up the session named by the session cookie
func (a *Admin) sessionFromRequest(r *http.Request) (*store.AdminSession, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}
	if cookie.Value == "" {
		return nil, store.ErrAdminSessionNotFound
	}
	return a.store.GetAdminSession(r.Context(), cookie.Value)
}

// requireAuth wraps a handler to require a signed-in user
func (a *Admin) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := a.sessionFromRequest(r)
		if err != nil {
			http.Redirect(w, r, a.policy.LoginPath, http.StatusSeeOther)
			return
		}

		user, err := a.store.GetAdminUser(r.Context(), session.UserID)
		if err != nil {
			// Session outlived its user: drop it so the guard stops allowing it
			a.dialogs.forget(session.ID)
			_ = a.store.DeleteAdminSession(r.Context(), session.ID)
			clearCookie(w, SessionCookieName)
			http.Redirect(w, r, a.policy.LoginPath, http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, sessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// requireCSRF rejects form posts whose token does not match the CSRF cookie
func (a *Admin) requireCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if !a.validateCSRF(r) {
			a.logger.Warn("rejected request with invalid CSRF token", "path", r.URL.Path)
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// getUserFromContext retrieves the authenticated user from the request context
func getUserFromContext(r *http.Request) *store.AdminUser {
	user, _ := r.Context().Value(userContextKey).(*store.AdminUser)
	return user
}

func getSessionFromContext(r *http.Request) *store.AdminSession {
	session, _ := r.Context().Value(sessionContextKey).(*store.AdminSession)
	return session
}

// ensureCSRFToken generates a CSRF token if not present and adds it to context
func (a *Admin) ensureCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	if token, ok := r.Context().Value(csrfContextKey).(string); ok && token != "" {
		return r, token
	}

	cookie, err := r.Cookie(CSRFCookieName)
	if err == nil && cookie.Value != "" {
		ctx := context.WithValue(r.Context(), csrfContextKey, cookie.Value)
		return r.WithContext(ctx), cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		a.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // fails validation on the next post
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   a.secureCookies(r),
		SameSite: http.SameSiteStrictMode,
	})

	ctx := context.WithValue(r.Context(), csrfContextKey, token)
	return r.WithContext(ctx), token
}

// validateCSRF checks the CSRF token from form against cookie
func (a *Admin) validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		// htmx requests send it as a header
		formToken = r.Header.Get("X-CSRF-Token")
	}

	return formToken != "" && formToken == cookie.Value
}

// createSession creates a new session for a user and sets the cookie
func (a *Admin) createSession(w http.ResponseWriter, r *http.Request, userID string) error {
	sessionID, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	now := a.now()
	session := &store.AdminSession{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.config.SessionDuration),
	}

	if err := a.store.CreateAdminSession(r.Context(), session); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/admin",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   a.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// secureCookies reports whether cookies should carry the Secure flag
func (a *Admin) secureCookies(r *http.Request) bool {
	return r.TLS != nil || strings.HasPrefix(a.config.BaseURL, "https://")
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// handleLoginPage renders the login page
func (a *Admin) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	a.renderLoginPage(w, r, http.StatusOK, "", csrfToken)
}

// handleLogin processes login form submission
func (a *Admin) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		r, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, r, http.StatusBadRequest, "Invalid form data", csrfToken)
		return
	}

	if !a.validateCSRF(r) {
		r, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, r, http.StatusForbidden, "Invalid request, please try again", csrfToken)
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		r, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, r, http.StatusBadRequest, "Username and password required", csrfToken)
		return
	}

	user, err := auth.CheckCredentials(r.Context(), a.store, username, password)
	a.recordLogin(err == nil)
	if err != nil {
		r, csrfToken := a.ensureCSRFToken(w, r)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			a.logger.Info("admin login failed", "username", username)
			a.renderLoginPage(w, r, http.StatusUnauthorized, "Invalid username or password", csrfToken)
			return
		}
		a.logger.Error("failed to check credentials", "error", err)
		a.renderLoginPage(w, r, http.StatusInternalServerError, "An error occurred", csrfToken)
		return
	}

	if err := a.createSession(w, r, user.ID); err != nil {
		a.logger.Error("failed to create session", "error", err)
		r, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, r, http.StatusInternalServerError, "An error occurred", csrfToken)
		return
	}

	a.logger.Info("admin login successful", "username", username)
	http.Redirect(w, r, a.policy.HomePath, http.StatusSeeOther)
}

func (a *Admin) recordLogin(ok bool) {
	if a.observer != nil {
		a.observer.Login("web", ok)
	}
}

// handleLogout logs out the current user
func (a *Admin) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		// Logout is never blocked on CSRF; a forged logout only signs the user out
		if !a.validateCSRF(r) {
			a.logger.Warn("logout request with invalid CSRF token")
		}
	}

	if session := getSessionFromContext(r); session != nil {
		a.dialogs.forget(session.ID)
		if err := a.store.DeleteAdminSession(r.Context(), session.ID); err != nil {
			a.logger.Error("failed to delete session", "error", err)
		}
	}

	clearCookie(w, SessionCookieName)
	clearCookie(w, CSRFCookieName)

	http.Redirect(w, r, a.policy.LoginPath, http.StatusSeeOther)
}

// handleDashboard renders the main admin dashboard
func (a *Admin) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := dashboardData{}

	var err error
	if data.Products, err = a.store.CountProducts(ctx); err != nil {
		a.serverError(w, "count products", err)
		return
	}
	if data.Orders, err = a.store.CountOrders(ctx, nil); err != nil {
		a.serverError(w, "count orders", err)
		return
	}
	for _, status := range store.OrderStatuses {
		n, err := a.store.CountOrders(ctx, &status)
		if err != nil {
			a.serverError(w, "count orders", err)
			return
		}
		data.ByStatus = append(data.ByStatus, statusCount{Status: status, Count: n})
	}
	if data.Admins, err = a.store.CountAdminUsers(ctx); err != nil {
		a.serverError(w, "count admin users", err)
		return
	}

	data.layout = a.layoutFor(w, r, "Dashboard")
	a.render(w, http.StatusOK, "dashboard.html", data)
}

// serverError logs err and writes a bare 500
func (a *Admin) serverError(w http.ResponseWriter, op string, err error) {
	a.logger.Error("admin request failed", "op", op, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validateUsername checks if username meets requirements
// Returns an error message or empty string if valid
func validateUsername(username string) string {
	if len(username) < 3 {
		return "Username must be at least 3 characters"
	}
	if len(username) > 32 {
		return "Username must be at most 32 characters"
	}
	if !usernameRegex.MatchString(username) {
		return "Username must start with a letter and contain only letters, numbers, and underscores"
	}
	return ""
}
