// ABOUTME: Admin user management page
// ABOUTME: Signed-in admins can list accounts and add new ones with a password

package webadmin

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/shop-admin/internal/auth"
	"github.com/2389/shop-admin/internal/store"
)

// handleUsersPage lists admin accounts
func (a *Admin) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	a.renderUsers(w, r, http.StatusOK, "", "")
}

func (a *Admin) renderUsers(w http.ResponseWriter, r *http.Request, status int, username, errorMsg string) {
	users, err := a.store.ListAdminUsers(r.Context())
	if err != nil {
		a.serverError(w, "list admin users", err)
		return
	}

	data := usersData{Users: users, Username: username}
	data.layout = a.layoutFor(w, r, "Admin users")
	data.Error = errorMsg
	a.render(w, status, "users.html", data)
}

// handleCreateUser adds an admin account
func (a *Admin) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	displayName := strings.TrimSpace(r.FormValue("display_name"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("password_confirm")

	if msg := validateUsername(username); msg != "" {
		a.renderUsers(w, r, http.StatusBadRequest, username, msg)
		return
	}
	if len(password) < auth.MinPasswordLength {
		a.renderUsers(w, r, http.StatusBadRequest, username, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
		return
	}
	if password != confirmPassword {
		a.renderUsers(w, r, http.StatusBadRequest, username, "Passwords do not match")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		a.serverError(w, "hash password", err)
		return
	}

	if displayName == "" {
		displayName = username
	}
	user := &store.AdminUser{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.CreateAdminUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			a.renderUsers(w, r, http.StatusConflict, username, "Username is already taken")
			return
		}
		a.serverError(w, "create admin user", err)
		return
	}

	a.logger.Info("admin user created", "username", username, "by", getUserFromContext(r).Username)
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
