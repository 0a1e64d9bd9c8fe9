// ABOUTME: Login and identity endpoints for the REST API
// ABOUTME: Exchanges a username and password for a bearer JWT

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/2389/shop-admin/internal/auth"
)

// handleLogin handles POST /api/auth/login.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		a.sendJSONError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := auth.CheckCredentials(r.Context(), a.store, req.Username, req.Password)
	if err != nil {
		a.recordLogin(false)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			a.logger.Info("api login failed", "username", req.Username)
			a.sendJSONError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		a.logger.Error("api login lookup failed", "error", err)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	token, expiresAt, err := a.verifier.Generate(user.ID, a.tokenTTL)
	if err != nil {
		a.logger.Error("failed to issue token", "error", err)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.recordLogin(true)
	a.logger.Info("api login", "user_id", user.ID, "username", user.Username)
	a.sendJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt.UTC()})
}

func (a *API) recordLogin(ok bool) {
	if a.observer != nil {
		a.observer.Login("api", ok)
	}
}

// handleMe handles GET /api/me.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	who := auth.MustFromContext(r.Context())
	a.sendJSON(w, http.StatusOK, UserResponse{
		ID:          who.UserID,
		Username:    who.Username,
		DisplayName: who.DisplayName,
	})
}

// handleListUsers handles GET /api/users.
func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListAdminUsers(r.Context())
	if err != nil {
		a.sendStoreError(w, "list users", err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	a.sendJSON(w, http.StatusOK, resp)
}
