// Package webadmin provides the web-based administration interface.
//
// # Overview
//
// The web admin is a server-rendered UI for:
//
//   - Products: list, create, edit, delete
//   - Orders: list by status, change status, delete
//   - SEO pages: markdown editor with a rendered preview and metadata warnings
//   - Admin users: list and add accounts
//
// # Navigation
//
// Every /admin route sits behind guard.Middleware with LoginPath
// "/admin/login" and HomePath "/admin/". A browser without a live session
// cookie is sent to the login page; a signed-in browser asking for the
// login page is sent to the dashboard.
//
// # Authentication
//
// Password login only. A successful login creates an AdminSession row and
// sets an HttpOnly session cookie scoped to /admin. Logout deletes the row.
//
// # Confirmations
//
// Each signed-in session gets its own confirm.Broker, mounted when the
// session first asks for a confirmation. Delete buttons open a destructive
// request and redirect back to the list page, where base.html renders the
// dialog. Accept runs the deletion; Cancel drops it. Opening a second
// request before answering the first replaces it.
//
// # CSRF Protection
//
// All form submissions require CSRF tokens:
//
//	<input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
//
// htmx requests may send the token in the X-CSRF-Token header instead.
//
// # Usage
//
//	admin := webadmin.New(store, webadmin.Config{Observer: registry})
//	admin.RegisterRoutes(mux)
package webadmin
