// Package auth provides authentication for the shop-admin REST API and web admin.
//
// # Passwords
//
// Admin users sign in with a username and password. Passwords are stored as
// bcrypt hashes (HashPassword) and checked with CheckCredentials, which runs
// a dummy comparison for unknown users so timing does not reveal which
// usernames exist.
//
// # JWT Tokens
//
// A successful POST /api/auth/login returns an HS256 JWT whose "sub" claim is
// the admin user ID:
//
//	verifier, err := auth.NewJWTVerifier(secret) // secret >= 32 bytes
//	token, expiresAt, err := verifier.Generate(user.ID, 24*time.Hour)
//
// HTTPAuthMiddleware verifies the bearer token on every API request, loads the
// admin, and attaches an AuthContext:
//
//	mux.Handle("/api/", auth.HTTPAuthMiddleware(store, verifier)(apiHandler))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    who := auth.MustFromContext(r.Context())
//	    ...
//	}
//
// The web admin uses cookie sessions instead; see package webadmin.
package auth
