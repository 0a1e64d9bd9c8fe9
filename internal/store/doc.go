// Package store provides persistent storage for shop-admin using SQLite.
//
// # Architecture
//
// Two interfaces split the server's persistence:
//
//   - CatalogStore: products, orders, and SEO pages
//   - AdminStore: back-office users and browser sessions
//
// SQLiteStore implements both, and Store is their union plus Close.
// StateStore is separate: a tiny namespaced key-value table in its own file,
// used by the terminal client to persist the session token between runs.
//
// # SQLite Configuration
//
// Every database is opened with
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Timestamps are stored as RFC3339 text in UTC.
//
// # Error Handling
//
// Lookups return ErrNotFound (or ErrAdminUserNotFound / ErrAdminSessionNotFound
// for admin entities). Unique-key clashes surface as ErrDuplicateSKU,
// ErrDuplicateSlug, or ErrUsernameExists so handlers can map them to 409.
package store
