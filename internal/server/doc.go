// Package server assembles the shop-admin backend.
//
// One HTTP server carries:
//
//	/health, /health/ready   liveness and readiness
//	/api/...                 JSON REST API (bearer JWT)
//	/admin/...               server-rendered admin UI (cookie session)
//	/metrics                 Prometheus, when metrics.enabled is set
//
// Run blocks until its context is cancelled, then shuts the HTTP server
// down with a five second grace period and closes the store. While running,
// expired web admin sessions are swept every SessionSweepInterval.
package server
