// Package server hosts the protected process engine REST surface on gin.
//
// Probes (/healthz, /livez, /readyz) and /metrics are public. Every route in
// the protected group, rooted at the configured base path, passes the bearer
// token middleware first.
package server
