// Package middleware provides the gin middleware of the host server:
// request IDs, trace context extraction, panic recovery and access logging.
package middleware
