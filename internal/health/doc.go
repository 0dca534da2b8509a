// Package health provides liveness and readiness endpoints.
//
// Readiness aggregates registered checks. The process registers two:
// "introspection", which verifies that the introspection endpoint is
// configured and reachable over TCP, and "trust_store", which reports the
// trust material in effect for the introspection TLS client.
//
//	checker := health.NewChecker(version)
//	checker.RegisterCheck("introspection", health.IntrospectionCheck(url, time.Second))
//	checker.RegisterCheck("trust_store", health.TrustStoreCheck(tls.ProcessTrust))
//
//	router.GET("/readyz", checker.GinReadiness)
package health
