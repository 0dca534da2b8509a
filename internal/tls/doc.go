// Package tls configures the trust material used by the outbound TLS client
// that talks to the authorization server.
//
// Trust is configured once per process, before any introspection client is
// built:
//
//	trust, err := tls.ConfigureTrust(cfg.TrustStore, logger)
//	if err != nil {
//	    return fmt.Errorf("configure trust store: %w", err)
//	}
//	transport := tls.ClientTransport()
//
// Supported trust stores are PKCS#12 files (the default keystore type of
// modern JVMs, so stores shared with Java services work unchanged) and PEM
// bundles. When a store is applied its certificates replace the system roots.
// When the path/password pair is incomplete, the system roots stay in effect.
package tls
