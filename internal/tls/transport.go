package tls

import (
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"sync"

	"github.com/vyrodovalexey/bpmnauth/internal/config"
	"github.com/vyrodovalexey/bpmnauth/internal/observability"
)

// Trust source values reported by Trust.Source.
const (
	TrustSourceSystem     = "system"
	TrustSourceTrustStore = "truststore"
)

// Trust describes the trust material in effect for outbound TLS.
type Trust struct {
	// Source is TrustSourceSystem or TrustSourceTrustStore.
	Source string

	// Path is the trust store path when Source is TrustSourceTrustStore.
	Path string

	// Certificates is the number of trusted certificates loaded from the store.
	Certificates int

	// RootCAs is nil when the system roots are used.
	RootCAs *x509.CertPool
}

// Applied reports whether a trust store replaced the system roots.
func (t *Trust) Applied() bool {
	return t != nil && t.Source == TrustSourceTrustStore
}

// TrustManager applies trust material at most once and hands out transports
// built from it.
type TrustManager struct {
	once  sync.Once
	mu    sync.RWMutex
	trust *Trust
	err   error
}

// NewTrustManager creates an unconfigured TrustManager.
func NewTrustManager() *TrustManager {
	return &TrustManager{}
}

// Configure loads the trust store on the first call. Later calls return the
// first result and ignore their arguments. It must run before any client
// obtained from Transport is used.
func (m *TrustManager) Configure(cfg config.TrustStoreConfig, logger observability.Logger) (*Trust, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	m.once.Do(func() {
		trust, err := buildTrust(cfg, logger)
		m.mu.Lock()
		m.trust, m.err = trust, err
		m.mu.Unlock()
	})

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trust, m.err
}

// Trust returns the configured trust, or system trust when Configure has not run.
func (m *TrustManager) Trust() *Trust {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trust == nil {
		return &Trust{Source: TrustSourceSystem}
	}
	return m.trust
}

// TLSConfig returns a client TLS configuration using the configured roots.
func (m *TrustManager) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    m.Trust().RootCAs,
	}
}

// Transport returns a new HTTP transport using the configured roots.
func (m *TrustManager) Transport() *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{TLSClientConfig: m.TLSConfig()}
	}
	transport := base.Clone()
	transport.TLSClientConfig = m.TLSConfig()
	return transport
}

func buildTrust(cfg config.TrustStoreConfig, logger observability.Logger) (*Trust, error) {
	if !cfg.IsSet() {
		if cfg.IsPartial() {
			logger.Warn("trust store path and password must be set together, using system roots",
				observability.Bool("path_set", cfg.Path != ""),
				observability.Bool("password_set", cfg.Password != ""),
			)
		}
		return &Trust{Source: TrustSourceSystem}, nil
	}

	certs, err := LoadTrustStore(cfg.Path, cfg.Password)
	if err != nil {
		return nil, err
	}

	logger.Info("trust store applied",
		observability.String("path", cfg.Path),
		observability.Int("certificates", len(certs)),
	)

	return &Trust{
		Source:       TrustSourceTrustStore,
		Path:         cfg.Path,
		Certificates: len(certs),
		RootCAs:      CertPool(certs),
	}, nil
}

var defaultManager = NewTrustManager()

// ConfigureTrust configures the process-wide trust. See TrustManager.Configure.
func ConfigureTrust(cfg config.TrustStoreConfig, logger observability.Logger) (*Trust, error) {
	return defaultManager.Configure(cfg, logger)
}

// ProcessTrust returns the process-wide trust.
func ProcessTrust() *Trust {
	return defaultManager.Trust()
}

// ClientTransport returns a transport built from the process-wide trust.
func ClientTransport() *http.Transport {
	return defaultManager.Transport()
}
