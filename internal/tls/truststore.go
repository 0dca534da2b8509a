package tls

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"

	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// LoadTrustStore reads the certificates of a PKCS#12 or PEM trust store.
// The password is ignored for PEM bundles.
func LoadTrustStore(path, password string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path) //nolint:gosec // trust store path from operator config
	if err != nil {
		return nil, newTrustStoreError(path, "failed to read trust store", err)
	}

	if isPEM(data) {
		certs, err := ParsePEMCertificates(data)
		if err != nil {
			return nil, newTrustStoreError(path, "failed to parse PEM trust store", err)
		}
		return certs, nil
	}

	certs, err := pkcs12.DecodeTrustStore(data, password)
	if err != nil {
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			return nil, newTrustStoreError(path, "failed to decode PKCS#12 trust store", ErrTrustStorePassword)
		}
		return nil, newTrustStoreError(path, "failed to decode PKCS#12 trust store",
			errors.Join(ErrTrustStoreInvalid, err))
	}

	if len(certs) == 0 {
		return nil, newTrustStoreError(path, "no trusted certificates", ErrTrustStoreEmpty)
	}

	return certs, nil
}

// ParsePEMCertificates parses every CERTIFICATE block in pemData.
func ParsePEMCertificates(pemData []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}

		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.Join(ErrTrustStoreInvalid, err)
		}

		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, ErrTrustStoreEmpty
	}

	return certs, nil
}

// CertPool builds a pool holding exactly certs.
func CertPool(certs []*x509.Certificate) *x509.CertPool {
	pool := x509.NewCertPool()
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool
}

func isPEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN "))
}
