package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkcs12 "software.sslmate.com/src/go-pkcs12"
)

// newTestCA creates a self-signed CA certificate.
func newTestCA(t *testing.T, cn string) *x509.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert
}

func writePEM(t *testing.T, dir string, certs ...*x509.Certificate) string {
	t.Helper()

	var data []byte
	for _, cert := range certs {
		data = append(data, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})...)
	}

	path := filepath.Join(dir, "trust.pem")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func writePKCS12(t *testing.T, dir, password string, certs ...*x509.Certificate) string {
	t.Helper()

	data, err := pkcs12.Modern.EncodeTrustStore(certs, password)
	require.NoError(t, err)

	path := filepath.Join(dir, "trust.p12")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadTrustStore_PKCS12(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ca1 := newTestCA(t, "km-root")
	ca2 := newTestCA(t, "km-intermediate")
	path := writePKCS12(t, dir, "changeit", ca1, ca2)

	certs, err := LoadTrustStore(path, "changeit")
	require.NoError(t, err)
	require.Len(t, certs, 2)

	names := []string{certs[0].Subject.CommonName, certs[1].Subject.CommonName}
	assert.ElementsMatch(t, []string{"km-root", "km-intermediate"}, names)
}

func TestLoadTrustStore_PKCS12WrongPassword(t *testing.T) {
	t.Parallel()

	path := writePKCS12(t, t.TempDir(), "changeit", newTestCA(t, "km-root"))

	_, err := LoadTrustStore(path, "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTrustStorePassword)
	assert.ErrorIs(t, err, &TrustStoreError{})
}

func TestLoadTrustStore_PEM(t *testing.T) {
	t.Parallel()

	path := writePEM(t, t.TempDir(), newTestCA(t, "pem-root"))

	certs, err := LoadTrustStore(path, "ignored")
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "pem-root", certs[0].Subject.CommonName)
}

func TestLoadTrustStore_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.p12")
	require.NoError(t, os.WriteFile(garbage, []byte("not a keystore"), 0o600))

	keyOnly := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(keyOnly, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}}), 0o600))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.p12"), wantErr: os.ErrNotExist},
		{name: "garbage", path: garbage, wantErr: ErrTrustStoreInvalid},
		{name: "pem without certificates", path: keyOnly, wantErr: ErrTrustStoreEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			certs, err := LoadTrustStore(tt.path, "pw")
			require.Error(t, err)
			assert.Nil(t, certs)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTrustStoreError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *TrustStoreError
		expected string
	}{
		{
			name:     "path and cause",
			err:      &TrustStoreError{Path: "/t.p12", Message: "failed", Cause: ErrTrustStoreEmpty},
			expected: "trust store error at /t.p12: failed: trust store contains no certificates",
		},
		{
			name:     "path only",
			err:      &TrustStoreError{Path: "/t.p12", Message: "failed"},
			expected: "trust store error at /t.p12: failed",
		},
		{
			name:     "cause only",
			err:      &TrustStoreError{Message: "failed", Cause: ErrTrustStoreInvalid},
			expected: "trust store error: failed: trust store invalid",
		},
		{
			name:     "message only",
			err:      &TrustStoreError{Message: "failed"},
			expected: "trust store error: failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
