package server

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"atspro/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSigned returns a PEM cert and key valid for the given duration.
func selfSigned(t *testing.T, validFor time.Duration) (certPEM, keyPEM string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "localhost"},
		DNSNames:              []string{"localhost"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

func TestCertificateManagerLoadsContent(t *testing.T) {
	cert, key := selfSigned(t, 48*time.Hour)
	cm := NewCertificateManager(&config.TLSConfig{Mode: "server", CertContent: cert, KeyContent: key}, nil, "", nil, nil)

	require.NoError(t, cm.Start())
	defer func() { _ = cm.Stop() }()

	served, err := cm.GetServerCertificate(&tls.ClientHelloInfo{ServerName: "localhost"})
	require.NoError(t, err)
	assert.NotNil(t, served)
	assert.Nil(t, cm.GetCACertPool())

	ttl, err := cm.CheckExpiry()
	require.NoError(t, err)
	assert.InDelta(t, 48, ttl.Hours(), 0.1)

	metrics := cm.GetMetrics()
	assert.Equal(t, int64(1), metrics.ReloadSuccessCount)
	assert.True(t, metrics.LastReloadSuccess)
}

func TestCertificateManagerFailedReloadKeepsCertificate(t *testing.T) {
	cert, key := selfSigned(t, 24*time.Hour)
	cm := NewCertificateManager(&config.TLSConfig{Mode: "server", CertContent: cert, KeyContent: key}, nil, "", nil, nil)
	require.NoError(t, cm.Start())

	before, err := cm.GetServerCertificate(&tls.ClientHelloInfo{})
	require.NoError(t, err)

	cm.applyVaultData(&CertificateData{CertContent: "not a certificate"}, nil)

	after, err := cm.GetServerCertificate(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.Same(t, before, after)

	metrics := cm.GetMetrics()
	assert.Equal(t, int64(1), metrics.ReloadFailureCount)
	assert.False(t, metrics.LastReloadSuccess)
	assert.NotEmpty(t, metrics.LastReloadError)
}

func TestCertificateManagerAppliesVaultRotation(t *testing.T) {
	oldCert, oldKey := selfSigned(t, 24*time.Hour)
	newCert, newKey := selfSigned(t, 90*24*time.Hour)

	cm := NewCertificateManager(&config.TLSConfig{Mode: "server", CertContent: oldCert, KeyContent: oldKey}, nil, "", nil, nil)
	require.NoError(t, cm.Start())

	reloaded := make(chan bool, 1)
	cm.AddReloadCallback(func(success bool, err error) { reloaded <- success })

	cm.applyVaultData(&CertificateData{CertContent: newCert, KeyContent: newKey}, nil)

	select {
	case ok := <-reloaded:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback not called")
	}

	ttl, err := cm.CheckExpiry()
	require.NoError(t, err)
	assert.Greater(t, ttl, 80*24*time.Hour)
}

func TestCertificateManagerMutualRequiresCA(t *testing.T) {
	cert, key := selfSigned(t, time.Hour)

	cm := NewCertificateManager(&config.TLSConfig{Mode: "mutual", CertContent: cert, KeyContent: key}, nil, "", nil, nil)
	assert.Error(t, cm.Start())

	cm = NewCertificateManager(&config.TLSConfig{Mode: "mutual", CertContent: cert, KeyContent: key, CAContent: cert}, nil, "", nil, nil)
	require.NoError(t, cm.Start())
	assert.NotNil(t, cm.GetCACertPool())
}

func TestCertificateManagerWatchesFiles(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	cert, key := selfSigned(t, 24*time.Hour)
	require.NoError(t, os.WriteFile(certFile, []byte(cert), 0o600))
	require.NoError(t, os.WriteFile(keyFile, []byte(key), 0o600))

	cm := NewCertificateManager(&config.TLSConfig{
		Mode:       "server",
		CertFile:   certFile,
		KeyFile:    keyFile,
		AutoReload: config.AutoReloadConfig{Enabled: true, DebounceDelay: 50 * time.Millisecond},
	}, nil, "", nil, nil)
	require.NoError(t, cm.Start())
	defer func() { _ = cm.Stop() }()

	require.NotNil(t, cm.fileWatcher)
	assert.True(t, cm.fileWatcher.IsRunning())
	assert.ElementsMatch(t, []string{certFile, keyFile}, cm.fileWatcher.GetWatchedFiles())

	// Rotate the pair; the key is written first so the reload sees a matching pair.
	newCert, newKey := selfSigned(t, 30*24*time.Hour)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, os.WriteFile(keyFile, []byte(newKey), 0o600))
	require.NoError(t, os.WriteFile(certFile, []byte(newCert), 0o600))

	assert.Eventually(t, func() bool {
		ttl, err := cm.CheckExpiry()
		return err == nil && ttl > 20*24*time.Hour
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewCertWatcherRequiresFiles(t *testing.T) {
	_, err := NewCertWatcher("", "", "", time.Second, func() {}, nil)
	assert.Error(t, err)
}
