package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"atspro/internal/config"
	"atspro/internal/errors"
	"atspro/internal/observability"
)

// CertificateManager manages TLS certificates with auto-reload capability
type CertificateManager struct {
	mu sync.RWMutex

	// Current certificates
	serverCert *tls.Certificate
	caCertPool *x509.CertPool

	// Certificate metadata
	serverCertExpiry time.Time
	lastReloadTime   time.Time

	// Watchers
	fileWatcher  *CertWatcher
	vaultWatcher *VaultWatcher

	// Configuration
	config      *config.TLSConfig
	vaultClient VaultClientInterface
	vaultPath   string

	reloadCallbacks []ReloadCallback
	logger          *errors.Logger
	om              *observability.ObservabilityManager

	// Internal metrics tracking
	reloadCount        int64
	reloadSuccessCount int64
	reloadFailureCount int64
	lastReloadSuccess  bool
	lastReloadError    string
}

// ReloadCallback is called when certificates are reloaded
type ReloadCallback func(success bool, err error)

// CertificateMetrics holds metrics about certificate operations
type CertificateMetrics struct {
	ReloadCount        int64
	ReloadSuccessCount int64
	ReloadFailureCount int64
	LastReloadTime     time.Time
	LastReloadSuccess  bool
	LastReloadError    string
}

// NewCertificateManager creates a new certificate manager. vaultPath is the
// KV v2 path the PEM content came from, empty for file based certificates.
func NewCertificateManager(tlsConfig *config.TLSConfig, vaultClient VaultClientInterface, vaultPath string, om *observability.ObservabilityManager, logger *errors.Logger) *CertificateManager {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &CertificateManager{
		config:      tlsConfig,
		vaultClient: vaultClient,
		vaultPath:   vaultPath,
		om:          om,
		logger:      logger,
	}
}

// Start loads the certificates and starts whichever watcher matches their source
func (cm *CertificateManager) Start() error {
	if err := cm.loadCertificates(); err != nil {
		return fmt.Errorf("failed to load initial certificates: %w", err)
	}

	if err := cm.startFileWatcher(); err != nil {
		return err
	}

	return cm.startVaultWatcher()
}

// startFileWatcher watches certificate files when certificates come from disk
func (cm *CertificateManager) startFileWatcher() error {
	if cm.config.CertFile == "" && cm.config.KeyFile == "" && cm.config.CAFile == "" {
		return nil
	}

	watcher, err := NewCertWatcher(
		cm.config.CertFile,
		cm.config.KeyFile,
		cm.config.CAFile,
		cm.config.AutoReload.DebounceDelay,
		cm.triggerReload,
		cm.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	cm.fileWatcher = watcher
	return nil
}

// startVaultWatcher polls Vault when certificates come from a Vault secret
func (cm *CertificateManager) startVaultWatcher() error {
	if cm.config.CertContent == "" && cm.config.KeyContent == "" && cm.config.CAContent == "" {
		return nil
	}
	if cm.vaultClient == nil || cm.vaultPath == "" {
		cm.logger.Warn("Certificates came from Vault but no Vault client is available; auto-reload is off")
		return nil
	}

	vw := NewVaultWatcher(cm.vaultClient, cm.vaultPath, cm.config.AutoReload.VaultPollInterval, cm.applyVaultData, cm.logger)
	if err := vw.Start(); err != nil {
		return fmt.Errorf("failed to start Vault watcher: %w", err)
	}
	cm.vaultWatcher = vw
	return nil
}

// applyVaultData swaps in the PEM content the Vault watcher fetched
func (cm *CertificateManager) applyVaultData(data *CertificateData, err error) {
	if err != nil {
		cm.handleReloadError(err)
		return
	}

	cm.mu.Lock()
	if data.CertContent != "" {
		cm.config.CertContent = data.CertContent
	}
	if data.KeyContent != "" {
		cm.config.KeyContent = data.KeyContent
	}
	if data.CAContent != "" {
		cm.config.CAContent = data.CAContent
	}
	cm.mu.Unlock()

	cm.triggerReload()
}

// Stop stops the certificate manager and all watchers
func (cm *CertificateManager) Stop() error {
	if cm.fileWatcher != nil {
		if err := cm.fileWatcher.Stop(); err != nil {
			cm.logger.LogError(err, "Failed to stop file watcher")
			return err
		}
	}
	if cm.vaultWatcher != nil {
		if err := cm.vaultWatcher.Stop(); err != nil {
			cm.logger.LogError(err, "Failed to stop Vault watcher")
			return err
		}
	}
	cm.logger.Info("Certificate manager stopped")
	return nil
}

// GetServerCertificate returns the current server certificate for TLS handshakes
func (cm *CertificateManager) GetServerCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCert == nil {
		return nil, fmt.Errorf("no server certificate available")
	}

	if time.Now().After(cm.serverCertExpiry) {
		cm.logger.LogError(fmt.Errorf("server certificate expired"), "Server certificate expired",
			"expiry", cm.serverCertExpiry,
			"server_name", hello.ServerName)
		return nil, fmt.Errorf("server certificate expired")
	}

	return cm.serverCert, nil
}

// GetCACertPool returns the current CA certificate pool
func (cm *CertificateManager) GetCACertPool() *x509.CertPool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.caCertPool
}

// ReloadCertificates manually triggers a certificate reload
func (cm *CertificateManager) ReloadCertificates() error {
	return cm.loadCertificates()
}

// AddReloadCallback adds a callback to be called when certificates are reloaded
func (cm *CertificateManager) AddReloadCallback(callback ReloadCallback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.reloadCallbacks = append(cm.reloadCallbacks, callback)
}

// CheckExpiry returns the time until the server certificate expires
func (cm *CertificateManager) CheckExpiry() (time.Duration, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.serverCertExpiry.IsZero() {
		return 0, fmt.Errorf("no certificates loaded")
	}
	return time.Until(cm.serverCertExpiry), nil
}

// GetMetrics returns certificate management metrics
func (cm *CertificateManager) GetMetrics() *CertificateMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return &CertificateMetrics{
		ReloadCount:        cm.reloadCount,
		ReloadSuccessCount: cm.reloadSuccessCount,
		ReloadFailureCount: cm.reloadFailureCount,
		LastReloadTime:     cm.lastReloadTime,
		LastReloadSuccess:  cm.lastReloadSuccess,
		LastReloadError:    cm.lastReloadError,
	}
}

// loadCertificates loads certificates from files or content and swaps them in
// atomically. Nothing changes when any part fails to load.
func (cm *CertificateManager) loadCertificates() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cert, err := cm.loadCertificatePair()
	if err != nil {
		return fmt.Errorf("failed to load server certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse server certificate: %w", err)
	}

	var pool *x509.CertPool
	if cm.config.Mode == "mutual" {
		if pool, err = cm.loadCACertPool(); err != nil {
			return err
		}
	}

	cm.serverCert = &cert
	cm.serverCertExpiry = leaf.NotAfter
	cm.caCertPool = pool
	cm.lastReloadTime = time.Now()

	cm.updateReloadMetrics(nil)
	cm.callReloadCallbacks(true, nil)

	cm.logger.Info("Certificates loaded",
		"server_cert_expiry", cm.serverCertExpiry,
		"reload_time", cm.lastReloadTime)

	return nil
}

// loadCertificatePair prefers PEM content (Vault) over files
func (cm *CertificateManager) loadCertificatePair() (tls.Certificate, error) {
	if cm.config.CertContent != "" && cm.config.KeyContent != "" {
		return tls.X509KeyPair([]byte(cm.config.CertContent), []byte(cm.config.KeyContent))
	}
	if cm.config.CertFile != "" && cm.config.KeyFile != "" {
		return tls.LoadX509KeyPair(cm.config.CertFile, cm.config.KeyFile)
	}
	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

// loadCACertPool loads the CA pool for mutual TLS
func (cm *CertificateManager) loadCACertPool() (*x509.CertPool, error) {
	var caCert []byte
	switch {
	case cm.config.CAContent != "":
		caCert = []byte(cm.config.CAContent)
	case cm.config.CAFile != "":
		data, err := os.ReadFile(cm.config.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caCert = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode")
	}

	pool := x509.NewCertPool()
	if ok := pool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}
	return pool, nil
}

// updateReloadMetrics updates counters; callers hold cm.mu
func (cm *CertificateManager) updateReloadMetrics(err error) {
	cm.reloadCount++
	if err == nil {
		cm.reloadSuccessCount++
		cm.lastReloadSuccess = true
		cm.lastReloadError = ""
	} else {
		cm.reloadFailureCount++
		cm.lastReloadSuccess = false
		cm.lastReloadError = err.Error()
	}
	cm.om.RecordCertReload(context.Background(), cm.serverCertExpiry, err)
}

// callReloadCallbacks calls all registered reload callbacks; callers hold cm.mu
func (cm *CertificateManager) callReloadCallbacks(success bool, err error) {
	for _, callback := range cm.reloadCallbacks {
		go callback(success, err)
	}
}

// triggerReload is called by watchers to trigger a certificate reload
func (cm *CertificateManager) triggerReload() {
	cm.logger.Info("Certificate reload triggered")

	if err := cm.loadCertificates(); err != nil {
		cm.handleReloadError(err)
	}
}

// handleReloadError records a failed reload. The previous certificates stay in use.
func (cm *CertificateManager) handleReloadError(err error) {
	cm.logger.LogError(err, "Failed to reload certificates")

	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.updateReloadMetrics(err)
	cm.callReloadCallbacks(false, err)
}
