package server

import (
	"fmt"
	"sync"
	"time"

	"atspro/internal/config"
	"atspro/internal/errors"
)

const defaultVaultPollInterval = 5 * time.Minute

// VaultClientInterface defines the Vault operations the watcher needs
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
}

// CertificateData holds certificate data fetched from Vault
type CertificateData struct {
	CertContent string
	KeyContent  string
	CAContent   string
}

// VaultReloadCallback is called when new certificate data is available from Vault
type VaultReloadCallback func(data *CertificateData, err error)

// VaultWatcher polls a KV v2 secret holding the TLS material and hands new
// content to the certificate manager whenever the secret version increases
type VaultWatcher struct {
	mu sync.RWMutex

	client         VaultClientInterface
	secretPath     string
	pollInterval   time.Duration
	reloadCallback VaultReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
	lastCheck   time.Time
}

// NewVaultWatcher creates a new VaultWatcher
func NewVaultWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, reloadCallback VaultReloadCallback, logger *errors.Logger) *VaultWatcher {
	if pollInterval <= 0 {
		pollInterval = defaultVaultPollInterval
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &VaultWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

// Start records the version already loaded and begins polling
func (vw *VaultWatcher) Start() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if vw.running {
		return fmt.Errorf("vault watcher is already running")
	}

	if secret, err := vw.client.GetSecretV2(vw.secretPath); err == nil && secret != nil {
		vw.lastVersion = secret.Version
	} else if err != nil {
		vw.logger.Warn("Could not read initial Vault secret version", "secret_path", vw.secretPath, "error", err)
	}

	vw.running = true
	go vw.pollLoop()
	vw.logger.Info("Vault watcher started",
		"secret_path", vw.secretPath,
		"poll_interval", vw.pollInterval,
		"version", vw.lastVersion)
	return nil
}

// Stop stops the Vault watcher
func (vw *VaultWatcher) Stop() error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if !vw.running {
		return nil
	}
	close(vw.stopChan)
	vw.running = false
	vw.logger.Info("Vault watcher stopped")
	return nil
}

func (vw *VaultWatcher) pollLoop() {
	ticker := time.NewTicker(vw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vw.poll()
		case <-vw.stopChan:
			return
		}
	}
}

// poll runs one check and reports new content to the callback
func (vw *VaultWatcher) poll() {
	changed, err := vw.checkForUpdates()
	if err != nil {
		vw.logger.LogError(err, "Failed to check Vault for updates", "secret_path", vw.secretPath)
		return
	}
	if !changed {
		return
	}

	vw.logger.Info("Vault secret changed, fetching new certificate data", "version", vw.version())
	data, err := vw.fetchNewCertsFromVault()
	vw.reloadCallback(data, err)
}

// checkForUpdates checks if the Vault secret version has increased
func (vw *VaultWatcher) checkForUpdates() (bool, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return false, fmt.Errorf("secret not found at path: %s", vw.secretPath)
	}

	vw.mu.Lock()
	defer vw.mu.Unlock()
	vw.lastCheck = time.Now()
	if secret.Version > vw.lastVersion {
		vw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

// fetchNewCertsFromVault reads the cert, key and ca fields of the secret
func (vw *VaultWatcher) fetchNewCertsFromVault() (*CertificateData, error) {
	secret, err := vw.client.GetSecretV2(vw.secretPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch new TLS data from vault: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("secret not found at path: %s", vw.secretPath)
	}

	data := &CertificateData{}
	data.CertContent, _ = secret.Data["cert"].(string)
	data.KeyContent, _ = secret.Data["key"].(string)
	data.CAContent, _ = secret.Data["ca"].(string)
	if data.CertContent == "" && data.KeyContent == "" && data.CAContent == "" {
		return nil, fmt.Errorf("secret %s holds no cert, key or ca field", vw.secretPath)
	}
	return data, nil
}

func (vw *VaultWatcher) version() int64 {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return vw.lastVersion
}

// Status returns the current status of the VaultWatcher for health reporting
func (vw *VaultWatcher) Status() map[string]any {
	vw.mu.RLock()
	defer vw.mu.RUnlock()
	return map[string]any{
		"running":       vw.running,
		"poll_interval": vw.pollInterval.String(),
		"secret_path":   vw.secretPath,
		"last_version":  vw.lastVersion,
		"last_check":    vw.lastCheck,
	}
}
