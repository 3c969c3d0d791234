package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"atspro/internal/config"
)

// MockVaultClient is a mock implementation for testing
type MockVaultClient struct {
	mu      sync.Mutex
	secrets map[string]*config.VaultSecret
}

func (m *MockVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if secret, exists := m.secrets[path]; exists {
		return secret, nil
	}
	return nil, fmt.Errorf("secret not found at path: %s", path)
}

func (m *MockVaultClient) set(path string, secret *config.VaultSecret) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[path] = secret
}

func TestVaultWatcherFetchNewCertsFromVault(t *testing.T) {
	mockClient := &MockVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/tls": {
				Data: map[string]any{
					"cert": "new-cert-content",
					"key":  "new-key-content",
					"ca":   "new-ca-content",
				},
				Version: 1,
			},
			"secret/data/empty": {Data: map[string]any{}, Version: 1},
		},
	}

	vw := NewVaultWatcher(mockClient, "secret/data/tls", time.Minute, func(*CertificateData, error) {}, nil)

	data, err := vw.fetchNewCertsFromVault()
	if err != nil {
		t.Fatalf("fetchNewCertsFromVault failed: %v", err)
	}
	if data.CertContent != "new-cert-content" {
		t.Errorf("CertContent not fetched correctly, got: %s", data.CertContent)
	}
	if data.KeyContent != "new-key-content" {
		t.Errorf("KeyContent not fetched correctly, got: %s", data.KeyContent)
	}
	if data.CAContent != "new-ca-content" {
		t.Errorf("CAContent not fetched correctly, got: %s", data.CAContent)
	}

	empty := NewVaultWatcher(mockClient, "secret/data/empty", time.Minute, func(*CertificateData, error) {}, nil)
	if _, err := empty.fetchNewCertsFromVault(); err == nil {
		t.Error("Expected an error for a secret without certificate fields")
	}
}

func TestVaultWatcherCheckForUpdates(t *testing.T) {
	mockClient := &MockVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/tls": {Data: map[string]any{}, Version: 2},
		},
	}

	vw := NewVaultWatcher(mockClient, "secret/data/tls", time.Minute, func(*CertificateData, error) {}, nil)

	// Version 0 to 2 is a change
	changed, err := vw.checkForUpdates()
	if err != nil {
		t.Fatalf("checkForUpdates failed: %v", err)
	}
	if !changed {
		t.Error("Expected change to be detected")
	}

	changed, err = vw.checkForUpdates()
	if err != nil {
		t.Fatalf("checkForUpdates failed: %v", err)
	}
	if changed {
		t.Error("Expected no change to be detected")
	}

	missing := NewVaultWatcher(mockClient, "secret/data/missing", time.Minute, func(*CertificateData, error) {}, nil)
	if _, err := missing.checkForUpdates(); err == nil {
		t.Error("Expected an error for a missing secret")
	}
}

func TestVaultWatcherPollDeliversNewVersion(t *testing.T) {
	mockClient := &MockVaultClient{
		secrets: map[string]*config.VaultSecret{
			"secret/data/tls": {Data: map[string]any{"cert": "v1-cert", "key": "v1-key"}, Version: 1},
		},
	}

	var got []*CertificateData
	vw := NewVaultWatcher(mockClient, "secret/data/tls", time.Hour, func(data *CertificateData, err error) {
		if err != nil {
			t.Errorf("unexpected callback error: %v", err)
			return
		}
		got = append(got, data)
	}, nil)

	if err := vw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer vw.Stop()

	// The version already loaded at start is not reported again
	vw.poll()
	if len(got) != 0 {
		t.Fatalf("Expected no reload for the initial version, got %d", len(got))
	}

	mockClient.set("secret/data/tls", &config.VaultSecret{Data: map[string]any{"cert": "v2-cert", "key": "v2-key"}, Version: 2})
	vw.poll()
	if len(got) != 1 {
		t.Fatalf("Expected one reload, got %d", len(got))
	}
	if got[0].CertContent != "v2-cert" {
		t.Errorf("Expected v2 content, got %s", got[0].CertContent)
	}

	status := vw.Status()
	if status["last_version"] != int64(2) {
		t.Errorf("Expected last_version 2, got %v", status["last_version"])
	}
	if status["running"] != true {
		t.Error("Expected watcher to report running")
	}
}
