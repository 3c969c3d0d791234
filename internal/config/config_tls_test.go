package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name     string
		tls      TLSConfig
		errorMsg string
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls:  TLSConfig{Mode: "server", CertFile: "/path/to/cert.pem", KeyFile: "/path/to/key.pem"},
		},
		{
			name: "server mode with content",
			tls:  TLSConfig{Mode: "server", CertContent: "cert", KeyContent: "key", MinVersion: "1.3"},
		},
		{
			name: "mutual mode valid",
			tls: TLSConfig{
				Mode:             "mutual",
				CertFile:         "/path/to/cert.pem",
				KeyFile:          "/path/to/key.pem",
				CAContent:        "ca",
				ClientAuthPolicy: "verify",
			},
		},
		{
			name:     "invalid mode",
			tls:      TLSConfig{Mode: "invalid"},
			errorMsg: "invalid TLS mode: invalid",
		},
		{
			name:     "missing certificate",
			tls:      TLSConfig{Mode: "server", KeyFile: "/path/to/key.pem"},
			errorMsg: "TLS certificate is required for server mode",
		},
		{
			name:     "missing key",
			tls:      TLSConfig{Mode: "server", CertFile: "/path/to/cert.pem"},
			errorMsg: "TLS key is required for server mode",
		},
		{
			name:     "duplicate cert sources",
			tls:      TLSConfig{Mode: "server", CertFile: "/c.pem", CertContent: "c", KeyFile: "/k.pem"},
			errorMsg: "cannot specify both file and content for TLS certificate",
		},
		{
			name:     "mutual without CA",
			tls:      TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem"},
			errorMsg: "TLS CA certificate is required for mutual mode",
		},
		{
			name:     "duplicate CA sources",
			tls:      TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem", CAFile: "/ca.pem", CAContent: "ca"},
			errorMsg: "cannot specify both file and content for TLS CA certificate",
		},
		{
			name:     "bad client auth policy",
			tls:      TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem", CAFile: "/ca.pem", ClientAuthPolicy: "maybe"},
			errorMsg: "invalid clientAuthPolicy: maybe",
		},
		{
			name:     "bad min version",
			tls:      TLSConfig{Mode: "server", CertFile: "/c.pem", KeyFile: "/k.pem", MinVersion: "1.1"},
			errorMsg: "invalid TLS minVersion: 1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errorMsg)
			}
		})
	}
}
