package config

import "fmt"

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tls := c.Server.TLS

	switch tls.Mode {
	case "disabled":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tls.Mode)
	}

	if err := requireOneSource("certificate", tls.CertFile, tls.CertContent, tls.Mode); err != nil {
		return err
	}
	if err := requireOneSource("key", tls.KeyFile, tls.KeyContent, tls.Mode); err != nil {
		return err
	}

	if tls.Mode == "mutual" {
		if err := requireOneSource("CA certificate", tls.CAFile, tls.CAContent, tls.Mode); err != nil {
			return err
		}
		switch tls.ClientAuthPolicy {
		case "require", "request", "verify", "":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", tls.ClientAuthPolicy)
		}
	}

	switch tls.MinVersion {
	case "", "1.2", "1.3":
		return nil
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", tls.MinVersion)
	}
}

// requireOneSource demands exactly one of a file path or inline PEM content.
func requireOneSource(what, file, content, mode string) error {
	switch {
	case file == "" && content == "":
		return fmt.Errorf("TLS %s is required for %s mode (provide either a file or content)", what, mode)
	case file != "" && content != "":
		return fmt.Errorf("cannot specify both file and content for TLS %s - choose one", what)
	}
	return nil
}
