package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// InstanceTLS builds a *tls.Config for SQL connections to managed instances.
// Returns nil, nil if neither client certificates nor a CA are configured.
func (c *Config) InstanceTLS() (*tls.Config, error) {
	if c.PGTLSCert == "" && c.PGTLSKey == "" && c.PGTLSCACert == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	if c.PGTLSCert != "" || c.PGTLSKey != "" {
		cert, err := tls.LoadX509KeyPair(c.PGTLSCert, c.PGTLSKey)
		if err != nil {
			return nil, fmt.Errorf("load instance client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if c.PGTLSCACert != "" {
		caPEM, err := os.ReadFile(c.PGTLSCACert)
		if err != nil {
			return nil, fmt.Errorf("read instance CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse instance CA cert")
		}
		tlsConfig.RootCAs = pool
	}

	if c.PGTLSServerName != "" {
		tlsConfig.ServerName = c.PGTLSServerName
	}

	return tlsConfig, nil
}
