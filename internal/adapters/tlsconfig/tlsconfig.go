// Package tlsconfig builds TLS settings from PEM file paths.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
)

// Paths names the PEM files for a TLS endpoint.
type Paths struct {
	CA   string
	Cert string
	Key  string
}

// Enabled reports whether any path is set.
func (p Paths) Enabled() bool {
	return p.CA != "" || p.Cert != "" || p.Key != ""
}

// Build returns nil when no path is set.
func Build(p Paths) (*tls.Config, error) {
	if !p.Enabled() {
		return nil, nil
	}

	config := &tls.Config{MinVersion: tls.VersionTLS12}
	if p.CA != "" {
		pem, err := os.ReadFile(p.CA)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("failed to parse CA bundle")
		}
		config.RootCAs = pool
		config.ClientCAs = pool
	}

	if p.Cert != "" || p.Key != "" {
		if p.Cert == "" || p.Key == "" {
			return nil, errors.New("both tls cert and key are required")
		}
		cert, err := tls.LoadX509KeyPair(p.Cert, p.Key)
		if err != nil {
			return nil, err
		}
		config.Certificates = []tls.Certificate{cert}
	}

	return config, nil
}
