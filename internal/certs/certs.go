// Package certs generates and caches a self-signed TLS certificate so the
// local API server can speak HTTPS to mobile clients on the same network.
package certs

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	certValidity = 365 * 24 * time.Hour
	// renewMargin forces regeneration when a cached certificate is close to
	// expiry, so clients never see one expire mid-session.
	renewMargin = 30 * 24 * time.Hour
)

// Provider loads a cached server certificate from disk, generating a fresh
// self-signed one when the cache is missing, corrupt, expired, or no longer
// covers the requested hosts.
type Provider struct {
	dir      string
	certPath string
	keyPath  string
	hosts    []string
}

// NewProvider creates a Provider caching under dir. The certificate always
// covers localhost and the loopback addresses; extraHosts adds DNS names or
// IP addresses (such as the machine's LAN address) so phones on the same
// network can connect.
func NewProvider(dir string, extraHosts ...string) *Provider {
	return &Provider{
		dir:      dir,
		certPath: filepath.Join(dir, "server.crt"),
		keyPath:  filepath.Join(dir, "server.key"),
		hosts:    append([]string{"localhost"}, extraHosts...),
	}
}

// Certificate returns the cached certificate, regenerating it when it cannot
// be used.
func (p *Provider) Certificate() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(p.certPath, p.keyPath)
	if err == nil {
		if p.usable(cert) {
			return cert, nil
		}
	} else if !os.IsNotExist(err) {
		// Corrupt cache; fall through and overwrite it.
		_ = os.Remove(p.certPath)
		_ = os.Remove(p.keyPath)
	}

	return p.generate()
}

// usable reports whether a cached certificate still covers all configured
// hosts and is not near expiry.
func (p *Provider) usable(cert tls.Certificate) bool {
	if len(cert.Certificate) == 0 {
		return false
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return false
	}

	now := time.Now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter.Add(-renewMargin)) {
		return false
	}

	for _, host := range p.hosts {
		if ip := net.ParseIP(host); ip != nil {
			if err := leaf.VerifyHostname(ip.String()); err != nil {
				return false
			}
			continue
		}
		if err := leaf.VerifyHostname(host); err != nil {
			return false
		}
	}
	return true
}

// generate creates, caches, and returns a new self-signed certificate.
func (p *Provider) generate() (tls.Certificate, error) {
	if err := os.MkdirAll(p.dir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Cartwheel"},
			CommonName:   "cartwheel local server",
		},
		NotBefore:             now,
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}
	for _, host := range p.hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to marshal private key: %w", err)
	}

	if err := writePEM(p.certPath, "CERTIFICATE", certDER); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(p.keyPath, "EC PRIVATE KEY", keyDER); err != nil {
		return tls.Certificate{}, err
	}

	return tls.LoadX509KeyPair(p.certPath, p.keyPath)
}

func writePEM(path, blockType string, der []byte) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s for writing: %w", filepath.Base(path), err)
	}
	defer func() { _ = out.Close() }()

	if err := pem.Encode(out, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
