package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"bastion-hq/bastion/pkg/config"
)

// expiryWarning is how close to NotAfter a certificate gets logged at warn.
const expiryWarning = 30 * 24 * time.Hour

// certReloader serves the key pair named in the TLS configuration and swaps
// in a new one when either file's modification time moves forward.
type certReloader struct {
	certFile string
	keyFile  string
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	cert     *tls.Certificate
	certTime time.Time
	keyTime  time.Time
}

func newCertReloader(cfg *config.TLSConfig, logger *slog.Logger) *certReloader {
	interval := cfg.ReloadInterval
	if interval <= 0 {
		interval = config.DefaultTLSReloadInterval
	}
	return &certReloader{
		certFile: cfg.CertFile,
		keyFile:  cfg.KeyFile,
		interval: interval,
		logger:   logger,
	}
}

// run checks for changed files until ctx is cancelled. A failed reload keeps
// the previous certificate.
func (r *certReloader) run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reloadIfChanged()
		case <-ctx.Done():
			return
		}
	}
}

func (r *certReloader) reloadIfChanged() {
	if !r.changed() {
		return
	}
	if err := r.load(); err != nil {
		r.logger.Error("failed to reload TLS certificate, keeping previous",
			"error", err,
			"cert_file", r.certFile,
		)
		return
	}
	r.logger.Info("TLS certificate reloaded", "cert_file", r.certFile)
}

func (r *certReloader) changed() bool {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return false
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return certInfo.ModTime().After(r.certTime) || keyInfo.ModTime().After(r.keyTime)
}

// load reads and checks the key pair, then swaps it in.
func (r *certReloader) load() error {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		return fmt.Errorf("TLS cert file: %w", err)
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		return fmt.Errorf("TLS key file: %w", err)
	}

	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("load TLS key pair: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("parse TLS certificate: %w", err)
	}
	if err := checkValidity(leaf, time.Now()); err != nil {
		return err
	}
	cert.Leaf = leaf

	r.mu.Lock()
	r.cert = &cert
	r.certTime = certInfo.ModTime()
	r.keyTime = keyInfo.ModTime()
	r.mu.Unlock()

	r.logValidity(leaf)
	return nil
}

// GetCertificate has the tls.Config.GetCertificate signature.
func (r *certReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil {
		return nil, fmt.Errorf("no TLS certificate loaded")
	}
	return r.cert, nil
}

func checkValidity(cert *x509.Certificate, now time.Time) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}
	return nil
}

func (r *certReloader) logValidity(cert *x509.Certificate) {
	remaining := time.Until(cert.NotAfter)
	attrs := []any{
		"subject", cert.Subject.CommonName,
		"expires_at", cert.NotAfter.Format(time.RFC3339),
		"expires_in_days", int(remaining.Hours() / 24),
	}
	if remaining < expiryWarning {
		r.logger.Warn("TLS certificate expiring soon", attrs...)
		return
	}
	r.logger.Info("TLS certificate loaded", attrs...)
}
