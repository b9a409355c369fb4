package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/relay/pkg/config"
)

// expiryWarning is how close to expiry a certificate must be to log a warning.
const expiryWarning = 30 * 24 * time.Hour

// certReloadDebounce collapses the several writes of a certificate renewal.
const certReloadDebounce = 500 * time.Millisecond

// CertReloader keeps the serving certificate current. It watches the
// certificate and key files and swaps in the new pair after they change, so
// renewals take effect without a restart. A pair that fails to load is
// logged and the previous certificate stays in use.
type CertReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

// NewCertReloader loads the certificate pair once.
func NewCertReloader(certFile, keyFile string, logger *slog.Logger) (*CertReloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &CertReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger.With("component", "tls"),
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Certificate returns the certificate currently served.
func (r *CertReloader) Certificate() *tls.Certificate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert
}

// GetCertificate is suitable for tls.Config.GetCertificate.
func (r *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.Certificate(), nil
}

// Watch reloads the pair after file changes until ctx is done.
func (r *CertReloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]bool{filepath.Dir(r.certFile): true, filepath.Dir(r.keyFile): true}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
	}

	names := map[string]bool{filepath.Clean(r.certFile): true, filepath.Clean(r.keyFile): true}
	debounce := config.NewDebouncer(certReloadDebounce)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("certificate watcher events channel closed")
			}
			if event.Op&fsnotify.Chmod == fsnotify.Chmod || !names[filepath.Clean(event.Name)] {
				continue
			}
			debounce.Trigger(func() {
				if err := r.reload(); err != nil {
					r.logger.Error("certificate reload failed, keeping previous certificate", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("certificate watcher errors channel closed")
			}
			r.logger.Error("certificate watcher error", "error", err)
		}
	}
}

func (r *CertReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate pair: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	now := time.Now()
	if now.Before(leaf.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(leaf.NotAfter) {
		return fmt.Errorf("certificate expired on %s", leaf.NotAfter.Format(time.RFC3339))
	}
	cert.Leaf = leaf

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	}
	if leaf.NotAfter.Sub(now) < expiryWarning {
		r.logger.Warn("certificate expiring soon", attrs...)
	} else {
		r.logger.Info("certificate loaded", attrs...)
	}
	return nil
}

// tlsConfig builds the server TLS configuration around r.
func tlsConfig(cfg config.TLSConfig, r *CertReloader) *tls.Config {
	minVersion := uint16(tls.VersionTLS12)
	if cfg.MinVersion == "1.3" {
		minVersion = tls.VersionTLS13
	}
	return &tls.Config{
		MinVersion:     minVersion,
		GetCertificate: r.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1"},
	}
}
