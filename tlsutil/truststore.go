package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"log/slog"
	"os"
	"sync"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/gotimeout"
)

// ErrNoCertificates reports a PEM bundle without a single certificate.
const ErrNoCertificates gotimeout.Error = "no certificates in bundle"

// TrustStore is a CA PEM bundle reloaded from disk when the file changes.
// The check runs lazily on access and compares the modification time exactly.
type TrustStore struct {
	caFile string
	log    *slog.Logger

	mu      sync.Mutex
	pool    *x509.CertPool
	modTime time.Time
}

// NewTrustStore creates a [TrustStore] over caFile.
// The bundle is loaded immediately, later reloads happen on access.
func NewTrustStore(caFile string, opts *Options) (*TrustStore, error) {
	ts := &TrustStore{
		caFile: caFile,
		log:    opts.log(),
	}
	if err := ts.reload(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return ts, nil
}

// CertPool returns the current CA pool, reloading the bundle first when the
// file changed on disk. A failed reload keeps the previous pool serving.
// The returned pool is shared, callers must not modify it.
func (ts *TrustStore) CertPool() *x509.CertPool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := ts.reload(); err != nil {
		ts.log.Warn("failed to reload the trust store, continue serving the previous one",
			"ca_file", ts.caFile, "error", err,
		)
	}
	return ts.pool
}

// VerifyPeerCertificate checks that rawCerts form a chain anchored in the
// current CA pool. It plugs into [tls.Config.VerifyPeerCertificate] together
// with InsecureSkipVerify on the client side to get reloadable roots. Only
// chain trust is checked, host name verification stays with the caller.
func (ts *TrustStore) VerifyPeerCertificate(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	if len(rawCerts) == 0 {
		return errtrace.Wrap(gotimeout.NewInvalidArgumentError("empty peer certificate chain"))
	}

	leaf, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return errtrace.Wrap(err)
	}
	inters := x509.NewCertPool()
	for _, raw := range rawCerts[1:] {
		crt, err := x509.ParseCertificate(raw)
		if err != nil {
			return errtrace.Wrap(err)
		}
		inters.AddCert(crt)
	}

	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:         ts.CertPool(),
		Intermediates: inters,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	return errtrace.Wrap(err)
}

// GetConfigForClient returns a callback for [tls.Config.GetConfigForClient]
// that serves a clone of base with the current CA pool as client CAs, giving
// the server reloadable client-certificate roots.
func (ts *TrustStore) GetConfigForClient(base *tls.Config) func(*tls.ClientHelloInfo) (*tls.Config, error) {
	if base == nil {
		base = &tls.Config{}
	}
	return func(*tls.ClientHelloInfo) (*tls.Config, error) {
		cfg := base.Clone()
		cfg.ClientCAs = ts.CertPool()
		return cfg, nil
	}
}

func (ts *TrustStore) reload() error {
	mt, err := fileModTime(ts.caFile)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if ts.pool != nil && mt.Equal(ts.modTime) {
		return nil
	}

	data, err := os.ReadFile(ts.caFile)
	if err != nil {
		return errtrace.Wrap(err)
	}
	certs, err := parseCertsPEM(data)
	if err != nil {
		return errtrace.Wrap(err)
	}

	pool := x509.NewCertPool()
	subjects := make([]string, len(certs))
	for i, crt := range certs {
		pool.AddCert(crt)
		subjects[i] = crt.Subject.String()
	}
	ts.pool = pool
	ts.modTime = mt

	ts.log.Debug("trust store loaded", "ca_file", ts.caFile, "subjects", subjects)
	return nil
}

func parseCertsPEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		crt, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		certs = append(certs, crt)
	}
	if len(certs) == 0 {
		return nil, errtrace.Wrap(ErrNoCertificates)
	}
	return certs, nil
}
