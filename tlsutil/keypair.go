package tlsutil

import (
	"crypto/tls"
	"log/slog"
	"sync"
	"time"

	"braces.dev/errtrace"
)

// KeyPair is a certificate+key PEM pair reloaded from disk when either file
// changes. The check runs lazily on access and compares modification times
// exactly, so a rewrite with a preserved mtime goes unnoticed.
type KeyPair struct {
	certFile, keyFile string
	log               *slog.Logger

	mu          sync.Mutex
	cert        *tls.Certificate
	certModTime time.Time
	keyModTime  time.Time
}

// NewKeyPair creates a [KeyPair] over certFile and keyFile.
// The pair is loaded immediately, later reloads happen on access.
func NewKeyPair(certFile, keyFile string, opts *Options) (*KeyPair, error) {
	kp := &KeyPair{
		certFile: certFile,
		keyFile:  keyFile,
		log:      opts.log(),
	}
	if err := kp.reload(); err != nil {
		return nil, errtrace.Wrap(err)
	}
	return kp, nil
}

// Certificate returns the current certificate, reloading the pair first when
// the files changed on disk. A failed reload keeps the previous certificate
// serving, a certificate and key rotated one file at a time get picked up
// once both land.
func (kp *KeyPair) Certificate() *tls.Certificate {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	if err := kp.reload(); err != nil {
		kp.log.Warn("failed to reload the key pair, continue serving the previous one",
			"cert_file", kp.certFile, "key_file", kp.keyFile, "error", err,
		)
	}
	return kp.cert
}

// GetCertificate serves the current certificate to [tls.Config.GetCertificate].
func (kp *KeyPair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return kp.Certificate(), nil
}

// GetClientCertificate serves the current certificate to
// [tls.Config.GetClientCertificate].
func (kp *KeyPair) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	return kp.Certificate(), nil
}

func (kp *KeyPair) reload() error {
	certMT, err := fileModTime(kp.certFile)
	if err != nil {
		return errtrace.Wrap(err)
	}
	keyMT, err := fileModTime(kp.keyFile)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if kp.cert != nil && certMT.Equal(kp.certModTime) && keyMT.Equal(kp.keyModTime) {
		return nil
	}

	cert, err := tls.LoadX509KeyPair(kp.certFile, kp.keyFile)
	if err != nil {
		return errtrace.Wrap(err)
	}
	kp.cert = &cert
	kp.certModTime, kp.keyModTime = certMT, keyMT

	if cert.Leaf != nil {
		kp.log.Debug("key pair loaded",
			"cert_file", kp.certFile,
			"subject", cert.Leaf.Subject.String(),
			"not_after", cert.Leaf.NotAfter,
		)
	}
	return nil
}
