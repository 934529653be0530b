package tlsutil_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ghettovoice/gotimeout/tlsutil"
)

type testPEM struct {
	certPEM, keyPEM []byte
	subject         string
}

// newTestPEM generates a self-signed certificate with an ed25519 key.
func newTestPEM(tb testing.TB, cn string) testPEM {
	tb.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		tb.Fatalf("ed25519.GenerateKey() error = %v, want nil", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, pub, priv)
	if err != nil {
		tb.Fatalf("x509.CreateCertificate() error = %v, want nil", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		tb.Fatalf("x509.MarshalPKCS8PrivateKey() error = %v, want nil", err)
	}

	return testPEM{
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		subject: "CN=" + cn,
	}
}

// writeFileAt writes data and pins the file mtime, reloads trigger on exact
// mtime comparison so tests control it explicitly instead of racing the
// filesystem clock resolution.
func writeFileAt(tb testing.TB, path string, data []byte, mtime time.Time) {
	tb.Helper()

	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("os.WriteFile(%q) error = %v, want nil", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		tb.Fatalf("os.Chtimes(%q) error = %v, want nil", path, err)
	}
}

func TestKeyPair_Reload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	mtime := time.Now().Add(-time.Minute)

	first := newTestPEM(t, "first")
	writeFileAt(t, certFile, first.certPEM, mtime)
	writeFileAt(t, keyFile, first.keyPEM, mtime)

	kp, err := tlsutil.NewKeyPair(certFile, keyFile, nil)
	if err != nil {
		t.Fatalf("tlsutil.NewKeyPair() error = %v, want nil", err)
	}
	if got := kp.Certificate(); got.Leaf.Subject.String() != first.subject {
		t.Fatalf("kp.Certificate() subject = %q, want %q", got.Leaf.Subject, first.subject)
	}

	// Untouched files serve the same certificate.
	if got := kp.Certificate(); got.Leaf.Subject.String() != first.subject {
		t.Fatalf("kp.Certificate() subject = %q, want %q", got.Leaf.Subject, first.subject)
	}

	second := newTestPEM(t, "second")
	mtime = mtime.Add(time.Second)
	writeFileAt(t, certFile, second.certPEM, mtime)
	writeFileAt(t, keyFile, second.keyPEM, mtime)

	if got := kp.Certificate(); got.Leaf.Subject.String() != second.subject {
		t.Errorf("kp.Certificate() subject after rotation = %q, want %q", got.Leaf.Subject, second.subject)
	}
}

func TestKeyPair_HalfRotated(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	mtime := time.Now().Add(-time.Minute)

	first := newTestPEM(t, "first")
	writeFileAt(t, certFile, first.certPEM, mtime)
	writeFileAt(t, keyFile, first.keyPEM, mtime)

	kp, err := tlsutil.NewKeyPair(certFile, keyFile, nil)
	if err != nil {
		t.Fatalf("tlsutil.NewKeyPair() error = %v, want nil", err)
	}

	// Rotate the certificate only: the mismatched pair fails to load and
	// the previous material keeps serving.
	second := newTestPEM(t, "second")
	writeFileAt(t, certFile, second.certPEM, mtime.Add(time.Second))

	if got := kp.Certificate(); got.Leaf.Subject.String() != first.subject {
		t.Errorf("kp.Certificate() subject half-rotated = %q, want %q", got.Leaf.Subject, first.subject)
	}

	// The key lands, the pair is consistent again.
	writeFileAt(t, keyFile, second.keyPEM, mtime.Add(2*time.Second))

	if got := kp.Certificate(); got.Leaf.Subject.String() != second.subject {
		t.Errorf("kp.Certificate() subject fully rotated = %q, want %q", got.Leaf.Subject, second.subject)
	}
}

func TestKeyPair_MissingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := tlsutil.NewKeyPair(filepath.Join(dir, "nope.pem"), filepath.Join(dir, "nope.key"), nil); err == nil {
		t.Fatal("tlsutil.NewKeyPair() error = nil, want an error")
	}
}

func TestTrustStore_Reload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")
	mtime := time.Now().Add(-time.Minute)

	first := newTestPEM(t, "root-a")
	writeFileAt(t, caFile, first.certPEM, mtime)

	ts, err := tlsutil.NewTrustStore(caFile, nil)
	if err != nil {
		t.Fatalf("tlsutil.NewTrustStore() error = %v, want nil", err)
	}
	pool := ts.CertPool()
	if pool == nil {
		t.Fatal("ts.CertPool() = nil, want a pool")
	}

	second := newTestPEM(t, "root-b")
	writeFileAt(t, caFile, append(first.certPEM, second.certPEM...), mtime.Add(time.Second))

	reloaded := ts.CertPool()
	if reloaded == pool {
		t.Error("ts.CertPool() returned the stale pool after the bundle changed")
	}
}

func TestTrustStore_EmptyBundle(t *testing.T) {
	t.Parallel()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	writeFileAt(t, caFile, []byte("no certs here"), time.Now())

	_, err := tlsutil.NewTrustStore(caFile, nil)
	if !errors.Is(err, tlsutil.ErrNoCertificates) {
		t.Fatalf("tlsutil.NewTrustStore() error = %v, want %v", err, tlsutil.ErrNoCertificates)
	}
}

func TestTrustStore_VerifyPeerCertificate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	caFile := filepath.Join(dir, "ca.pem")

	trusted := newTestPEM(t, "trusted-root")
	writeFileAt(t, caFile, trusted.certPEM, time.Now().Add(-time.Minute))

	ts, err := tlsutil.NewTrustStore(caFile, nil)
	if err != nil {
		t.Fatalf("tlsutil.NewTrustStore() error = %v, want nil", err)
	}

	block, _ := pem.Decode(trusted.certPEM)
	if err := ts.VerifyPeerCertificate([][]byte{block.Bytes}, nil); err != nil {
		t.Errorf("ts.VerifyPeerCertificate(trusted) error = %v, want nil", err)
	}

	other := newTestPEM(t, "unknown-root")
	block, _ = pem.Decode(other.certPEM)
	if err := ts.VerifyPeerCertificate([][]byte{block.Bytes}, nil); err == nil {
		t.Error("ts.VerifyPeerCertificate(unknown) error = nil, want an error")
	}

	if err := ts.VerifyPeerCertificate(nil, nil); err == nil {
		t.Error("ts.VerifyPeerCertificate(empty) error = nil, want an error")
	}
}
