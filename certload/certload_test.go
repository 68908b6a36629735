package certload

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowgate/proxycore/proxyconfig"
)

// writeSelfSignedPair generates an in-memory ECDSA P256 self-signed
// certificate and writes the PEM-encoded cert and key to dir.
func writeSelfSignedPair(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		t.Fatalf("generate serial: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")

	certOut, err := os.Create(certPath)
	if err != nil {
		t.Fatalf("create cert file: %v", err)
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		t.Fatalf("encode cert: %v", err)
	}

	keyOut, err := os.Create(keyPath)
	if err != nil {
		t.Fatalf("create key file: %v", err)
	}
	defer keyOut.Close()
	if err := pem.Encode(keyOut, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}); err != nil {
		t.Fatalf("encode key: %v", err)
	}

	return certPath, keyPath
}

func TestLoadValidPair(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeSelfSignedPair(t, dir)

	tc, err := Load(proxyconfig.CertConfig{CertFile: certPath, KeyFile: keyPath})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tc.Certificates) != 1 {
		t.Fatalf("Certificates = %d entries, want 1", len(tc.Certificates))
	}
	if tc.MinVersion != tls.VersionTLS12 {
		t.Fatalf("MinVersion = %x, want TLS 1.2", tc.MinVersion)
	}
	if len(tc.NextProtos) != 2 || tc.NextProtos[0] != "h2" {
		t.Fatalf("NextProtos = %v, want [h2 http/1.1]", tc.NextProtos)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	if _, err := Load(proxyconfig.CertConfig{}); err == nil {
		t.Fatal("Load() with empty config = nil error, want one")
	}
	if _, err := Load(proxyconfig.CertConfig{CertFile: "does-not-exist.pem", KeyFile: "does-not-exist.key"}); err == nil {
		t.Fatal("Load() with missing files = nil error, want one")
	}
}

func TestLoadWithCAFile(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeSelfSignedPair(t, dir)

	tc, err := Load(proxyconfig.CertConfig{CertFile: certPath, KeyFile: keyPath, CAFile: certPath})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tc.ClientCAs == nil {
		t.Fatal("ClientCAs is nil, want a populated pool")
	}
	if tc.ClientAuth != tls.VerifyClientCertIfGiven {
		t.Fatalf("ClientAuth = %v, want VerifyClientCertIfGiven", tc.ClientAuth)
	}
}

func TestLoadWithBadCAFile(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeSelfSignedPair(t, dir)
	badCA := filepath.Join(dir, "bad-ca.pem")
	if err := os.WriteFile(badCA, []byte("not a pem file"), 0o600); err != nil {
		t.Fatalf("write bad CA file: %v", err)
	}

	if _, err := Load(proxyconfig.CertConfig{CertFile: certPath, KeyFile: keyPath, CAFile: badCA}); err == nil {
		t.Fatal("Load() with an unparsable CA file = nil error, want one")
	}
}
