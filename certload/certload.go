// Package certload loads TLS server certificates into a *tls.Config from
// key/cert/CA file paths, trimmed to the single-certificate case since
// SNI-based certificate selection is out of scope here.
package certload

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/flowgate/proxycore/proxyconfig"
)

// http2CipherSuites is the cipher suite list offered when ALPN h2 is in
// NextProtos, restricted to suites RFC 7540 Appendix A allows — the same
// set handshake.go's http2BlockedCiphers check enforces after the fact.
var http2CipherSuites = []uint16{
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_AES_128_GCM_SHA256,
	tls.TLS_AES_256_GCM_SHA384,
	tls.TLS_CHACHA20_POLY1305_SHA256,
}

// Load reads cfg's certificate/key pair (and optional CA bundle) and
// returns a *tls.Config offering h2 then http/1.1 over ALPN, with
// MinVersion pinned to TLS 1.2.
func Load(cfg proxyconfig.CertConfig) (*tls.Config, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, fmt.Errorf("certload: certFile and keyFile are both required")
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("certload: load key pair: %w", err)
	}

	tc := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
		CipherSuites: http2CipherSuites,
	}

	if cfg.CAFile != "" {
		pool, err := loadCAPool(cfg.CAFile)
		if err != nil {
			return nil, err
		}
		tc.ClientCAs = pool
		tc.ClientAuth = tls.VerifyClientCertIfGiven
	}

	return tc, nil
}

func loadCAPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("certload: read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("certload: no certificates parsed from %s", path)
	}
	return pool, nil
}
