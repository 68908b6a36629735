// Package proxyconfig loads the connection core's tunables via
// spf13/viper: every field gets a --flag bound into a shared viper.Viper,
// then Load unmarshals and validates the whole tree in one pass. No
// environment variables are bound and no config file is read here; values
// set on the viper.Viper by other means override the flag defaults.
package proxyconfig

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RateLimitConfig configures one direction's token bucket.
type RateLimitConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// TLSConfig configures the handshake and record-size behavior.
type TLSConfig struct {
	NoPostponeEarlyData    bool          `mapstructure:"noPostponeEarlyData"`
	NoHTTP2CipherBlockList bool          `mapstructure:"noHttp2CipherBlockList"`
	ClientNoHTTP2BlockList bool          `mapstructure:"clientNoHttp2CipherBlockList"`
	WarmupThreshold        int           `mapstructure:"warmupThreshold"`
	IdleTimeout            time.Duration `mapstructure:"idleTimeout"`
}

// TimeoutConfig configures the read/write timers.
type TimeoutConfig struct {
	Read  time.Duration `mapstructure:"read"`
	Write time.Duration `mapstructure:"write"`
}

// CertConfig locates the certificate material certload.Load reads.
type CertConfig struct {
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

// Config is the fully assembled, validated connection-core configuration.
type Config struct {
	ReadLimit  RateLimitConfig `mapstructure:"readLimit"`
	WriteLimit RateLimitConfig `mapstructure:"writeLimit"`
	TLS        TLSConfig       `mapstructure:"tls"`
	Timeout    TimeoutConfig   `mapstructure:"timeout"`
	Cert       CertConfig      `mapstructure:"cert"`
	ListenAddr string          `mapstructure:"listenAddr"`
}

// RegisterFlags declares every field's --flag on cmd and binds it into v:
// one PersistentFlags() call plus one BindPFlag call per field.
// Environment variables are not bound.
func RegisterFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.PersistentFlags()

	flags.Float64("read-limit-rate", 0, "read-direction token bucket rate in bytes/sec (0 = unlimited)")
	flags.Int("read-limit-burst", 1<<16, "read-direction token bucket burst size in bytes")
	flags.Float64("write-limit-rate", 0, "write-direction token bucket rate in bytes/sec (0 = unlimited)")
	flags.Int("write-limit-burst", 1<<16, "write-direction token bucket burst size in bytes")

	flags.Bool("tls-no-postpone-early-data", false, "serve 0-RTT early data before the handshake finishes instead of buffering it")
	flags.Bool("tls-no-http2-cipher-block-list", false, "disable RFC 7540 Appendix A cipher suite rejection for ALPN h2")
	flags.Bool("tls-client-no-http2-cipher-block-list", false, "same as tls-no-http2-cipher-block-list, for outbound client handshakes")
	flags.Int("tls-warmup-threshold", 1<<20, "bytes written before dynamic record sizing switches to unlimited records (0 disables the heuristic)")
	flags.Duration("tls-idle-timeout", 30*time.Second, "write idle period after which dynamic record sizing resets to small records")

	flags.Duration("timeout-read", 60*time.Second, "idle read timeout")
	flags.Duration("timeout-write", 60*time.Second, "idle write timeout")

	flags.String("cert-file", "", "path to the server certificate PEM")
	flags.String("key-file", "", "path to the server private key PEM")
	flags.String("ca-file", "", "optional path to a CA bundle PEM for client authentication")

	flags.String("listen-addr", ":8443", "address the proxy listens on")

	for _, pair := range [][2]string{
		{"readLimit.rate", "read-limit-rate"},
		{"readLimit.burst", "read-limit-burst"},
		{"writeLimit.rate", "write-limit-rate"},
		{"writeLimit.burst", "write-limit-burst"},
		{"tls.noPostponeEarlyData", "tls-no-postpone-early-data"},
		{"tls.noHttp2CipherBlockList", "tls-no-http2-cipher-block-list"},
		{"tls.clientNoHttp2CipherBlockList", "tls-client-no-http2-cipher-block-list"},
		{"tls.warmupThreshold", "tls-warmup-threshold"},
		{"tls.idleTimeout", "tls-idle-timeout"},
		{"timeout.read", "timeout-read"},
		{"timeout.write", "timeout-write"},
		{"cert.certFile", "cert-file"},
		{"cert.keyFile", "key-file"},
		{"cert.caFile", "ca-file"},
		{"listenAddr", "listen-addr"},
	} {
		if err := v.BindPFlag(pair[0], flags.Lookup(pair[1])); err != nil {
			return fmt.Errorf("proxyconfig: bind %s: %w", pair[0], err)
		}
	}

	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("proxyconfig: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants RegisterFlags' defaults can't enforce by
// themselves (a config file or env var can still set a negative number).
func (c *Config) Validate() error {
	if c.ReadLimit.Rate < 0 {
		return fmt.Errorf("proxyconfig: readLimit.rate must be >= 0, got %v", c.ReadLimit.Rate)
	}
	if c.ReadLimit.Burst < 0 {
		return fmt.Errorf("proxyconfig: readLimit.burst must be >= 0, got %d", c.ReadLimit.Burst)
	}
	if c.WriteLimit.Rate < 0 {
		return fmt.Errorf("proxyconfig: writeLimit.rate must be >= 0, got %v", c.WriteLimit.Rate)
	}
	if c.WriteLimit.Burst < 0 {
		return fmt.Errorf("proxyconfig: writeLimit.burst must be >= 0, got %d", c.WriteLimit.Burst)
	}
	if c.TLS.WarmupThreshold < 0 {
		return fmt.Errorf("proxyconfig: tls.warmupThreshold must be >= 0, got %d", c.TLS.WarmupThreshold)
	}
	if c.TLS.IdleTimeout < 0 {
		return fmt.Errorf("proxyconfig: tls.idleTimeout must be >= 0, got %v", c.TLS.IdleTimeout)
	}
	if c.Timeout.Read < 0 {
		return fmt.Errorf("proxyconfig: timeout.read must be >= 0, got %v", c.Timeout.Read)
	}
	if c.Timeout.Write < 0 {
		return fmt.Errorf("proxyconfig: timeout.write must be >= 0, got %v", c.Timeout.Write)
	}
	if c.Cert.CertFile != "" && c.Cert.KeyFile == "" {
		return fmt.Errorf("proxyconfig: cert.keyFile is required when cert.certFile is set")
	}
	return nil
}
