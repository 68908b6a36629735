// Command proxycored is a minimal runnable demo of the connection core:
// it accepts TLS connections, drives the handshake state machine from
// the reactor, and answers every request with the health-monitor
// downstream's canned 200, mimicking a reverse proxy's own internal
// health-check listener. It is not a reverse proxy itself: HTTP/1/2/3
// upstream/downstream parsing is out of scope.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flowgate/proxycore/certload"
	"github.com/flowgate/proxycore/logging"
	"github.com/flowgate/proxycore/metrics"
	"github.com/flowgate/proxycore/proxyconfig"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "proxycored",
		Short: "connection-core demo listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := proxyconfig.Load(v)
			if err != nil {
				return err
			}

			log := logging.New(logrus.InfoLevel)
			rec := metrics.New(prometheus.DefaultRegisterer)

			tlsConfig, err := certload.Load(cfg.Cert)
			if err != nil {
				return fmt.Errorf("load certificates: %w", err)
			}

			return runServer(cmd.Context(), cfg, tlsConfig, log, rec)
		},
	}

	if err := proxyconfig.RegisterFlags(cmd, v); err != nil {
		panic(err)
	}

	return cmd
}
