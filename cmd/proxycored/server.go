package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"

	proxycore "github.com/flowgate/proxycore"
	"github.com/flowgate/proxycore/downstream"
	"github.com/flowgate/proxycore/logging"
	"github.com/flowgate/proxycore/metrics"
	"github.com/flowgate/proxycore/proxyconfig"
	"github.com/flowgate/proxycore/reactor"
	"github.com/flowgate/proxycore/tlsengine"
)

// readScratch is the per-call buffer size used while draining a
// connection's request bytes looking for the end of the request headers.
const readScratch = 4096

// runServer wires the reactor, listener, and accept loop together, and
// blocks until ctx is canceled.
func runServer(ctx context.Context, cfg *proxyconfig.Config, tlsConfig *tls.Config, log logging.Logger, rec *metrics.Recorder) error {
	loop, err := reactor.New()
	if err != nil {
		return fmt.Errorf("start reactor: %w", err)
	}
	go func() {
		if rerr := loop.Run(); rerr != nil {
			log.Errorf(nil, "reactor loop exited: %v", rerr)
		}
	}()
	defer loop.Close()

	tcpLn, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	ln := keepAliveListener{tcpLn.(*net.TCPListener)}
	log.Infof(logging.Fields{"addr": cfg.ListenAddr}, "proxycored listening")

	go acceptLoop(ln, loop, cfg, tlsConfig, log, rec)

	<-ctx.Done()
	return ln.Close()
}

func acceptLoop(ln net.Listener, loop *reactor.Loop, cfg *proxyconfig.Config, tlsConfig *tls.Config, log logging.Logger, rec *metrics.Recorder) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Warnf(nil, "accept: %v", err)
			return
		}
		handleConn(conn, loop, cfg, tlsConfig, log, rec)
	}
}

// replyUpstream implements downstream.Upstream by writing a literal HTTP
// response directly over the connection's TLS engine. conn is filled in
// once the Connection it belongs to is constructed, since
// downstream.NewDownstream needs an Upstream before that Connection exists.
type replyUpstream struct {
	conn *proxycore.Connection
	log  logging.Logger
}

func (u *replyUpstream) SendReply(d *downstream.Downstream, body []byte, statusOverride int) error {
	resp := fmt.Sprintf("HTTP/1.1 %d OK\r\nContent-Length: %s\r\nConnection: close\r\n\r\n",
		d.Response.HTTPStatus, d.Response.ContentLength)
	if _, err := u.conn.WriteTLS([]byte(resp)); err != nil {
		u.log.Warnf(nil, "health monitor reply write failed: %v", err)
	}
	u.conn.Disconnect()
	return nil
}

// handleConn builds a Connection over conn and drives it as a one-shot
// health-check responder: every request, regardless of method or path,
// is answered with the health monitor's canned 200.
func handleConn(conn net.Conn, loop *reactor.Loop, cfg *proxyconfig.Config, tlsConfig *tls.Config, log logging.Logger, rec *metrics.Recorder) {
	eng := tlsengine.New(conn, tlsConfig)
	up := &replyUpstream{log: log}
	d := downstream.NewDownstream(up)
	hc := downstream.NewConnection(log)
	_ = hc.Attach(d)

	var c *proxycore.Connection
	c = proxycore.New(conn, loop, eng, proxycore.Config{
		Proto:        proxycore.HTTP1,
		ReadTimeout:  cfg.Timeout.Read,
		WriteTimeout: cfg.Timeout.Write,
		ReadLimiter: proxycore.LimiterConfig{
			Rate: cfg.ReadLimit.Rate, Burst: cfg.ReadLimit.Burst,
		},
		WriteLimiter: proxycore.LimiterConfig{
			Rate: cfg.WriteLimit.Rate, Burst: cfg.WriteLimit.Burst,
		},
		RecWarmupThreshold:     cfg.TLS.WarmupThreshold,
		RecIdleTimeout:         cfg.TLS.IdleTimeout,
		NoPostponeEarlyData:    cfg.TLS.NoPostponeEarlyData,
		NoHTTP2CipherBlockList: cfg.TLS.NoHTTP2CipherBlockList,
		Callbacks: proxycore.Callbacks{
			OnReadable: func(cc *proxycore.Connection) { onRequestReadable(cc, d, hc, log) },
			OnTimeout:  func(cc *proxycore.Connection) { cc.Disconnect() },
		},
		Logger:  log,
		Metrics: rec,
	})
	up.conn = c

	c.PrepareServerHandshake()
	c.ArmHandshake()
}

// onRequestReadable drains whatever plaintext is available, looks for
// the end of the request headers, and once found pushes them through the
// health monitor stub and sends the canned reply.
func onRequestReadable(c *proxycore.Connection, d *downstream.Downstream, hc *downstream.Connection, log logging.Logger) {
	scratch := make([]byte, readScratch)
	for {
		n, err := c.ReadTLS(scratch)
		if n > 0 {
			d.BlockedRequestBuf.Append(scratch[:n])
		}
		if err != nil {
			log.Debugf(nil, "request read ended: %v", err)
			c.Disconnect()
			return
		}
		if n == 0 {
			break
		}
		if bytes.Contains(scratch[:n], []byte("\r\n\r\n")) {
			break
		}
	}

	if d.BlockedRequestBuf.Len() == 0 {
		return
	}

	if err := hc.PushRequestHeaders(); err != nil {
		log.Warnf(nil, "push request headers: %v", err)
		c.Disconnect()
		return
	}
	if err := hc.EndUploadData(); err != nil {
		log.Warnf(nil, "end upload data: %v", err)
		c.Disconnect()
	}
}
