package proxycore

import (
	"crypto/tls"

	"github.com/flowgate/proxycore/engine"
)

// earlyDataScratch is the scratch buffer size used while draining 0-RTT
// early data during the handshake.
const earlyDataScratch = 16 * 1024

// TLSHandshake drives the handshake state machine forward by one step. It
// is invoked by the reactor on either readability or writability while the
// connection has not yet completed its handshake.
func (c *Connection) TLSHandshake() error {
	c.watcher.StopWrite()
	c.wt.Stop()

	if c.tls.handshakeDone.isSet() {
		return c.writePendingPostHandshake()
	}

	c.tls.engine.SetFD(c.fd)

	var rv engine.Status
	if c.tls.isServer && !c.tls.earlyDataFinish.isSet() {
		st, err := c.earlyDataHandshake()
		if err != nil {
			return err
		}
		rv = st
	} else {
		rv = c.tls.engine.DoHandshake()
	}

	switch rv {
	case engine.StatusWantRead:
		c.metrics.ObserveHandshake("inprogress")
		return ErrInProgress
	case engine.StatusWantWrite:
		c.watcher.StartWrite()
		c.wt.Again(c.writeTimeout)
		c.metrics.ObserveHandshake("inprogress")
		return ErrInProgress
	case engine.StatusProtocolError:
		c.metrics.ObserveHandshake("network")
		return ErrNetwork
	case engine.StatusCleanClose:
		c.metrics.ObserveHandshake("eof")
		return ErrEOF
	case engine.StatusComplete:
		// fall through to the post-handshake checks below.
	default:
		c.metrics.ObserveHandshake("inprogress")
		return ErrInProgress
	}

	// Some TLS backends report a logical-complete handshake while still
	// processing an inner 0-RTT read. Applied unconditionally whenever
	// the engine reports "still in init" — crypto/tls's InInit always
	// reports false, so this branch only ever fires against engines
	// that genuinely need it.
	if c.tls.engine.InInit() {
		scratch := make([]byte, earlyDataScratch)
		n, st := c.tls.engine.Read(scratch)
		switch st {
		case engine.StatusProgress:
			if n > 0 {
				c.tls.earlybuf.Append(scratch[:n])
			}
		case engine.StatusWantRead, engine.StatusWantWrite:
			c.metrics.ObserveHandshake("inprogress")
			return ErrInProgress
		case engine.StatusCleanClose:
			c.metrics.ObserveHandshake("eof")
			return ErrEOF
		default:
			c.metrics.ObserveHandshake("network")
			return ErrNetwork
		}
	}

	if err := c.checkHTTP2Requirement(); err != nil {
		c.metrics.ObserveHandshake("protocol")
		return err
	}

	c.tls.handshakeDone.setTrue()
	c.metrics.ObserveHandshake("ok")
	return c.writePendingPostHandshake()
}

// earlyDataHandshake is the early-data branch taken only when
// isServer && !earlyDataFinish. It repeatedly drains
// ReadEarlyData until the engine either needs more input, reports no/end
// of early data, or errors.
func (c *Connection) earlyDataHandshake() (engine.Status, error) {
	scratch := make([]byte, earlyDataScratch)
	for {
		n, eds := c.tls.engine.ReadEarlyData(scratch)
		switch eds {
		case engine.EarlyDataWantRead:
			if c.noPostponeEarlyData && c.tls.earlybuf.Len() > 0 {
				return engine.StatusComplete, nil
			}
			return engine.StatusWantRead, nil
		case engine.EarlyDataNone:
			c.tls.earlyDataFinish.setTrue()
			return c.tls.engine.DoHandshake(), nil
		case engine.EarlyDataRead:
			c.tls.earlybuf.Append(scratch[:n])
			continue
		case engine.EarlyDataEnd:
			c.tls.earlyDataFinish.setTrue()
			if c.noPostponeEarlyData && c.tls.earlybuf.Len() > 0 {
				return engine.StatusComplete, nil
			}
			return c.tls.engine.DoHandshake(), nil
		case engine.EarlyDataError:
			return 0, ErrNetwork
		default:
			return 0, ErrNetwork
		}
	}
}

// writePendingPostHandshake runs unconditionally once the handshake
// completes. It starts the read watcher and fires the pending-read hook,
// because the ClientFinished message and the first application-data
// record frequently arrive in the same TCP segment: once Handshake()
// returns, that request record is already sitting inside the TLS engine
// with nothing left on the socket, so no further readable event would
// otherwise fire and the connection would stall. It also covers the case
// where a WriteTLS call was left stalled (lastWritelen != 0) when the
// handshake completed, re-arming the write watcher and timer so the
// reactor delivers a writable callback and the protocol layer retries
// with the same buffer, per the stored-length invariant.
func (c *Connection) writePendingPostHandshake() error {
	c.watcher.StartRead()
	c.HandleTLSPendingRead()

	if c.tls.lastWritelen != 0 {
		c.watcher.StartWrite()
		c.wt.Again(c.writeTimeout)
	}
	return nil
}

// http2BlockedCiphers is a representative mapping of RFC 7540 Appendix
// A's HTTP/2 cipher suite black list onto the subset of suite IDs
// crypto/tls is actually capable of negotiating (most of Appendix A's
// list, e.g. export and NULL ciphers, cannot be selected by crypto/tls in
// the first place).
var http2BlockedCiphers = map[uint16]bool{
	tls.TLS_RSA_WITH_RC4_128_SHA:             true,
	tls.TLS_RSA_WITH_3DES_EDE_CBC_SHA:        true,
	tls.TLS_RSA_WITH_AES_128_CBC_SHA:         true,
	tls.TLS_RSA_WITH_AES_256_CBC_SHA:         true,
	tls.TLS_RSA_WITH_AES_128_GCM_SHA256:      true,
	tls.TLS_RSA_WITH_AES_256_GCM_SHA384:      true,
	tls.TLS_ECDHE_ECDSA_WITH_RC4_128_SHA:     true,
	tls.TLS_ECDHE_RSA_WITH_RC4_128_SHA:       true,
	tls.TLS_ECDHE_RSA_WITH_3DES_EDE_CBC_SHA:  true,
	tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA:   true,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_CBC_SHA: true,
	tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA:   true,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA: true,
}

// checkHTTP2Requirement runs once after a successful handshake.
// c.noHTTP2CipherBlockList already carries whichever side's
// flag applies to this connection's role (server or client), resolved by
// the caller at construction time.
func (c *Connection) checkHTTP2Requirement() error {
	if c.tls.engine.ALPNSelected() != "h2" {
		return nil
	}
	if c.tls.engine.NegotiatedVersion() < tls.VersionTLS12 {
		return ErrProtocol
	}
	if !c.noHTTP2CipherBlockList && http2BlockedCiphers[c.tls.engine.CipherSuite()] {
		return ErrProtocol
	}
	return nil
}
