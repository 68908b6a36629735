package proxycore

import "github.com/flowgate/proxycore/engine"

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// WriteTLS writes up to len(data) bytes over the TLS engine, clipped to
// the write rate limiter's budget and the dynamic record-size heuristic.
// It honors the stored-length retry invariant: if a previous
// call returned a want-write, the very next call MUST resubmit the same
// length (the caller is responsible for passing the same buffer
// contents), and that stored length overrides any fresh clipping.
func (c *Connection) WriteTLS(data []byte) (int, error) {
	var length int
	if c.tls.lastWritelen != 0 {
		length = c.tls.lastWritelen
		c.tls.lastWritelen = 0
	} else {
		avail := c.wlimit.Avail()
		length = minInt(len(data), avail)
		length = minInt(length, c.getTLSWriteLimit())
		if length == 0 {
			if avail == 0 {
				c.metrics.ObserveRateLimitExhausted("write")
			}
			return 0, nil
		}
	}

	c.markWriteActive()

	var n int
	var st engine.Status
	if c.tls.handshakeDone.isSet() {
		n, st = c.tls.engine.Write(data[:length])
	} else {
		n, st = c.tls.engine.WriteEarlyData(data[:length])
	}

	switch st {
	case engine.StatusWantRead:
		c.log.Warnf(nil, "tls write saw want-read (renegotiation attempt), closing")
		return 0, ErrNetwork
	case engine.StatusWantWrite:
		c.tls.lastWritelen = length
		c.watcher.StartWrite()
		c.wt.Again(c.writeTimeout)
		return 0, nil
	case engine.StatusProtocolError, engine.StatusCleanClose:
		return 0, ErrNetwork
	}

	if n > 0 {
		c.wlimit.Drain(n)
		if c.wt.IsActive() {
			c.wt.Again(c.writeTimeout)
		}
		c.addWarmupWritelen(n)
		c.metrics.ObserveBytes("write", "tls", n)
	}
	return n, nil
}

// ReadTLS reads up to len(data) bytes, preferring any buffered 0-RTT
// early data, then falling back to the in-handshake early-data stream,
// then the engine's post-handshake Read.
func (c *Connection) ReadTLS(data []byte) (int, error) {
	if c.tls.earlybuf.Len() > 0 {
		n := c.tls.earlybuf.Remove(data)
		c.lastRead = c.now()
		return n, nil
	}

	var length int
	if c.tls.lastReadlen != 0 {
		length = c.tls.lastReadlen
		c.tls.lastReadlen = 0
	} else {
		avail := c.rlimit.Avail()
		length = minInt(len(data), avail)
		if length == 0 {
			if avail == 0 {
				c.metrics.ObserveRateLimitExhausted("read")
			}
			return 0, nil
		}
	}

	if !c.tls.earlyDataFinish.isSet() {
		n, eds := c.tls.engine.ReadEarlyData(data[:length])
		switch eds {
		case engine.EarlyDataWantRead:
			c.tls.lastReadlen = length
			return 0, nil
		case engine.EarlyDataEnd, engine.EarlyDataNone:
			c.tls.earlyDataFinish.setTrue()
			c.watcher.StartWrite()
			if n > 0 {
				c.rlimit.Drain(n)
				c.lastRead = c.now()
				c.metrics.ObserveBytes("read", "tls", n)
			}
			return n, nil
		case engine.EarlyDataError:
			return 0, ErrNetwork
		default: // EarlyDataRead
			c.rlimit.Drain(n)
			c.lastRead = c.now()
			c.metrics.ObserveBytes("read", "tls", n)
			return n, nil
		}
	}

	n, st := c.tls.engine.Read(data[:length])
	switch st {
	case engine.StatusWantRead:
		c.tls.lastReadlen = length
		return 0, nil
	case engine.StatusWantWrite:
		return 0, ErrNetwork
	case engine.StatusCleanClose:
		return 0, ErrEOF
	case engine.StatusProtocolError:
		return 0, ErrNetwork
	}

	if n > 0 {
		c.rlimit.Drain(n)
		c.lastRead = c.now()
		c.metrics.ObserveBytes("read", "tls", n)
	}
	return n, nil
}
