package proxycore

// smallRecord is the dynamic-record-size heuristic's small-record cap,
// favored during TCP slow start.
const smallRecord = 1300

// unlimitedRecord is the sentinel getTLSWriteLimit returns when the
// heuristic imposes no cap at all.
const unlimitedRecord = 1<<31 - 1

// getTLSWriteLimit implements the dynamic TLS record sizing heuristic.
func (c *Connection) getTLSWriteLimit() int {
	if c.recWarmupThreshold == 0 {
		c.reportRecordMode(true)
		return unlimitedRecord
	}
	if c.tls.lastWriteIdle != idleSentinel && c.now().Sub(c.tls.lastWriteIdle) > c.recIdleTimeout {
		c.tls.warmupWritelen = 0
		c.reportRecordMode(false)
		return smallRecord
	}
	if c.tls.warmupWritelen >= c.recWarmupThreshold {
		c.reportRecordMode(true)
		return unlimitedRecord
	}
	c.reportRecordMode(false)
	return smallRecord
}

// reportRecordMode tells the metrics recorder about a mode transition
// only, so the gauge it drives (a live connection count) isn't
// incremented or decremented once per write call.
func (c *Connection) reportRecordMode(unlimited bool) {
	if c.tls.recordUnlimited == unlimited {
		return
	}
	c.tls.recordUnlimited = unlimited
	c.metrics.ObserveRecordMode(unlimited)
}

// StartTLSWriteIdle samples the clock and stores it as lastWriteIdle, but
// only if the write path is currently marked active (the idle sentinel);
// repeated calls while already idle must not slide the timestamp forward.
func (c *Connection) StartTLSWriteIdle() {
	if c.tls == nil {
		return
	}
	if c.tls.lastWriteIdle == idleSentinel {
		c.tls.lastWriteIdle = c.now()
	}
}

// markWriteActive marks the write path non-idle, invoked at the start of
// every WriteTLS attempt.
func (c *Connection) markWriteActive() {
	c.tls.lastWriteIdle = idleSentinel
}

// addWarmupWritelen accumulates n bytes of successful encrypt, capped at
// the warmup threshold.
func (c *Connection) addWarmupWritelen(n int) {
	c.tls.warmupWritelen += n
	if c.recWarmupThreshold > 0 && c.tls.warmupWritelen > c.recWarmupThreshold {
		c.tls.warmupWritelen = c.recWarmupThreshold
	}
}
