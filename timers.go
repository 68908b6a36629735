package proxycore

import "time"

// AgainRT overwrites readTimeout, re-arms rt to fire after t, and
// snapshots lastRead.
func (c *Connection) AgainRT(t time.Duration) {
	c.readTimeout = t
	c.rt.Again(t)
	c.lastRead = c.now()
}

// AgainRTDefault re-arms rt using the current readTimeout and snapshots
// lastRead.
func (c *Connection) AgainRTDefault() {
	c.rt.Again(c.readTimeout)
	c.lastRead = c.now()
}

// ExpiredRT reports whether the read timeout has actually elapsed since
// the last recorded read progress. If not, it re-arms rt with the
// remaining delta and returns false — the classic "was this a spurious
// timer fire" check for a timer that can be pushed out by any successful
// read without a full Stop/Again cycle.
func (c *Connection) ExpiredRT() bool {
	delta := c.readTimeout - c.now().Sub(c.lastRead)
	if delta < time.Nanosecond {
		return true
	}
	c.rt.Again(delta)
	return false
}
