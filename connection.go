package proxycore

import (
	"net"
	"time"

	"github.com/flowgate/proxycore/earlybuf"
	"github.com/flowgate/proxycore/engine"
	"github.com/flowgate/proxycore/logging"
	"github.com/flowgate/proxycore/ratelimit"
	"github.com/flowgate/proxycore/reactor"
)

// idleSentinel is the dedicated unexported time.Time value meaning
// "write path currently active (non-idle)". It is built from a fixed,
// clearly-not-real instant so it never collides with a genuine
// time.Now() sample.
var idleSentinel = time.Date(1, time.January, 1, 0, 0, 0, 1, time.UTC)

// Callbacks are the user-settable hooks invoked once the connection has
// left the handshake state. Any of them may be nil.
type Callbacks struct {
	OnReadable func(*Connection)
	OnWritable func(*Connection)
	OnTimeout  func(*Connection)
}

// LimiterConfig configures one direction's token bucket.
type LimiterConfig struct {
	Rate  float64 // tokens/sec; 0 means unlimited
	Burst int
}

// Config bundles every construction-time parameter beyond the raw
// conn/engine/loop triple.
type Config struct {
	Proto Proto

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	ReadLimiter  LimiterConfig
	WriteLimiter LimiterConfig

	RecWarmupThreshold int
	RecIdleTimeout     time.Duration

	NoPostponeEarlyData    bool
	NoHTTP2CipherBlockList bool

	Callbacks Callbacks
	UserData  interface{}

	Logger  logging.Logger
	Metrics MetricsRecorder
}

// MetricsRecorder is the subset of metrics.Recorder the core depends on;
// declared here (rather than importing package metrics directly) so
// tests can supply a no-op without pulling in prometheus.
type MetricsRecorder interface {
	ObserveHandshake(result string)
	ObserveBytes(direction, mode string, n int)
	ObserveRecordMode(unlimited bool)
	ObserveRateLimitExhausted(direction string)
}

// tlsState holds every field that exists only when the connection is
// encrypted.
type tlsState struct {
	engine engine.Engine

	isServer        bool
	handshakeDone   atomicBool
	earlyDataFinish atomicBool

	earlybuf *earlybuf.Buffer

	lastWritelen int
	lastReadlen  int

	warmupWritelen  int
	lastWriteIdle   time.Time
	recordUnlimited bool
}

// Connection is the composite object: the socket, its watchers and
// timers, its rate limiters, its optional TLS session, and the
// dynamic-record-size state. One Connection is bound to exactly one
// reactor.Loop goroutine and must not be touched concurrently from
// another goroutine.
type Connection struct {
	conn  net.Conn
	fd    int
	proto Proto

	tls *tlsState

	rlimit *ratelimit.Limiter
	wlimit *ratelimit.Limiter

	watcher *reactor.Watcher
	rt      *reactor.Timer
	wt      *reactor.Timer

	readTimeout  time.Duration
	writeTimeout time.Duration
	lastRead     time.Time

	recWarmupThreshold int
	recIdleTimeout     time.Duration

	noPostponeEarlyData    bool
	noHTTP2CipherBlockList bool

	cb   Callbacks
	data interface{}

	log     logging.Logger
	metrics MetricsRecorder

	// clock is the monotonic time source used for every bookkeeping
	// timestamp (lastRead, lastWriteIdle). Defaults to time.Now; tests
	// substitute a fake to exercise the time-based heuristics without
	// sleeping.
	clock func() time.Time

	closed bool
}

// now returns the current time from the connection's clock source.
func (c *Connection) now() time.Time { return c.clock() }

// New constructs a Connection. Watchers and timers are initialized but
// not armed: the caller must invoke PrepareClientHandshake or
// PrepareServerHandshake (for TLS connections) and then drive
// TLSHandshake from reactor callbacks, or for cleartext connections go
// straight to ReadClear/WriteClear.
func New(conn net.Conn, loop *reactor.Loop, eng engine.Engine, cfg Config) *Connection {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	c := &Connection{
		conn:                   conn,
		proto:                  cfg.Proto,
		readTimeout:            cfg.ReadTimeout,
		writeTimeout:           cfg.WriteTimeout,
		recWarmupThreshold:     cfg.RecWarmupThreshold,
		recIdleTimeout:         cfg.RecIdleTimeout,
		noPostponeEarlyData:    cfg.NoPostponeEarlyData,
		noHTTP2CipherBlockList: cfg.NoHTTP2CipherBlockList,
		cb:                     cfg.Callbacks,
		data:                   cfg.UserData,
		log:                    log,
		metrics:                metrics,
		clock:                  time.Now,
	}
	c.lastRead = c.now()

	c.fd = socketFD(conn)

	c.watcher = loop.Register(c.fd, c.onReadable, c.onWritable)
	c.rt = loop.NewTimer(c.onReadTimeout)
	c.wt = loop.NewTimer(c.onWriteTimeout)

	c.rlimit = ratelimit.New(cfg.ReadLimiter.Rate, cfg.ReadLimiter.Burst, c.watcher.ReadSide())
	c.wlimit = ratelimit.New(cfg.WriteLimiter.Rate, cfg.WriteLimiter.Burst, c.watcher.WriteSide())
	c.rlimit.SetPendingReadHook(func() {
		if c.watcher != nil {
			c.onReadable()
		}
	})

	if eng != nil {
		c.tls = &tlsState{
			engine:        eng,
			earlybuf:      earlybuf.New(),
			lastWriteIdle: idleSentinel,
		}
	}

	return c
}

// PrepareClientHandshake puts the TLS engine in connect state. Clients
// never consume 0-RTT early data through this core, so earlyDataFinish
// is forced true.
func (c *Connection) PrepareClientHandshake() {
	c.tls.engine.SetFD(c.fd)
	c.tls.engine.ConnectState()
	c.tls.earlyDataFinish.setTrue()
}

// PrepareServerHandshake puts the TLS engine in accept state and marks
// isServer, enabling the early-data branch of TLSHandshake.
func (c *Connection) PrepareServerHandshake() {
	c.tls.engine.SetFD(c.fd)
	c.tls.engine.AcceptState()
	c.tls.isServer = true
}

// ArmHandshake starts read readiness delivery and the read timer so the
// reactor drives TLSHandshake forward on the next readable event. Call
// once after PrepareClientHandshake/PrepareServerHandshake, before
// returning control to the reactor loop.
func (c *Connection) ArmHandshake() {
	c.watcher.StartRead()
	c.AgainRTDefault()
}

// Disconnect tears the connection down: stops both timers and disarms
// both watcher directions before any TLS shutdown, because some engines
// re-enter callbacks synchronously during shutdown. Idempotent.
func (c *Connection) Disconnect() {
	if c.closed {
		return
	}
	c.closed = true

	c.rt.Stop()
	c.wt.Stop()
	c.watcher.Close()

	if c.tls != nil && c.proto != HTTP3 {
		c.tls.engine.Shutdown()
	}
	if c.proto != HTTP3 {
		_ = c.conn.Close()
	}
	c.fd = -1

	if c.tls != nil {
		if c.tls.recordUnlimited {
			c.metrics.ObserveRecordMode(false)
			c.tls.recordUnlimited = false
		}
		c.tls.handshakeDone.setFalse()
		c.tls.earlyDataFinish.setFalse()
		c.tls.lastWritelen = 0
		c.tls.lastReadlen = 0
	}
}

// HandleTLSPendingRead delivers a synthetic readable event for plaintext
// the TLS engine is already holding internally (buffered inside the
// record layer with nothing left to read off the socket, so no further
// readable event would otherwise fire). The hook New installs runs the
// readable handler synchronously. writePendingPostHandshake calls this
// on handshake completion; it is exported for the protocol layer too.
func (c *Connection) HandleTLSPendingRead() {
	c.rlimit.HandleTLSPendingRead()
}

// Data returns the user data supplied at construction.
func (c *Connection) Data() interface{} { return c.data }

// Proto reports which upstream/downstream protocol owns this connection.
func (c *Connection) Proto() Proto { return c.proto }

func (c *Connection) onReadable() {
	if c.tls != nil && !c.tls.handshakeDone.isSet() {
		_ = c.TLSHandshake()
		return
	}
	if c.cb.OnReadable != nil {
		c.cb.OnReadable(c)
	}
}

func (c *Connection) onWritable() {
	if c.tls != nil && !c.tls.handshakeDone.isSet() {
		_ = c.TLSHandshake()
		return
	}
	if c.cb.OnWritable != nil {
		c.cb.OnWritable(c)
	}
}

func (c *Connection) onReadTimeout() {
	if c.ExpiredRT() && c.cb.OnTimeout != nil {
		c.cb.OnTimeout(c)
	}
}

func (c *Connection) onWriteTimeout() {
	if c.cb.OnTimeout != nil {
		c.cb.OnTimeout(c)
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveHandshake(string)           {}
func (noopMetrics) ObserveBytes(string, string, int)  {}
func (noopMetrics) ObserveRecordMode(bool)            {}
func (noopMetrics) ObserveRateLimitExhausted(string)  {}
