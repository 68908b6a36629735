package downstream

import "github.com/flowgate/proxycore/logging"

// Connection is a DownstreamConnection that never talks to a real
// backend: it only exists so the proxy's own health-check listener can
// answer every request with a canned 200.
type Connection struct {
	log        logging.Logger
	downstream *Downstream
}

// NewConnection builds a health-monitor Connection. log may be nil, in
// which case every call logs through logging.Nop().
func NewConnection(log logging.Logger) *Connection {
	if log == nil {
		log = logging.Nop()
	}
	return &Connection{log: log}
}

var _ DownstreamConnection = (*Connection)(nil)

// Attach stores a back-reference to d, mirroring attach_downstream.
// Demoted to debug level relative to the original's INFO: this fires on
// every health check, not worth info-level noise.
func (c *Connection) Attach(d *Downstream) error {
	c.log.Debugf(nil, "health monitor connection attaching to downstream")
	c.downstream = d
	return nil
}

// Detach clears the back-reference, mirroring detach_downstream.
func (c *Connection) Detach(d *Downstream) {
	c.log.Debugf(nil, "health monitor connection detaching from downstream")
	c.downstream = nil
}

// PushRequestHeaders moves every byte queued in BlockedRequestBuf into
// RequestBuf, mirroring push_request_headers' src->remove(*dest).
func (c *Connection) PushRequestHeaders() error {
	c.downstream.RequestHeaderSent = true
	src := c.downstream.BlockedRequestBuf
	dest := c.downstream.RequestBuf
	for src.Len() > 0 {
		chunk := make([]byte, src.Len())
		n := src.Remove(chunk)
		dest.Append(chunk[:n])
	}
	return nil
}

// PushUploadDataChunk is a no-op, mirroring push_upload_data_chunk's
// empty body (the health check never has a real request body to
// forward).
func (c *Connection) PushUploadDataChunk(data []byte) error {
	return nil
}

// EndUploadData synthesizes a 200 response with Content-Length: 0 and
// submits it via the attached Downstream's upstream, mirroring
// end_upload_data.
func (c *Connection) EndUploadData() error {
	c.downstream.Response.HTTPStatus = 200
	c.downstream.Response.ContentLength = "0"
	return c.downstream.Upstream.SendReply(c.downstream, nil, 0)
}

// PauseRead is a no-op, mirroring pause_read's empty body.
func (c *Connection) PauseRead(reason IOCtrlReason) {}

// ResumeRead is a no-op, mirroring resume_read's empty body.
func (c *Connection) ResumeRead(reason IOCtrlReason, consumed int) error {
	return nil
}

// OnRead is a no-op, mirroring on_read's empty body.
func (c *Connection) OnRead() error { return nil }

// OnWrite is a no-op, mirroring on_write's empty body.
func (c *Connection) OnWrite() error { return nil }

// OnUpstreamChange is a no-op, mirroring on_upstream_change's empty body.
func (c *Connection) OnUpstreamChange(up Upstream) {}

// Poolable always reports false: a fresh stub is built per health check,
// never returned to a connection pool, mirroring poolable().
func (c *Connection) Poolable() bool { return false }

// GetAddr always returns nil: there is no real backend address.
func (c *Connection) GetAddr() *DownstreamAddr { return nil }

// GetDownstreamAddrGroup always returns nil, mirroring
// get_downstream_addr_group's static empty shared_ptr.
func (c *Connection) GetDownstreamAddrGroup() *DownstreamAddrGroup { return nil }
