// Package downstream defines the polymorphic backend-connection contract
// a protocol layer above the connection core drives a request through,
// plus a health-monitor stub implementation of it that always answers
// with a canned reply instead of contacting a real backend. Only the
// health-monitor stub is in scope here; a real backend
// DownstreamConnection is out of scope.
package downstream

import "github.com/flowgate/proxycore/earlybuf"

// IOCtrlReason identifies why a read was paused or resumed. The health
// monitor never inspects it.
type IOCtrlReason int

const (
	IOCtrlReasonNone IOCtrlReason = iota
	IOCtrlReasonRequestBody
)

// Response is the minimal response-construction surface
// EndUploadData needs to synthesize a canned 200.
type Response struct {
	HTTPStatus    int
	ContentLength string
}

// Upstream is the subset of an upstream request handler's surface the
// health monitor stub exercises: submitting a synthesized reply for a
// Downstream.
type Upstream interface {
	SendReply(d *Downstream, body []byte, statusOverride int) error
}

// DownstreamAddr and DownstreamAddrGroup describe a backend address and
// the group it belongs to. The health monitor stub never has a real
// backend, so every accessor returns nil; a real DownstreamConnection
// implementation would populate these from its backend group
// configuration.
type DownstreamAddr struct {
	Host string
	Port int
}

type DownstreamAddrGroup struct {
	Pattern string
	Addrs   []*DownstreamAddr
}

// Downstream carries one request/response exchange's state: the fields
// a DownstreamConnection implementation in this package touches.
type Downstream struct {
	RequestHeaderSent bool
	BlockedRequestBuf *earlybuf.Buffer
	RequestBuf        *earlybuf.Buffer
	Upstream          Upstream
	Response          Response
}

// NewDownstream builds a Downstream with both buffers initialized.
func NewDownstream(up Upstream) *Downstream {
	return &Downstream{
		BlockedRequestBuf: earlybuf.New(),
		RequestBuf:        earlybuf.New(),
		Upstream:          up,
	}
}

// DownstreamConnection is the polymorphic backend-connection contract a
// protocol layer uses to push a request to a backend and receive its
// response.
type DownstreamConnection interface {
	Attach(d *Downstream) error
	Detach(d *Downstream)

	PushRequestHeaders() error
	PushUploadDataChunk(data []byte) error
	EndUploadData() error

	PauseRead(reason IOCtrlReason)
	ResumeRead(reason IOCtrlReason, consumed int) error
	OnRead() error
	OnWrite() error
	OnUpstreamChange(up Upstream)

	Poolable() bool

	GetAddr() *DownstreamAddr
	GetDownstreamAddrGroup() *DownstreamAddrGroup
}
