package proxycore

import "github.com/flowgate/proxycore/engine"

// fakeEarlyDataCall is one scripted response from ReadEarlyData.
type fakeEarlyDataCall struct {
	data   []byte
	status engine.EarlyDataStatus
}

// fakeEngine is a scriptable engine.Engine double used to drive the
// connection core's handshake and I/O state machines without a real TLS
// stack.
type fakeEngine struct {
	handshakeSeq []engine.Status
	handshakeIdx int

	earlyDataSeq []fakeEarlyDataCall
	earlyDataIdx int
	earlyDataCalls int

	alpn    string
	version uint16
	cipher  uint16
	inInit  bool

	readCalls  int
	readSeq    []struct {
		n  int
		st engine.Status
	}

	writeFn      func(p []byte) (int, engine.Status)
	writeEarlyFn func(p []byte) (int, engine.Status)

	shutdownCalled bool
}

func (e *fakeEngine) SetFD(int)        {}
func (e *fakeEngine) ConnectState()    {}
func (e *fakeEngine) AcceptState()     {}

func (e *fakeEngine) DoHandshake() engine.Status {
	if e.handshakeIdx >= len(e.handshakeSeq) {
		return e.handshakeSeq[len(e.handshakeSeq)-1]
	}
	st := e.handshakeSeq[e.handshakeIdx]
	e.handshakeIdx++
	return st
}

func (e *fakeEngine) ReadEarlyData(p []byte) (int, engine.EarlyDataStatus) {
	e.earlyDataCalls++
	if e.earlyDataIdx >= len(e.earlyDataSeq) {
		return 0, engine.EarlyDataNone
	}
	call := e.earlyDataSeq[e.earlyDataIdx]
	e.earlyDataIdx++
	n := copy(p, call.data)
	return n, call.status
}

func (e *fakeEngine) Read(p []byte) (int, engine.Status) {
	if e.readCalls >= len(e.readSeq) {
		return 0, engine.StatusWantRead
	}
	r := e.readSeq[e.readCalls]
	e.readCalls++
	return r.n, r.st
}

func (e *fakeEngine) Write(p []byte) (int, engine.Status) {
	if e.writeFn != nil {
		return e.writeFn(p)
	}
	return len(p), engine.StatusProgress
}

func (e *fakeEngine) WriteEarlyData(p []byte) (int, engine.Status) {
	if e.writeEarlyFn != nil {
		return e.writeEarlyFn(p)
	}
	return 0, engine.StatusProtocolError
}

func (e *fakeEngine) InInit() bool { return e.inInit }

func (e *fakeEngine) Shutdown() { e.shutdownCalled = true }

func (e *fakeEngine) ALPNSelected() string      { return e.alpn }
func (e *fakeEngine) NegotiatedVersion() uint16 { return e.version }
func (e *fakeEngine) CipherSuite() uint16       { return e.cipher }
