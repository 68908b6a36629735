package proxycore

import "sync/atomic"

// atomicBool is a data race free bool. Used for handshakeDone and
// earlyDataFinish, both of which are set from the reactor goroutine but
// may be read from a connection's Disconnect call triggered
// asynchronously (e.g. a finalizer or a signal handler stopping the
// listener).
type atomicBool int32

func (b *atomicBool) isSet() bool { return atomic.LoadInt32((*int32)(b)) != 0 }

func (b *atomicBool) setTrue() { atomic.StoreInt32((*int32)(b), 1) }

func (b *atomicBool) setFalse() { atomic.StoreInt32((*int32)(b), 0) }
