// Package earlybuf implements the re-entrant 0-RTT plaintext queue held by
// a Connection while TLS 1.3 early data is still arriving: bytes read
// during the handshake accumulate here and are drained into downstream
// request parsing once the handshake completes. Backed by a
// bytes.Buffer-style FIFO.
package earlybuf

import "bytes"

// Buffer is a simple byte FIFO. It is not safe for concurrent use; callers
// serialize access the same way the connection core serializes all access
// to a single Connection.
type Buffer struct {
	buf bytes.Buffer
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append adds p to the end of the queue, copying it.
func (b *Buffer) Append(p []byte) {
	b.buf.Write(p)
}

// Remove copies up to len(p) queued bytes into p, removing them from the
// queue, and returns the number copied.
func (b *Buffer) Remove(p []byte) int {
	n, _ := b.buf.Read(p)
	return n
}

// Len reports the number of bytes currently queued.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Reset discards all queued bytes.
func (b *Buffer) Reset() {
	b.buf.Reset()
}
