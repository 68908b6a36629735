package proxycore

import (
	"testing"
	"time"

	"github.com/flowgate/proxycore/engine"
)

// TestWriteTLSStoredLengthInvariant is scenario S5: wlimit.Avail()=4096,
// recordLimit=1300. A WriteTLS(buf[:8192]) call clips to 1300 and the
// engine reports want-write; the retry MUST submit exactly 1300 bytes
// regardless of a tighter new Avail().
func TestWriteTLSStoredLengthInvariant(t *testing.T) {
	var gotLens []int
	eng := &fakeEngine{
		handshakeSeq: []engine.Status{engine.StatusComplete},
		writeFn: func(p []byte) (int, engine.Status) {
			gotLens = append(gotLens, len(p))
			if len(gotLens) == 1 {
				return 0, engine.StatusWantWrite
			}
			return len(p), engine.StatusProgress
		},
	}
	c, _ := newTLSTestConnection(t, eng, false, Config{
		WriteLimiter:       LimiterConfig{Rate: 1000, Burst: 4096},
		RecWarmupThreshold: 4096,
		RecIdleTimeout:     time.Second,
	})
	c.tls.handshakeDone.setTrue()

	buf := make([]byte, 8192)
	n, err := c.WriteTLS(buf)
	if err != nil || n != 0 {
		t.Fatalf("first WriteTLS = (%d, %v), want (0, nil)", n, err)
	}
	if c.tls.lastWritelen != 1300 {
		t.Fatalf("lastWritelen = %d, want 1300", c.tls.lastWritelen)
	}

	// Drain the limiter down to a tighter budget than the stored length
	// to prove the retry ignores it.
	c.wlimit.Drain(c.wlimit.Avail() - 800)

	n, err = c.WriteTLS(buf)
	if err != nil || n != 1300 {
		t.Fatalf("retry WriteTLS = (%d, %v), want (1300, nil)", n, err)
	}
	if len(gotLens) != 2 || gotLens[1] != 1300 {
		t.Fatalf("engine.Write call lengths = %v, want [1300 1300]", gotLens)
	}
}

// TestWriteTLSRenegotiationRejected confirms a want-read on write (a
// renegotiation attempt) is treated as ErrNetwork, never retried.
func TestWriteTLSRenegotiationRejected(t *testing.T) {
	eng := &fakeEngine{
		writeFn: func(p []byte) (int, engine.Status) {
			return 0, engine.StatusWantRead
		},
	}
	c, _ := newTLSTestConnection(t, eng, false, Config{})
	c.tls.handshakeDone.setTrue()

	_, err := c.WriteTLS([]byte("hello"))
	if err != ErrNetwork {
		t.Fatalf("WriteTLS = %v, want ErrNetwork", err)
	}
}

// TestReadTLSCleanClose confirms a clean-close from the engine maps to
// ErrEOF.
func TestReadTLSCleanClose(t *testing.T) {
	eng := &fakeEngine{
		readSeq: []struct {
			n  int
			st engine.Status
		}{
			{n: 0, st: engine.StatusCleanClose},
		},
	}
	c, _ := newTLSTestConnection(t, eng, false, Config{})
	c.tls.handshakeDone.setTrue()
	c.tls.earlyDataFinish.setTrue()

	_, err := c.ReadTLS(make([]byte, 16))
	if err != ErrEOF {
		t.Fatalf("ReadTLS = %v, want ErrEOF", err)
	}
}

// TestReadTLSRenegotiationRejected confirms a want-write on read (a
// renegotiation attempt) is treated as ErrNetwork.
func TestReadTLSRenegotiationRejected(t *testing.T) {
	eng := &fakeEngine{
		readSeq: []struct {
			n  int
			st engine.Status
		}{
			{n: 0, st: engine.StatusWantWrite},
		},
	}
	c, _ := newTLSTestConnection(t, eng, false, Config{})
	c.tls.handshakeDone.setTrue()
	c.tls.earlyDataFinish.setTrue()

	_, err := c.ReadTLS(make([]byte, 16))
	if err != ErrNetwork {
		t.Fatalf("ReadTLS = %v, want ErrNetwork", err)
	}
}
