package proxycore

import "testing"

func TestRoundTCPHintWrite(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, minTCPHintWrite},
		{500, minTCPHintWrite},
		{minTCPHintWrite, minTCPHintWrite},
		{5000, 5000},
		{tcpHintRounding, tcpHintRounding},
		{tcpHintRounding + 1, tcpHintRounding},
		{3*tcpHintRounding + 100, 3 * tcpHintRounding},
	}
	for _, c := range cases {
		if got := roundTCPHintWrite(c.in); got != c.want {
			t.Errorf("roundTCPHintWrite(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTLSOverheadFor(t *testing.T) {
	if got := tlsOverheadFor(0x0304); got != 22 {
		t.Errorf("tlsOverheadFor(TLS1.3) = %d, want 22", got)
	}
	if got := tlsOverheadFor(0x0303); got != 29 {
		t.Errorf("tlsOverheadFor(TLS1.2) = %d, want 29", got)
	}
	if got := tlsOverheadFor(0x0301); got != 29 {
		t.Errorf("tlsOverheadFor(TLS1.0) = %d, want 29", got)
	}
}

// TestGetTCPHintErrorsWithoutRealSocket confirms GetTCPHint on a connection without
// a syscall-backed fd (e.g. net.Pipe in tests) fails cleanly rather than
// panicking.
func TestGetTCPHintErrorsWithoutRealSocket(t *testing.T) {
	c, _ := newTLSTestConnection(t, &fakeEngine{}, false, Config{})
	if _, err := c.GetTCPHint(); err == nil {
		t.Fatal("GetTCPHint() over a net.Pipe connection = nil error, want one")
	}
}
