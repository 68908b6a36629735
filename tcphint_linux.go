//go:build linux

package proxycore

import "golang.org/x/sys/unix"

// GetTCPHint queries TCP_INFO for this connection's socket and derives a
// write-buffer-size and receive-window hint. It returns an error if fd
// is closed or the kernel doesn't support TCP_INFO.
func (c *Connection) GetTCPHint() (TCPHint, error) {
	if c.fd < 0 {
		return TCPHint{}, ErrNetwork
	}
	info, err := unix.GetsockoptTCPInfo(c.fd, unix.SOL_TCP, unix.TCP_INFO)
	if err != nil {
		return TCPHint{}, err
	}

	version := uint16(0)
	if c.tls != nil {
		version = c.tls.engine.NegotiatedVersion()
	}
	overhead := tlsOverheadFor(version)

	cwnd := int(info.Snd_cwnd)
	unacked := int(info.Unacked)
	mss := int(info.Snd_mss)

	writeBuf := (cwnd - unacked + 2) * (mss - overhead)
	if writeBuf < 0 {
		writeBuf = 0
	}
	writeBuf = roundTCPHintWrite(writeBuf)

	return TCPHint{
		WriteBufferSize: writeBuf,
		RWin:            int(info.Rcv_space),
	}, nil
}
