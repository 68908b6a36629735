//go:build !linux

package proxycore

// GetTCPHint always fails on non-Linux platforms: there is no portable
// TCP_INFO equivalent wired here. Production deployments target Linux,
// where tcphint_linux.go's getsockopt path is used instead.
func (c *Connection) GetTCPHint() (TCPHint, error) {
	return TCPHint{}, ErrNetwork
}
