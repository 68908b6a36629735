package proxycore

// Proto identifies which upstream/downstream protocol owns a Connection.
// HTTP/3 connections do not have their socket polled for read by this
// core (the QUIC engine polls separately) and skip close(2)/TLS shutdown
// on disconnect, since QUIC owns the socket lifecycle.
type Proto int

const (
	HTTP1 Proto = iota
	HTTP2
	HTTP3
)

func (p Proto) String() string {
	switch p {
	case HTTP1:
		return "http/1.1"
	case HTTP2:
		return "h2"
	case HTTP3:
		return "h3"
	default:
		return "unknown"
	}
}
