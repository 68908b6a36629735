// Package proxycore implements the connection core of an HTTP
// reverse-proxy: the per-socket object that fuses a non-blocking byte
// transport with an optional TLS engine, a pair of token-bucket rate
// limiters, and a pair of read/write timers. It sits directly above the
// operating-system socket and directly below any protocol parser
// (HTTP/1, HTTP/2, HTTP/3), exposing Read, Write, Writev and Peek in both
// cleartext and encrypted modes.
//
// Errors are reported through explicit returns rather than an error-code
// enum, the TLS session is driven through the engine.Engine interface
// rather than a raw handle, and readiness/timers come from a reactor.Loop.
package proxycore
