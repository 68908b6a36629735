package main

import (
	"net"
	"testing"
)

func TestKeepAliveListenerAccept(t *testing.T) {
	tcpLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ln := keepAliveListener{tcpLn.(*net.TCPListener)}
	defer ln.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
		done <- err
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := <-done; err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
}
