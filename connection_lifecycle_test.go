package proxycore

import (
	"testing"
	"time"
)

// TestArmHandshakeActivatesWatcherAndTimer confirms ArmHandshake is the
// one call that transitions a freshly constructed Connection into
// "waiting for reactor events."
func TestArmHandshakeActivatesWatcherAndTimer(t *testing.T) {
	c, _ := newTLSTestConnection(t, &fakeEngine{}, true, Config{ReadTimeout: time.Second})
	c.PrepareServerHandshake()

	if c.watcher.IsActive() || c.rt.IsActive() {
		t.Fatal("watcher/timer active before ArmHandshake was called")
	}

	c.ArmHandshake()

	if !c.watcher.IsActive() {
		t.Fatal("watcher not active after ArmHandshake")
	}
	if !c.rt.IsActive() {
		t.Fatal("rt not active after ArmHandshake")
	}
	if c.rt.Repeat() != time.Second {
		t.Fatalf("rt.Repeat() = %v, want 1s", c.rt.Repeat())
	}
}
