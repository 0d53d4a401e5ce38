package whalestream

import (
	"context"
	"testing"
	"time"
)

func TestNewClampsNonPositiveIntervals(t *testing.T) {
	c := New("key", "wss://ws.example.io/v1", []string{"bitcoin"}, 0, 0, 0).(*Client)
	if c.pingInterval <= 0 {
		t.Fatalf("ping interval not clamped: %v", c.pingInterval)
	}
	if c.reconnectDelay <= 0 {
		t.Fatalf("reconnect delay not clamped: %v", c.reconnectDelay)
	}
}

func TestReadWithZeroPingIntervalDoesNotPanic(t *testing.T) {
	c := New("key", "wss://ws.example.io/v1", []string{"bitcoin"}, 0, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transfers, errs := c.Read(ctx)

	// No connection was established, so the read loop reports and exits.
	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected a read error for nil connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for read error")
	}
	cancel()
	for range transfers {
	}
}
