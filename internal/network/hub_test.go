package network

import (
	"context"
	"testing"
	"time"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
)

func TestStoppedHubRefusesClients(t *testing.T) {
	// Setup
	s, _ := newTestSession(t)
	hub := NewHub(s, logger.Discard(), nil, HubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	// Act
	cancel()
	select {
	case <-hub.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Expected hub to stop after cancel")
	}

	c := NewClient(hub, nil)
	registered := make(chan bool, 1)
	go func() { registered <- c.Register() }()

	// Assert
	select {
	case ok := <-registered:
		if ok {
			t.Errorf("Expected registration to be refused after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Register blocked on a stopped hub")
	}

	left := make(chan struct{})
	go func() {
		c.unregister()
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(2 * time.Second):
		t.Fatalf("unregister blocked on a stopped hub")
	}
}

func TestRunningHubRegistersClients(t *testing.T) {
	s, _ := newTestSession(t)
	hub := NewHub(s, logger.Discard(), nil, HubOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := NewClient(hub, nil)
	if !c.Register() {
		t.Fatalf("Expected registration on a running hub")
	}

	// The hub queues the current view for the new client.
	select {
	case msg := <-c.send:
		if len(msg) == 0 {
			t.Errorf("Expected an initial view frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Expected an initial view frame")
	}
	if hub.ClientCount() != 1 {
		t.Errorf("Expected 1 client, got %d", hub.ClientCount())
	}
}
