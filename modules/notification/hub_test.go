package notification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	messages chan []byte
	mu       sync.Mutex
	closed   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{messages: make(chan []byte, 16)}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.messages <- data
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) next(t *testing.T) Message {
	t.Helper()
	select {
	case data := <-c.messages:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("invalid message %s: %v", data, err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return Message{}
	}
}

func (c *fakeConn) expectNothing(t *testing.T) {
	t.Helper()
	select {
	case data := <-c.messages:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func startTestHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func TestHub_SendToUser(t *testing.T) {
	hub, cancel := startTestHub(t)
	defer cancel()

	phone := newFakeConn()
	laptop := newFakeConn()
	other := newFakeConn()
	hub.Register(&Client{ID: "phone", UserID: "alice", Conn: phone})
	hub.Register(&Client{ID: "laptop", UserID: "alice", Conn: laptop})
	hub.Register(&Client{ID: "other", UserID: "bob", Conn: other})

	if got := hub.UserClientCount("alice"); got != 2 {
		t.Errorf("UserClientCount(alice) = %d, want 2", got)
	}

	hub.SendToUser("alice", Message{Type: "notification", Payload: map[string]string{"title": "hi"}})

	if msg := phone.next(t); msg.Type != "notification" {
		t.Errorf("phone got %q", msg.Type)
	}
	if msg := laptop.next(t); msg.Type != "notification" {
		t.Errorf("laptop got %q", msg.Type)
	}
	other.expectNothing(t)
}

func TestHub_Unregister(t *testing.T) {
	hub, cancel := startTestHub(t)
	defer cancel()

	conn := newFakeConn()
	client := &Client{ID: "c1", UserID: "alice", Conn: conn}
	hub.Register(client)
	hub.Unregister(client)

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("ClientCount() = %d, want 0", got)
	}
	hub.SendToUser("alice", Message{Type: "notification"})
	conn.expectNothing(t)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startTestHub(t)

	conn := newFakeConn()
	hub.Register(&Client{ID: "c1", UserID: "alice", Conn: conn})

	cancel()
	hub.Wait()

	if !conn.isClosed() {
		t.Error("connection should be closed on shutdown")
	}
	if hub.Register(&Client{ID: "late", UserID: "alice", Conn: newFakeConn()}) {
		t.Error("Register() after shutdown should report false")
	}
}
