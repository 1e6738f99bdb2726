package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

func clientCount(h *Hub, sessionKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionKey])
}

func TestHubDeliversToRegisteredClient(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	client := &Client{Hub: hub, SessionKey: "sess", Send: make(chan []byte, 4)}
	hub.register <- client
	require.Eventually(t, func() bool {
		return clientCount(hub, "sess") == 1
	}, time.Second, 5*time.Millisecond)

	hub.Send("sess", ChatPush{Type: "chat_message", Content: "hello"})

	select {
	case data := <-client.Send:
		assert.Contains(t, string(data), "hello")
	case <-time.After(time.Second):
		t.Fatal("no push delivered")
	}
}

func TestHubEvictsSlowClientWithoutCrashing(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	// Buffer of one, pre-filled, so the next push hits the full-buffer path.
	client := &Client{Hub: hub, SessionKey: "sess", Send: make(chan []byte, 1)}
	hub.register <- client
	require.Eventually(t, func() bool {
		return clientCount(hub, "sess") == 1
	}, time.Second, 5*time.Millisecond)
	client.Send <- []byte("backlog")

	hub.Send("sess", ChatPush{Type: "chat_message", Content: "dropped"})
	hub.Send("sess", ChatPush{Type: "chat_message", Content: "after eviction"})

	// The slow client is evicted, its channel closed exactly once, and the
	// hub keeps serving.
	require.Eventually(t, func() bool {
		return clientCount(hub, "sess") == 0
	}, time.Second, 5*time.Millisecond)

	other := &Client{Hub: hub, SessionKey: "sess", Send: make(chan []byte, 4)}
	hub.register <- other
	require.Eventually(t, func() bool {
		return clientCount(hub, "sess") == 1
	}, time.Second, 5*time.Millisecond)

	hub.Send("sess", ChatPush{Type: "chat_message", Content: "still alive"})
	select {
	case data := <-other.Send:
		assert.Contains(t, string(data), "still alive")
	case <-time.After(time.Second):
		t.Fatal("hub stopped delivering after evicting a slow client")
	}
}

func TestHubIsolatesSessions(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	go hub.Run()

	alice := &Client{Hub: hub, SessionKey: "alice", Send: make(chan []byte, 4)}
	bob := &Client{Hub: hub, SessionKey: "bob", Send: make(chan []byte, 4)}
	hub.register <- alice
	hub.register <- bob
	require.Eventually(t, func() bool {
		return clientCount(hub, "alice") == 1 && clientCount(hub, "bob") == 1
	}, time.Second, 5*time.Millisecond)

	hub.Send("alice", ChatPush{Type: "chat_message", Content: "for alice"})

	select {
	case <-alice.Send:
	case <-time.After(time.Second):
		t.Fatal("alice got nothing")
	}
	select {
	case <-bob.Send:
		t.Fatal("bob received alice's push")
	case <-time.After(50 * time.Millisecond):
	}
}
