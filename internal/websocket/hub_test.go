package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{Send: make(chan []byte, 4)}
}

func receive(t *testing.T, ch <-chan []byte) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		return msg, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil, false
	}
}

func TestHubBroadcastsToRegisteredClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a, b := newTestClient(), newTestClient()
	require.True(t, hub.Join(a))
	require.True(t, hub.Join(b))

	hub.Publish([]byte("hello"))

	for _, c := range []*Client{a, b} {
		msg, ok := receive(t, c.Send)
		require.True(t, ok)
		assert.Equal(t, "hello", string(msg))
	}
}

func TestHubLeaveClosesSendChannel(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := newTestClient()
	require.True(t, hub.Join(c))
	hub.Leave(c)

	_, ok := receive(t, c.Send)
	assert.False(t, ok)
}

func TestHubStop(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	c := newTestClient()
	require.True(t, hub.Join(c))
	hub.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	_, ok := receive(t, c.Send)
	assert.False(t, ok)

	// Neither call may block once the hub is gone.
	assert.False(t, hub.Join(newTestClient()))
	hub.Leave(c)
}

func TestNewEventMessage(t *testing.T) {
	msg, err := NewEventMessage(map[string]string{"type": "backup.create"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"event","payload":{"type":"backup.create"}}`, string(msg))
}
