package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu        sync.Mutex
	connected int
	messages  []string
	errors    []error
	closed    []string
}

func (h *recordingHandler) OnConnected(string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected++
}

func (h *recordingHandler) OnMessage(_ string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, string(data))
}

func (h *recordingHandler) OnError(_ string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, err)
}

func (h *recordingHandler) OnClosed(_ string, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = append(h.closed, reason)
}

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSocketClientDeliversMessagesThenCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"note"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"image"}`))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		// wait for the client to acknowledge the close
		conn.SetReadDeadline(time.Now().Add(time.Second))
		conn.ReadMessage()
	}))
	defer srv.Close()

	h := &recordingHandler{}
	err := NewSocketClient(wsURL(srv), nil, h).Run(context.Background())
	assert.Error(t, err)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, 1, h.connected)
	assert.Equal(t, []string{`{"type":"note"}`, `{"type":"image"}`}, h.messages)
	assert.Empty(t, h.errors, "normal closure is not an error")
	require.Len(t, h.closed, 1)
	assert.Equal(t, "1000 bye", h.closed[0])
}

func TestSocketClientDialFailure(t *testing.T) {
	h := &recordingHandler{}
	err := NewSocketClient("ws://127.0.0.1:1/none", nil, h).Run(context.Background())
	require.Error(t, err)

	assert.Zero(t, h.connected)
	assert.Len(t, h.errors, 1)
	assert.Empty(t, h.closed)
}

func TestSocketClientStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	h := &recordingHandler{}
	done := make(chan error, 1)
	go func() { done <- NewSocketClient(wsURL(srv), nil, h).Run(ctx) }()

	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.connected == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("client did not stop")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []string{"context cancelled"}, h.closed)
	assert.Empty(t, h.errors)
}
