package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/pkg/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil, "test", logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func receive(t *testing.T, c *Client) dto.OutboundFrame {
	t.Helper()
	select {
	case data := <-c.Send:
		var frame dto.OutboundFrame
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return dto.OutboundFrame{}
	}
}

func TestBroadcastChangeReachesEveryClient(t *testing.T) {
	hub := startHub(t)
	a := &Client{Hub: hub, ID: "a", Send: make(chan []byte, 4)}
	b := &Client{Hub: hub, ID: "b", Send: make(chan []byte, 4)}
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.BroadcastChange(dto.SceneChange{Type: dto.ChangeApplied, Id: "n1", Kind: "note"})

	for _, c := range []*Client{a, b} {
		frame := receive(t, c)
		assert.Equal(t, FrameSceneChange, frame.Type)
		data := frame.Data.(map[string]interface{})
		assert.Equal(t, "n1", data["id"])
	}
}

func TestSendHapticFrame(t *testing.T) {
	hub := startHub(t)
	c := &Client{Hub: hub, ID: "a", Send: make(chan []byte, 4)}
	require.True(t, hub.Register(c))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.SendHaptic(entity.HandRight, 0.7, 100*time.Millisecond)

	frame := receive(t, c)
	assert.Equal(t, FrameHaptic, frame.Type)
	data := frame.Data.(map[string]interface{})
	assert.Equal(t, "right", data["hand"])
	assert.InDelta(t, 0.7, data["intensity"], 1e-6)
	assert.EqualValues(t, 100, data["duration_ms"])
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := startHub(t)
	slow := &Client{Hub: hub, ID: "slow", Send: make(chan []byte)}
	require.True(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastChange(dto.SceneChange{Type: dto.ChangeRemoved, Id: "n1"})

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-slow.Send
	assert.False(t, open)
}

type recordingFrames struct{ got chan string }

func (r *recordingFrames) HandleFrame(clientID string, data []byte) {
	r.got <- clientID + ":" + string(data)
}

func TestHandleFrameForwards(t *testing.T) {
	hub := NewHub(nil, "test", logger.NewNopLogger())
	rec := &recordingFrames{got: make(chan string, 1)}
	hub.handleFrame("a", []byte("ignored"))
	hub.SetFrameHandler(rec)
	hub.handleFrame("a", []byte("x"))
	assert.Equal(t, "a:x", <-rec.got)
}

func TestRegisterAfterStopFails(t *testing.T) {
	hub := NewHub(nil, "test", logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	assert.False(t, hub.Register(&Client{Hub: hub, ID: "late", Send: make(chan []byte, 1)}))
}
