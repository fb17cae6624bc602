package handler

import (
	"sync/atomic"

	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/service"
)

// SceneEventHandler receives transport callbacks and moves every message onto
// the loop, where the synchronizer handles it in receipt order.
type SceneEventHandler struct {
	dispatcher service.Dispatcher
	sync       service.IContentSyncService
	logger     logger.ILogger
	connected  atomic.Int32
	lost       atomic.Uint64
}

func NewSceneEventHandler(dispatcher service.Dispatcher, sync service.IContentSyncService, log logger.ILogger) *SceneEventHandler {
	return &SceneEventHandler{dispatcher: dispatcher, sync: sync, logger: log}
}

func (h *SceneEventHandler) OnConnected(source string) {
	h.connected.Add(1)
	h.logger.Info("TRANSPORT", "Connected", map[string]interface{}{"source": source})
}

func (h *SceneEventHandler) OnMessage(source string, data []byte) {
	raw := make([]byte, len(data))
	copy(raw, data)
	if !h.dispatcher.Dispatch(func() { h.sync.HandleEvent(raw) }) {
		h.lost.Add(1)
		h.logger.Warn("TRANSPORT", "Loop stopped, message lost", map[string]interface{}{"source": source})
	}
}

func (h *SceneEventHandler) OnError(source string, err error) {
	h.logger.Error("TRANSPORT", "Transport error", map[string]interface{}{"source": source, "error": err.Error()})
}

func (h *SceneEventHandler) OnClosed(source string, reason string) {
	h.connected.Add(-1)
	h.logger.Warn("TRANSPORT", "Closed", map[string]interface{}{"source": source, "reason": reason})
}

// Connected is the number of sources currently open.
func (h *SceneEventHandler) Connected() int {
	return int(h.connected.Load())
}

func (h *SceneEventHandler) Lost() uint64 {
	return h.lost.Load()
}
