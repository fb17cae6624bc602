package handler

import (
	"encoding/json"
	"sync/atomic"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/mapper"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/pkg/serverutils"
	internalWS "vr-scene-sync/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// InputSink accepts observer input for the next tick.
type InputSink interface {
	SubmitFrame(frame entity.InputFrame) bool
	SubmitHover(id string, entered bool) bool
}

// SceneSocketHandler upgrades observer connections and feeds their controller
// and hover frames into the loop.
type SceneSocketHandler struct {
	hub       *internalWS.Hub
	sink      InputSink
	jwtSecret string
	mapper    *mapper.SceneMapper
	logger    logger.ILogger
	rejected  atomic.Uint64
}

func NewSceneSocketHandler(hub *internalWS.Hub, sink InputSink, jwtSecret string, log logger.ILogger) *SceneSocketHandler {
	h := &SceneSocketHandler{
		hub:       hub,
		sink:      sink,
		jwtSecret: jwtSecret,
		mapper:    mapper.NewSceneMapper(),
		logger:    log,
	}
	hub.SetFrameHandler(h)
	return h
}

// ServeWs handles websocket requests from observers. When a secret is
// configured the token comes from ?token= or the Authorization header.
func (h *SceneSocketHandler) ServeWs(c *fiber.Ctx) error {
	if h.jwtSecret != "" {
		tokenStr := serverutils.TokenFromRequest(c)
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
		}
		if _, err := serverutils.ParseToken(h.jwtSecret, tokenStr); err != nil {
			h.logger.Warn("SceneSocketHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
	}

	if websocket.IsWebSocketUpgrade(c) {
		clientID := uuid.NewString()
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("SceneSocketHandler", "Starting WebSocket session", map[string]interface{}{"client_id": clientID})
			internalWS.ServeWs(h.hub, conn, clientID)
			h.logger.Info("SceneSocketHandler", "WebSocket session ended", map[string]interface{}{"client_id": clientID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// HandleFrame runs on the client's read goroutine.
func (h *SceneSocketHandler) HandleFrame(clientID string, data []byte) {
	var frame dto.SocketFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.reject(clientID, "malformed frame", err)
		return
	}
	if err := serverutils.ValidateStruct(frame); err != nil {
		h.reject(clientID, "invalid frame", err)
		return
	}

	switch frame.Type {
	case "controller":
		var cf dto.ControllerFrame
		if err := json.Unmarshal(frame.Data, &cf); err != nil {
			h.reject(clientID, "malformed controller frame", err)
			return
		}
		if err := serverutils.ValidateStruct(cf); err != nil {
			h.reject(clientID, "invalid controller frame", err)
			return
		}
		h.sink.SubmitFrame(h.mapper.ToInputFrame(cf))

	case "hover":
		var hf dto.HoverFrame
		if err := json.Unmarshal(frame.Data, &hf); err != nil {
			h.reject(clientID, "malformed hover frame", err)
			return
		}
		if err := serverutils.ValidateStruct(hf); err != nil {
			h.reject(clientID, "invalid hover frame", err)
			return
		}
		h.sink.SubmitHover(hf.Id, hf.Entered)
	}
}

// Rejected counts frames that failed to parse or validate.
func (h *SceneSocketHandler) Rejected() uint64 {
	return h.rejected.Load()
}

func (h *SceneSocketHandler) reject(clientID, reason string, err error) {
	h.rejected.Add(1)
	h.logger.Debug("SceneSocketHandler", "Frame rejected", map[string]interface{}{
		"client_id": clientID,
		"reason":    reason,
		"error":     err.Error(),
	})
}
