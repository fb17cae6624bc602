package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// RedisChannel mirrors observer frames across viewer instances.
const RedisChannel = "scene_events"

const (
	FrameSceneChange = "scene_change"
	FrameHaptic      = "haptic"
)

// FrameHandler receives inbound frames from observer clients.
type FrameHandler interface {
	HandleFrame(clientID string, data []byte)
}

type relayEnvelope struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

type Hub struct {
	// Registered clients by connection id
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb        *redis.Client
	instanceID string

	frames FrameHandler

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, instanceID string, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		rdb:        rdb,
		instanceID: instanceID,
		logger:     log,
	}
}

// SetFrameHandler must be called before Run.
func (h *Hub) SetFrameHandler(fh FrameHandler) {
	h.frames = fh
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.Send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if c, ok := h.clients[client.ID]; ok && c == client {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.ID})
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastChange sends a scene change to every observer of every instance.
func (h *Hub) BroadcastChange(change dto.SceneChange) {
	data, err := json.Marshal(dto.OutboundFrame{Type: FrameSceneChange, Data: change})
	if err != nil {
		return
	}
	h.deliverLocal(data)
	h.publishRedis(data)
}

// SendHaptic pushes a pulse to local observers. It runs on the loop and never blocks.
func (h *Hub) SendHaptic(hand entity.Hand, intensity float32, duration time.Duration) {
	data, err := json.Marshal(dto.OutboundFrame{Type: FrameHaptic, Data: dto.HapticFrame{
		Hand:       hand.String(),
		Intensity:  intensity,
		DurationMs: duration.Milliseconds(),
	}})
	if err != nil {
		return
	}
	h.deliverLocal(data)
}

// deliverLocal never holds the lock while unregistering slow clients.
func (h *Hub) deliverLocal(data []byte) {
	var slow []*Client
	h.mu.RLock()
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"client_id": c.ID})
		go h.Unregister(c)
	}
}

func (h *Hub) publishRedis(data []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(relayEnvelope{Origin: h.instanceID, Message: data})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.rdb.Publish(ctx, RedisChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeToRedis relays frames published by other instances to local clients.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, RedisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if env.Origin == h.instanceID {
				continue
			}
			h.deliverLocal(env.Message)
		}
	}
}

func (h *Hub) handleFrame(clientID string, data []byte) {
	if h.frames != nil {
		h.frames.HandleFrame(clientID, data)
	}
}
