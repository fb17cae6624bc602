// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// ChangeBroadcaster pushes scene changes to connected observers.
type ChangeBroadcaster interface {
	BroadcastChange(change dto.SceneChange)
}

// EventPublisher forwards lifecycle events to the external bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	broadcaster ChangeBroadcaster
	events      EventPublisher
	logger      logger.ILogger
}

// NewConsumerService fans change bus messages out. broadcaster and publisher may be nil.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	broadcaster ChangeBroadcaster,
	publisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		broadcaster: broadcaster,
		events:      publisher,
		logger:      log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var change dto.SceneChange
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal scene change", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.broadcaster != nil {
		cs.broadcaster.BroadcastChange(change)
	}

	if cs.events != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := cs.events.Publish(pubCtx, events.NewSceneChangeEvent(change))
		cancel()
		if err != nil {
			// bus outages must not stall the change stream
			cs.logger.Warn("CONSUMER", "Failed to forward scene change", map[string]interface{}{"id": change.Id, "error": err.Error()})
		}
	}

	msg.Ack()
}
