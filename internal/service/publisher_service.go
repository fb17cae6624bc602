package service

import (
	"encoding/json"
	"log"

	"vr-scene-sync/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// scenePublisherService writes scene changes onto the in-process change bus.
type scenePublisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IChangePublisher {
	return &scenePublisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (p *scenePublisherService) Publish(change dto.SceneChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal scene change %s: %v", change.Id, err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pubSub.Publish(p.topicName, msg); err != nil {
		log.Printf("[ERROR] Failed to publish scene change %s: %v", change.Id, err)
	}
}
