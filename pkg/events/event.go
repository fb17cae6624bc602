package events

import (
	"time"

	"vr-scene-sync/internal/dto"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SCENE_ENTITY_APPLIED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

const (
	SceneEntityApplied = "SCENE_ENTITY_APPLIED"
	SceneEntityRemoved = "SCENE_ENTITY_REMOVED"
	SceneEntityFailed  = "SCENE_ENTITY_FAILED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewSceneChangeEvent maps a change bus entry to its lifecycle event.
func NewSceneChangeEvent(change dto.SceneChange) BaseEvent {
	eventType := SceneEntityApplied
	switch change.Type {
	case dto.ChangeRemoved:
		eventType = SceneEntityRemoved
	case dto.ChangeFailed:
		eventType = SceneEntityFailed
	}

	data := map[string]interface{}{
		"id":          change.Id,
		"kind":        change.Kind,
		"source":      change.Source,
		"occurred_at": change.OccurredAt.Format(time.RFC3339Nano),
	}
	if change.Error != "" {
		data["error"] = change.Error
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: change.OccurredAt}
}
