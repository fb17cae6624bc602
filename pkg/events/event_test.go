package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vr-scene-sync/internal/dto"
)

func TestNewSceneChangeEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		change dto.SceneChange
		want   string
	}{
		{dto.SceneChange{Type: dto.ChangeApplied, Id: "n1", Kind: "note", OccurredAt: at}, SceneEntityApplied},
		{dto.SceneChange{Type: dto.ChangeRemoved, Id: "n1", Kind: "note", OccurredAt: at}, SceneEntityRemoved},
		{dto.SceneChange{Type: dto.ChangeFailed, Id: "m1", Kind: "model", Error: "import error", OccurredAt: at}, SceneEntityFailed},
	}
	for _, tt := range tests {
		ev := NewSceneChangeEvent(tt.change)
		assert.Equal(t, tt.want, ev.EventType())
		assert.Equal(t, tt.change.Id, ev.Payload()["id"])
		assert.Equal(t, at, ev.Timestamp())
	}

	failed := NewSceneChangeEvent(tests[2].change)
	assert.Equal(t, "import error", failed.Payload()["error"])
	_, hasErr := NewSceneChangeEvent(tests[0].change).Payload()["error"]
	assert.False(t, hasErr)
}
