package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "scene.changes.SCENE_ENTITY_APPLIED", Subject("SCENE_ENTITY_APPLIED"))
}
