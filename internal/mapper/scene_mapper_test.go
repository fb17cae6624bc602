package mapper

import (
	"image"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/scene"
)

func TestToEntityResponse(t *testing.T) {
	m := NewSceneMapper()

	img := scene.NewNode(entity.Entity{
		ID:      "http://x/a.png",
		Kind:    entity.KindImage,
		Payload: entity.Payload{Image: image.NewRGBA(image.Rect(0, 0, 4, 2))},
	})
	img.Position = math32.Vec3(1, 2, 3)

	res := m.ToEntityResponse(img)
	require.NotNil(t, res)
	assert.Equal(t, "image", res.Kind)
	assert.Equal(t, 4, res.ImageWidth)
	assert.Equal(t, 2, res.ImageHeight)
	assert.Equal(t, [3]float32{1, 2, 3}, res.Position)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, res.Rotation)
	assert.True(t, res.UseGravity)

	model := scene.NewNode(entity.Entity{
		ID:   "m1",
		Kind: entity.KindModel,
		Payload: entity.Payload{Model: &entity.MeshNode{Name: "root", Children: []*entity.MeshNode{
			{Name: "a", HasMesh: true},
			{Name: "b", HasMesh: true},
		}}},
	})
	assert.Equal(t, 3, m.ToEntityResponse(model).MeshNodes)

	assert.Nil(t, m.ToEntityResponse(nil))
}

func TestToInputFrameDefaultsRotation(t *testing.T) {
	m := NewSceneMapper()
	frame := m.ToInputFrame(dto.ControllerFrame{
		Left:  dto.ControllerSampleFrame{Position: [3]float32{-1, 0, 0}, Grip: 0.9, Tracked: true},
		Right: dto.ControllerSampleFrame{Position: [3]float32{1, 0, 0}, Orientation: [4]float32{0, 1, 0, 0}, Tracked: true},
	})

	assert.Equal(t, entity.HandLeft, frame.Left.Hand)
	assert.Equal(t, entity.HandRight, frame.Right.Hand)
	assert.Equal(t, math32.NewQuat(0, 0, 0, 1), frame.Left.Orientation)
	assert.Equal(t, math32.NewQuat(0, 1, 0, 0), frame.Right.Orientation)
	assert.Equal(t, math32.NewQuat(0, 0, 0, 1), frame.Head.Orientation)
	assert.InDelta(t, 0.9, frame.Left.GripValue, 1e-6)
}

func TestToLogDetailResponse(t *testing.T) {
	m := NewSceneMapper()
	res := m.ToLogDetailResponse(&logger.LogEntry{
		Id:        "abc",
		Timestamp: "2026-01-02T03:04:05Z",
		Level:     "info",
		Module:    "SYNC",
		Message:   "Entity applied",
		Details:   map[string]interface{}{"id": "n1"},
	})
	require.NotNil(t, res)
	assert.Equal(t, "abc", res.Id)
	assert.Equal(t, 2026, res.CreatedAt.Year())
	assert.Equal(t, "n1", res.Details["id"])
	assert.Nil(t, m.ToLogDetailResponse(nil))
}
