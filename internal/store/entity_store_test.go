package store

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/scene"
)

type recordingListener struct {
	graph  *scene.Graph
	events []string
	// visible counts of the tag at each callback
	visible []int
}

func (l *recordingListener) EntityAttached(n *scene.Node) {
	l.events = append(l.events, "attach:"+n.Entity.Payload.Text)
	l.visible = append(l.visible, l.graph.CountTagged(n.Tag))
}

func (l *recordingListener) EntityDestroyed(n *scene.Node) {
	l.events = append(l.events, "destroy:"+n.Entity.Payload.Text)
	l.visible = append(l.visible, l.graph.CountTagged(n.Tag))
}

type fixedPlacement struct{}

func (fixedPlacement) SpawnPose() (math32.Vector3, math32.Quat) {
	return math32.Vec3(0, 1, 2), math32.NewQuat(0, 0, 0, 1)
}

func newTestStore() (IEntityStore, *scene.Graph, *recordingListener) {
	g := scene.NewGraph("content")
	l := &recordingListener{graph: g}
	return NewEntityStore(g, fixedPlacement{}, l), g, l
}

func TestUpsertReplacesWithoutDuplicate(t *testing.T) {
	s, g, l := newTestStore()

	_, err := s.Upsert("A", entity.KindNote, entity.Payload{Text: "x"})
	require.NoError(t, err)
	_, err = s.Upsert("A", entity.KindNote, entity.Payload{Text: "y"})
	require.NoError(t, err)

	got, ok := s.Get("A")
	require.True(t, ok)
	assert.Equal(t, "y", got.Payload.Text)
	assert.Equal(t, 1, g.CountTagged("A"))
	assert.Equal(t, 1, s.Len())

	// new node is attached before the old one goes away, so there is never a gap
	assert.Equal(t, []string{"attach:x", "attach:y", "destroy:x"}, l.events)
	assert.Equal(t, []int{1, 2, 1}, l.visible)
}

func TestUpsertPlacementAndInheritance(t *testing.T) {
	s, _, _ := newTestStore()

	first, err := s.Upsert("A", entity.KindNote, entity.Payload{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, math32.Vec3(0, 1, 2), first.Position)

	first.Position = math32.Vec3(5, 5, 5)
	second, err := s.Upsert("A", entity.KindNote, entity.Payload{Text: "y"})
	require.NoError(t, err)
	assert.Equal(t, math32.Vec3(5, 5, 5), second.Position)
	assert.True(t, first.Destroyed())
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	s, g, _ := newTestStore()

	_, err := s.Upsert("", entity.KindNote, entity.Payload{})
	assert.ErrorIs(t, err, ErrEmptyID)

	_, err = s.Upsert("A", entity.Kind("video"), entity.Payload{})
	assert.ErrorIs(t, err, ErrInvalidKind)
	assert.Empty(t, g.Children())
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, g, l := newTestStore()

	assert.False(t, s.Remove("missing"))
	assert.Empty(t, l.events)

	_, err := s.Upsert("A", entity.KindNote, entity.Payload{Text: "x"})
	require.NoError(t, err)
	assert.True(t, s.Remove("A"))
	assert.False(t, s.Remove("A"))

	_, ok := s.Get("A")
	assert.False(t, ok)
	assert.Empty(t, g.Children())
}

func TestListIsSortedByID(t *testing.T) {
	s, _, _ := newTestStore()
	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Upsert(id, entity.KindNote, entity.Payload{Text: id})
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"a", "b", "c"}, s.IDs())
	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
}
