// Package scene holds the in-memory scene graph that synchronized content is
// attached to. It is owned by the runtime loop and is not safe for concurrent use.
package scene

import (
	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/entity"
)

// Body is the physics state an interactable toggles while held.
type Body struct {
	UseGravity bool
	Kinematic  bool
}

// Node is the scene representation of one entity.
type Node struct {
	Tag      string
	Entity   entity.Entity
	Position math32.Vector3
	Rotation math32.Quat
	Body     Body

	parent    *Graph
	destroyed bool
}

func NewNode(e entity.Entity) *Node {
	return &Node{
		Tag:      e.ID,
		Entity:   e,
		Rotation: math32.NewQuat(0, 0, 0, 1),
		Body:     Body{UseGravity: true},
	}
}

func (n *Node) Attached() bool {
	return n.parent != nil
}

func (n *Node) Destroyed() bool {
	return n.destroyed
}

// Destroy detaches the node from its container and marks it dead.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	if n.parent != nil {
		n.parent.Detach(n)
	}
	n.destroyed = true
}
