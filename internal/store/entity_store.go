// Package store keeps the id to scene node mapping for synchronized content.
package store

import (
	"errors"
	"fmt"
	"sort"

	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/scene"
)

var (
	ErrEmptyID     = errors.New("store: empty entity id")
	ErrInvalidKind = errors.New("store: invalid entity kind")
)

// Placement supplies the pose for content that has no prior representation.
type Placement interface {
	SpawnPose() (math32.Vector3, math32.Quat)
}

// Listener observes node lifecycle. Attached is always reported before the
// prior node for the same id is destroyed.
type Listener interface {
	EntityAttached(n *scene.Node)
	EntityDestroyed(n *scene.Node)
}

type IEntityStore interface {
	Upsert(id string, kind entity.Kind, payload entity.Payload) (*scene.Node, error)
	Remove(id string) bool
	Get(id string) (entity.Entity, bool)
	Node(id string) (*scene.Node, bool)
	IDs() []string
	List() []entity.Entity
	Len() int
}

type entityStore struct {
	container scene.Container
	placement Placement
	listener  Listener
	nodes     map[string]*scene.Node
}

// NewEntityStore wires the store to its container. placement and listener may be nil.
func NewEntityStore(container scene.Container, placement Placement, listener Listener) IEntityStore {
	return &entityStore{
		container: container,
		placement: placement,
		listener:  listener,
		nodes:     make(map[string]*scene.Node),
	}
}

func (s *entityStore) Upsert(id string, kind entity.Kind, payload entity.Payload) (*scene.Node, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	prior := s.nodes[id]
	node := scene.NewNode(entity.Entity{ID: id, Kind: kind, Payload: payload})
	if prior != nil {
		node.Position = prior.Position
		node.Rotation = prior.Rotation
	} else if s.placement != nil {
		node.Position, node.Rotation = s.placement.SpawnPose()
	}

	if err := s.container.Attach(node); err != nil {
		return nil, fmt.Errorf("attach %s: %w", id, err)
	}
	s.nodes[id] = node
	if s.listener != nil {
		s.listener.EntityAttached(node)
	}

	if prior != nil {
		s.destroy(prior)
	}
	return node, nil
}

func (s *entityStore) Remove(id string) bool {
	node, ok := s.nodes[id]
	if !ok {
		return false
	}
	delete(s.nodes, id)
	s.destroy(node)
	return true
}

func (s *entityStore) destroy(n *scene.Node) {
	n.Destroy()
	if s.listener != nil {
		s.listener.EntityDestroyed(n)
	}
}

func (s *entityStore) Get(id string) (entity.Entity, bool) {
	node, ok := s.nodes[id]
	if !ok {
		return entity.Entity{}, false
	}
	return node.Entity, true
}

func (s *entityStore) Node(id string) (*scene.Node, bool) {
	node, ok := s.nodes[id]
	return node, ok
}

func (s *entityStore) IDs() []string {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *entityStore) List() []entity.Entity {
	out := make([]entity.Entity, 0, len(s.nodes))
	for _, id := range s.IDs() {
		out = append(out, s.nodes[id].Entity)
	}
	return out
}

func (s *entityStore) Len() int {
	return len(s.nodes)
}
