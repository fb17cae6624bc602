package interaction

import (
	"fmt"

	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/scene"
	"vr-scene-sync/internal/session"
)

// Tracker is the state machine of one interactable node.
type Tracker struct {
	id         string
	seq        uint64
	node       *scene.Node
	flags      flags
	distance   float32
	grabOffset math32.Vector3
	changes    uint64
}

func newTracker(n *scene.Node, seq uint64) *Tracker {
	return &Tracker{id: n.Tag, seq: seq, node: n}
}

func (t *Tracker) ID() string { return t.id }
func (t *Tracker) Seq() uint64 { return t.seq }
func (t *Tracker) Node() *scene.Node { return t.node }
func (t *Tracker) State() State { return t.flags.rendered() }
func (t *Tracker) Distance() float32 { return t.distance }
func (t *Tracker) Selected() bool { return t.flags.selected }
func (t *Tracker) Changes() uint64 { return t.changes }

// apply runs mutate against the flags and keeps the result only if the
// rendered state change is legal.
func (t *Tracker) apply(mutate func(f *flags)) error {
	next := t.flags
	mutate(&next)
	from, to := t.flags.rendered(), next.rendered()
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrTransitionRejected, from, to, t.id)
	}
	if from != to {
		t.changes++
	}
	t.flags = next
	return nil
}

func (t *Tracker) setHover(on bool) error {
	return t.apply(func(f *flags) { f.hovered = on })
}

func (t *Tracker) setSpatial(gazed, proximate bool) error {
	return t.apply(func(f *flags) {
		f.gazed = gazed
		f.proximate = proximate
	})
}

func (t *Tracker) grab(origin math32.Vector3, physics bool) error {
	if t.flags.selected || !t.flags.engaged() {
		return fmt.Errorf("%w: grab from %s for %s", ErrTransitionRejected, t.State(), t.id)
	}
	if err := t.apply(func(f *flags) { f.selected = true }); err != nil {
		return err
	}
	t.grabOffset = t.node.Position.Sub(origin)
	if physics {
		t.node.Body.UseGravity = false
		t.node.Body.Kinematic = true
	}
	return nil
}

// release drops every flag so the object always lands in Idle. Spatial
// flags come back on the next update.
func (t *Tracker) release(physics bool) error {
	if !t.flags.selected {
		return fmt.Errorf("%w: release from %s for %s", ErrTransitionRejected, t.State(), t.id)
	}
	if err := t.apply(func(f *flags) { *f = flags{} }); err != nil {
		return err
	}
	t.grabOffset = math32.Vector3{}
	if physics {
		t.node.Body.UseGravity = true
		t.node.Body.Kinematic = false
	}
	return nil
}

func (t *Tracker) follow(ctx session.Context) {
	if !t.flags.selected {
		return
	}
	t.node.Position = ctx.Origin.Add(t.grabOffset)
}
