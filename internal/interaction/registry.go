package interaction

import (
	"fmt"
	"sort"

	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/gesture"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/scene"
	"vr-scene-sync/internal/session"
)

type Config struct {
	GrabRange               float32
	ProximityHapticDistance float32
	EyeGazeDistance         float32
	GrabHapticIntensity     float32
	ReleaseHapticIntensity  float32
	ProximityHapticScale    float32
	EyeTracking             bool
	ProximityDetection      bool
	ImmersivePhysics        bool
}

func DefaultConfig() Config {
	return Config{
		GrabRange:               1,
		ProximityHapticDistance: 2,
		EyeGazeDistance:         5,
		GrabHapticIntensity:     0.7,
		ReleaseHapticIntensity:  0.3,
		ProximityHapticScale:    0.3,
		ProximityDetection:      true,
		ImmersivePhysics:        true,
	}
}

// Snapshot is a read-only view of one tracker, safe to hand off the loop.
type Snapshot struct {
	ID       string  `json:"id"`
	State    string  `json:"state"`
	Distance float32 `json:"distance"`
	Seq      uint64  `json:"seq"`
}

// Registry owns every tracker. It listens to the entity store for lifecycle
// and receives gesture events from the engine.
type Registry struct {
	cfg      Config
	haptics  *gesture.Haptics
	logger   logger.ILogger
	trackers map[string]*Tracker
	nextSeq  uint64
	rejected uint64
}

func NewRegistry(cfg Config, haptics *gesture.Haptics, log logger.ILogger) *Registry {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Registry{
		cfg:      cfg,
		haptics:  haptics,
		logger:   log,
		trackers: make(map[string]*Tracker),
	}
}

// EntityAttached registers the node. A replacement keeps the registration
// order and interaction state of the node it replaces.
func (r *Registry) EntityAttached(n *scene.Node) {
	prev, ok := r.trackers[n.Tag]
	if !ok {
		r.nextSeq++
		r.trackers[n.Tag] = newTracker(n, r.nextSeq)
		return
	}
	t := newTracker(n, prev.seq)
	t.flags = prev.flags
	t.distance = prev.distance
	t.grabOffset = prev.grabOffset
	if t.flags.selected {
		n.Body = prev.node.Body
	}
	r.trackers[n.Tag] = t
}

// EntityDestroyed tears down the tracker, unless the node was already replaced.
func (r *Registry) EntityDestroyed(n *scene.Node) {
	if t, ok := r.trackers[n.Tag]; ok && t.node == n {
		delete(r.trackers, n.Tag)
	}
}

// Hover forwards a pointer enter/exit signal.
func (r *Registry) Hover(id string, entered bool) error {
	t, ok := r.trackers[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInteractable, id)
	}
	return r.check(t.setHover(entered))
}

// Update refreshes gaze and proximity flags against ctx and emits the ambient
// proximity pulse for the nearest proximate object.
func (r *Registry) Update(ctx session.Context) {
	var nearest *Tracker
	anySelected := false
	for _, t := range r.ordered() {
		pos := t.node.Position
		t.distance = pos.DistanceTo(ctx.Origin)

		proximate := r.cfg.ProximityDetection && t.distance < r.cfg.ProximityHapticDistance
		gazed := r.cfg.EyeTracking && ctx.EyeTracking && pos.DistanceTo(ctx.EyeGazePoint) < r.cfg.EyeGazeDistance
		_ = r.check(t.setSpatial(gazed, proximate))

		if t.flags.selected {
			anySelected = true
		}
		if proximate && (nearest == nil || t.distance < nearest.distance) {
			nearest = t
		}
	}

	if nearest == nil || anySelected || r.haptics == nil || r.cfg.ProximityHapticDistance <= 0 {
		return
	}
	strength := math32.Clamp(1-nearest.distance/r.cfg.ProximityHapticDistance, 0, 1) * r.cfg.ProximityHapticScale
	if strength > 0 {
		r.haptics.TriggerBoth(strength)
	}
}

// Grab selects the nearest engaged object within grab range of the gesture
// origin. Equal distances go to the earliest registered object.
func (r *Registry) Grab(ev gesture.Event, _ session.Context) bool {
	var best *Tracker
	var bestDist float32
	for _, t := range r.ordered() {
		if t.flags.selected || !t.flags.engaged() {
			continue
		}
		d := t.node.Position.DistanceTo(ev.Origin)
		if d >= r.cfg.GrabRange {
			continue
		}
		if best == nil || d < bestDist {
			best, bestDist = t, d
		}
	}
	if best == nil {
		return false
	}
	if err := r.check(best.grab(ev.Origin, r.cfg.ImmersivePhysics)); err != nil {
		return false
	}
	if r.haptics != nil {
		r.haptics.TriggerBoth(r.cfg.GrabHapticIntensity)
	}
	r.logger.Debug("INTERACTION", "Grabbed", map[string]interface{}{"id": best.id, "distance": bestDist})
	return true
}

// Release lets go of every selected object and returns how many were released.
func (r *Registry) Release(_ gesture.Event, _ session.Context) int {
	released := 0
	for _, t := range r.ordered() {
		if !t.flags.selected {
			continue
		}
		if err := r.check(t.release(r.cfg.ImmersivePhysics)); err != nil {
			continue
		}
		released++
		r.logger.Debug("INTERACTION", "Released", map[string]interface{}{"id": t.id})
	}
	if released > 0 && r.haptics != nil {
		r.haptics.TriggerBoth(r.cfg.ReleaseHapticIntensity)
	}
	return released
}

// Follow moves selected objects with the immersive origin.
func (r *Registry) Follow(ctx session.Context) {
	for _, t := range r.trackers {
		t.follow(ctx)
	}
}

func (r *Registry) Tracker(id string) (*Tracker, bool) {
	t, ok := r.trackers[id]
	return t, ok
}

func (r *Registry) Len() int {
	return len(r.trackers)
}

func (r *Registry) Rejected() uint64 {
	return r.rejected
}

func (r *Registry) Snapshot() []Snapshot {
	ts := r.ordered()
	out := make([]Snapshot, 0, len(ts))
	for _, t := range ts {
		out = append(out, Snapshot{ID: t.id, State: t.State().String(), Distance: t.distance, Seq: t.seq})
	}
	return out
}

func (r *Registry) ordered() []*Tracker {
	ts := make([]*Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		ts = append(ts, t)
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].seq < ts[j].seq })
	return ts
}

func (r *Registry) check(err error) error {
	if err != nil {
		r.rejected++
		r.logger.Debug("INTERACTION", "Transition rejected", map[string]interface{}{"error": err.Error()})
	}
	return err
}
