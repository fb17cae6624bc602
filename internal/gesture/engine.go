// Package gesture turns two-hand controller samples into discrete grab and
// release events and drives controller haptics.
package gesture

import (
	"errors"
	"fmt"

	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/session"
)

var ErrInvalidThresholds = errors.New("gesture: release threshold must be below grab threshold")

type Kind int

const (
	KindGrab Kind = iota + 1
	KindRelease
)

func (k Kind) String() string {
	switch k {
	case KindGrab:
		return "grab"
	case KindRelease:
		return "release"
	}
	return "unknown"
}

// Event is one detected gesture. Origin is the immersive origin at detection.
type Event struct {
	Kind   Kind
	Origin math32.Vector3
	Tick   uint64
}

// Target receives dispatched gestures. The interaction registry implements it.
type Target interface {
	Grab(ev Event, ctx session.Context) bool
	Release(ev Event, ctx session.Context) int
}

type Config struct {
	GrabThreshold    float32
	ReleaseThreshold float32
	HapticIntensity  float32
	// ReleaseScale multiplies HapticIntensity for the release pulse.
	ReleaseScale float32
	Enabled      bool
}

func DefaultConfig() Config {
	return Config{
		GrabThreshold:    0.8,
		ReleaseThreshold: 0.2,
		HapticIntensity:  0.5,
		ReleaseScale:     0.3,
		Enabled:          true,
	}
}

type Engine struct {
	cfg     Config
	haptics *Haptics
	target  Target
	gripped bool
	tick    uint64
	grabs   uint64
	release uint64
}

func NewEngine(cfg Config, haptics *Haptics, target Target) (*Engine, error) {
	if cfg.ReleaseThreshold >= cfg.GrabThreshold {
		return nil, fmt.Errorf("%w: release=%.2f grab=%.2f", ErrInvalidThresholds, cfg.ReleaseThreshold, cfg.GrabThreshold)
	}
	if cfg.ReleaseScale == 0 {
		cfg.ReleaseScale = 0.3
	}
	return &Engine{cfg: cfg, haptics: haptics, target: target}, nil
}

// Evaluate classifies the current samples without side effects. It returns at
// most one event per call.
func (e *Engine) Evaluate(ctx session.Context) (Event, bool) {
	e.tick++
	if !e.cfg.Enabled || !ctx.Left.Tracked || !ctx.Right.Tracked {
		return Event{}, false
	}
	l, r := ctx.Left.GripValue, ctx.Right.GripValue

	if !e.gripped && l > e.cfg.GrabThreshold && r > e.cfg.GrabThreshold {
		e.gripped = true
		e.grabs++
		return Event{Kind: KindGrab, Origin: ctx.Origin, Tick: e.tick}, true
	}
	if e.gripped && l < e.cfg.ReleaseThreshold && r < e.cfg.ReleaseThreshold {
		e.gripped = false
		e.release++
		return Event{Kind: KindRelease, Origin: ctx.Origin, Tick: e.tick}, true
	}
	return Event{}, false
}

// Process evaluates ctx and dispatches any event to the target. Both
// controllers pulse once per gesture: the target pulses when it grabbed or
// released something, the engine pulses otherwise.
func (e *Engine) Process(ctx session.Context) (Event, bool) {
	ev, ok := e.Evaluate(ctx)
	if !ok {
		return ev, false
	}
	switch ev.Kind {
	case KindGrab:
		handled := e.target != nil && e.target.Grab(ev, ctx)
		if !handled && e.haptics != nil {
			e.haptics.TriggerBoth(e.cfg.HapticIntensity)
		}
	case KindRelease:
		handled := e.target != nil && e.target.Release(ev, ctx) > 0
		if !handled && e.haptics != nil {
			e.haptics.TriggerBoth(e.cfg.HapticIntensity * e.cfg.ReleaseScale)
		}
	}
	return ev, true
}

// Gripped reports whether a grab is armed and awaiting release.
func (e *Engine) Gripped() bool {
	return e.gripped
}

func (e *Engine) Counts() (grabs, releases uint64) {
	return e.grabs, e.release
}
