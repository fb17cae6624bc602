// Package session computes the shared immersive context once per tick.
package session

import (
	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/entity"
)

// Forward is the local forward axis before rotation.
var Forward = math32.Vec3(0, 0, 1)

// Context is the per-tick spatial state read by every other component.
type Context struct {
	Origin       math32.Vector3
	Orientation  math32.Quat
	EyeGazePoint math32.Vector3
	EyeTracking  bool
	AudioAnchor  math32.Vector3
	SpatialAudio bool
	Left         entity.ControllerSample
	Right        entity.ControllerSample
	Head         entity.HeadPose
}

type Options struct {
	EyeTracking   bool
	SpatialAudio  bool
	GazeLookahead float32
	SpawnDistance float32
}

// Manager is the single writer of Context. Readers always receive a copy.
type Manager struct {
	opts      Options
	ctx       Context
	lastLeft  entity.ControllerSample
	lastRight entity.ControllerSample
	updates   uint64
}

func NewManager(opts Options) *Manager {
	identity := math32.NewQuat(0, 0, 0, 1)
	m := &Manager{opts: opts}
	m.lastLeft = entity.ControllerSample{Hand: entity.HandLeft, Orientation: identity}
	m.lastRight = entity.ControllerSample{Hand: entity.HandRight, Orientation: identity}
	m.ctx = Context{Orientation: identity, Left: m.lastLeft, Right: m.lastRight}
	return m
}

// Update recomputes the context from the latest frame. An untracked hand keeps
// its last tracked pose so the origin does not jump when tracking drops.
func (m *Manager) Update(frame entity.InputFrame) Context {
	left := m.resolve(&m.lastLeft, frame.Left)
	right := m.resolve(&m.lastRight, frame.Right)

	origin := left.Position.Add(right.Position).MulScalar(0.5)
	orientation := left.Orientation
	orientation.Slerp(right.Orientation, 0.5)

	ctx := Context{
		Origin:       origin,
		Orientation:  orientation,
		EyeTracking:  m.opts.EyeTracking,
		SpatialAudio: m.opts.SpatialAudio,
		Left:         frame.Left,
		Right:        frame.Right,
		Head:         entity.HeadPose{Position: frame.Head.Position, Orientation: entity.IdentityQuat(frame.Head.Orientation)},
	}
	ctx.Left.Hand, ctx.Right.Hand = entity.HandLeft, entity.HandRight
	ctx.Left.Position, ctx.Left.Orientation = left.Position, left.Orientation
	ctx.Right.Position, ctx.Right.Orientation = right.Position, right.Orientation

	if m.opts.EyeTracking {
		ctx.EyeGazePoint = ctx.Head.Position.Add(Forward.MulQuat(ctx.Head.Orientation).MulScalar(m.opts.GazeLookahead))
	}
	if m.opts.SpatialAudio {
		ctx.AudioAnchor = origin
	}

	m.ctx = ctx
	m.updates++
	return ctx
}

func (m *Manager) resolve(last *entity.ControllerSample, s entity.ControllerSample) entity.ControllerSample {
	if s.Tracked {
		last.Position = s.Position
		last.Orientation = entity.IdentityQuat(s.Orientation)
	}
	return *last
}

func (m *Manager) Current() Context {
	return m.ctx
}

func (m *Manager) Updates() uint64 {
	return m.updates
}

// SpawnPose places new content in front of the immersive origin.
func (m *Manager) SpawnPose() (math32.Vector3, math32.Quat) {
	ctx := m.ctx
	pos := ctx.Origin.Add(Forward.MulQuat(ctx.Orientation).MulScalar(m.opts.SpawnDistance))
	return pos, ctx.Orientation
}
