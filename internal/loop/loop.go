// Package loop runs the single logical thread that owns the scene, the
// interaction state and the session context.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/entity"
	"vr-scene-sync/internal/gesture"
	"vr-scene-sync/internal/interaction"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/session"
)

var ErrStopped = errors.New("loop stopped")

const defaultInboxSize = 1024

type Config struct {
	TickRate  int
	InboxSize int
}

// Loop drains its inbox at the start of every tick, then updates the
// session, interactions, gestures, follow and haptics in that order.
type Loop struct {
	cfg      Config
	inbox    chan func()
	done     chan struct{}
	stopOnce sync.Once

	session  *session.Manager
	registry *interaction.Registry
	gestures *gesture.Engine
	haptics  *gesture.Haptics
	logger   logger.ILogger

	frame   entity.InputFrame
	context session.Context
	started time.Time

	ticks        atomic.Uint64
	lastTickNano atomic.Int64
	maxTickNano  atomic.Int64
}

func New(
	cfg Config,
	sessionManager *session.Manager,
	registry *interaction.Registry,
	gestures *gesture.Engine,
	haptics *gesture.Haptics,
	log logger.ILogger,
) *Loop {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 60
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = defaultInboxSize
	}
	return &Loop{
		cfg:      cfg,
		inbox:    make(chan func(), cfg.InboxSize),
		done:     make(chan struct{}),
		session:  sessionManager,
		registry: registry,
		gestures: gestures,
		haptics:  haptics,
		logger:   log,
		context:  sessionManager.Current(),
		started:  time.Now(),
	}
}

// Dispatch queues fn for the next tick. It must not be called from the loop
// goroutine itself. It returns false once the loop has stopped.
func (l *Loop) Dispatch(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Dispatch(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// SubmitFrame replaces the controller frame used from the next tick on.
func (l *Loop) SubmitFrame(frame entity.InputFrame) bool {
	return l.Dispatch(func() { l.frame = frame })
}

// SubmitHover forwards a pointer signal to the interaction registry.
func (l *Loop) SubmitHover(id string, entered bool) bool {
	return l.Dispatch(func() {
		if err := l.registry.Hover(id, entered); err != nil {
			l.logger.Debug("LOOP", "Hover ignored", map[string]interface{}{"id": id, "error": err.Error()})
		}
	})
}

// Tick advances the simulation by one frame. Exported for deterministic tests;
// Run calls it from the ticker.
func (l *Loop) Tick(dt time.Duration) {
	start := time.Now()

	// drain only what was queued before the tick started
	for n := len(l.inbox); n > 0; n-- {
		fn := <-l.inbox
		l.safeRun(fn)
	}

	ctx := l.session.Update(l.frame)
	l.context = ctx

	l.registry.Update(ctx)
	l.gestures.Process(ctx)
	l.registry.Follow(ctx)
	l.haptics.Advance(dt)

	elapsed := time.Since(start).Nanoseconds()
	l.lastTickNano.Store(elapsed)
	if elapsed > l.maxTickNano.Load() {
		l.maxTickNano.Store(elapsed)
	}
	l.ticks.Add(1)
}

func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("LOOP", "Recovered from panic in loop task", map[string]interface{}{"panic": r})
		}
	}()
	fn()
}

// Run ticks at the configured rate until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()

	ticker := time.NewTicker(time.Second / time.Duration(l.cfg.TickRate))
	defer ticker.Stop()

	last := time.Now()
	fallback := time.Second / time.Duration(l.cfg.TickRate)

	l.logger.Info("LOOP", "Loop started", map[string]interface{}{"tick_rate": l.cfg.TickRate})
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("LOOP", "Loop stopped", map[string]interface{}{"ticks": l.ticks.Load()})
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			if dt <= 0 {
				dt = fallback
			}
			last = now
			l.Tick(dt)
		}
	}
}

// Stop unblocks pending Dispatch and Call callers.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Context is the session context of the last tick. Loop goroutine only.
func (l *Loop) Context() session.Context {
	return l.context
}

// Stats may be read from any goroutine.
func (l *Loop) Stats() dto.LoopStatsResponse {
	return dto.LoopStatsResponse{
		Ticks:          l.ticks.Load(),
		LastTickMicros: l.lastTickNano.Load() / 1e3,
		MaxTickMicros:  l.maxTickNano.Load() / 1e3,
		InboxDepth:     len(l.inbox),
		TickRate:       l.cfg.TickRate,
		Uptime:         time.Since(l.started).Seconds(),
	}
}
