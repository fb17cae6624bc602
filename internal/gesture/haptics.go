package gesture

import (
	"time"

	"cogentcore.org/core/math32"

	"vr-scene-sync/internal/entity"
)

// HapticSink receives pulses as they start. Implementations must not block.
type HapticSink interface {
	SendHaptic(hand entity.Hand, intensity float32, duration time.Duration)
}

type pulse struct {
	intensity float32
	remaining time.Duration
}

// Haptics tracks one timed pulse per controller.
type Haptics struct {
	enabled  bool
	duration time.Duration
	sink     HapticSink
	pulses   [2]pulse
	sent     uint64
}

func NewHaptics(enabled bool, duration time.Duration, sink HapticSink) *Haptics {
	return &Haptics{enabled: enabled, duration: duration, sink: sink}
}

// Trigger starts a pulse on hand. A pulse already running is restarted with
// the new intensity, never stacked.
func (h *Haptics) Trigger(hand entity.Hand, intensity float32) {
	if !h.enabled || h.duration <= 0 {
		return
	}
	intensity = math32.Clamp(intensity, 0, 1)
	h.pulses[hand] = pulse{intensity: intensity, remaining: h.duration}
	h.sent++
	if h.sink != nil {
		h.sink.SendHaptic(hand, intensity, h.duration)
	}
}

// TriggerBoth pulses both controllers.
func (h *Haptics) TriggerBoth(intensity float32) {
	h.Trigger(entity.HandLeft, intensity)
	h.Trigger(entity.HandRight, intensity)
}

// Advance runs the pulse timers forward and clears the expired ones.
func (h *Haptics) Advance(dt time.Duration) {
	for i := range h.pulses {
		p := &h.pulses[i]
		if p.remaining <= 0 {
			continue
		}
		p.remaining -= dt
		if p.remaining <= 0 {
			*p = pulse{}
		}
	}
}

func (h *Haptics) Active(hand entity.Hand) bool {
	return h.pulses[hand].remaining > 0
}

// Intensity is the current output for hand, zero when idle.
func (h *Haptics) Intensity(hand entity.Hand) float32 {
	return h.pulses[hand].intensity
}

func (h *Haptics) Remaining(hand entity.Hand) time.Duration {
	return h.pulses[hand].remaining
}

func (h *Haptics) Sent() uint64 {
	return h.sent
}
