package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "ws://localhost:3000", cfg.Sync.SocketURL)
	assert.Equal(t, float32(0.8), cfg.Interaction.GrabThreshold)
	assert.Equal(t, float32(0.2), cfg.Interaction.ReleaseThreshold)
	assert.Equal(t, 100*time.Millisecond, cfg.Interaction.HapticDuration)
	assert.Equal(t, 5*time.Second, cfg.Sync.ReconcileInterval)
	assert.Equal(t, 60, cfg.App.TickRate)
	assert.True(t, cfg.Features.GestureRecognition)
	assert.False(t, cfg.Features.EyeTracking)
	assert.NotEmpty(t, cfg.App.InstanceID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GRAB_THRESHOLD", "0.9")
	t.Setenv("ENABLE_EYE_TRACKING", "true")
	t.Setenv("RECONCILE_INTERVAL", "250ms")
	t.Setenv("TICK_RATE", "90")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, float32(0.9), cfg.Interaction.GrabThreshold)
	assert.True(t, cfg.Features.EyeTracking)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.ReconcileInterval)
	assert.Equal(t, 90, cfg.App.TickRate)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TICK_RATE", "fast")
	t.Setenv("ENABLE_HAPTIC_FEEDBACK", "maybe")
	t.Setenv("HAPTIC_DURATION", "soon")

	cfg := Load()

	assert.Equal(t, 60, cfg.App.TickRate)
	assert.True(t, cfg.Features.HapticFeedback)
	assert.Equal(t, 100*time.Millisecond, cfg.Interaction.HapticDuration)
}
