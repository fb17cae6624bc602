package dto

import "time"

const (
	ChangeApplied = "applied"
	ChangeRemoved = "removed"
	ChangeFailed  = "failed"

	SourceEvent     = "event"
	SourceReconcile = "reconcile"
)

// SceneChange is published on the internal change bus for every store outcome.
type SceneChange struct {
	Type       string    `json:"type"`
	Id         string    `json:"id"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type SyncStatsResponse struct {
	Events  uint64 `json:"events"`
	Applied uint64 `json:"applied"`
	Removed uint64 `json:"removed"`
	Failed  uint64 `json:"failed"`
	Stale   uint64 `json:"stale"`
	Dropped uint64 `json:"dropped"`
	Pending int64  `json:"pending"`
}

type LoopStatsResponse struct {
	Ticks          uint64  `json:"ticks"`
	LastTickMicros int64   `json:"last_tick_micros"`
	MaxTickMicros  int64   `json:"max_tick_micros"`
	InboxDepth     int     `json:"inbox_depth"`
	TickRate       int     `json:"tick_rate"`
	HapticsSent    uint64  `json:"haptics_sent"`
	Rejected       uint64  `json:"rejected_transitions"`
	Grabs          uint64  `json:"grabs"`
	Releases       uint64  `json:"releases"`
	Uptime         float64 `json:"uptime_seconds"`
}

type StatsResponse struct {
	Sync SyncStatsResponse `json:"sync"`
	Loop LoopStatsResponse `json:"loop"`
}
