package dto

import "encoding/json"

// --- Observer API DTOs ---

type EntityResponse struct {
	Id          string     `json:"id"`
	Kind        string     `json:"kind"`
	Text        string     `json:"text,omitempty"`
	ImageWidth  int        `json:"image_width,omitempty"`
	ImageHeight int        `json:"image_height,omitempty"`
	MeshNodes   int        `json:"mesh_nodes,omitempty"`
	Position    [3]float32 `json:"position"`
	Rotation    [4]float32 `json:"rotation"`
	UseGravity  bool       `json:"use_gravity"`
	Kinematic   bool       `json:"kinematic"`
}

type SessionResponse struct {
	Origin       [3]float32 `json:"origin"`
	Orientation  [4]float32 `json:"orientation"`
	EyeTracking  bool       `json:"eye_tracking"`
	EyeGazePoint [3]float32 `json:"eye_gaze_point"`
	SpatialAudio bool       `json:"spatial_audio"`
	AudioAnchor  [3]float32 `json:"audio_anchor"`
	LeftTracked  bool       `json:"left_tracked"`
	RightTracked bool       `json:"right_tracked"`
	Gripped      bool       `json:"gripped"`
}

type InteractableResponse struct {
	Id       string  `json:"id"`
	State    string  `json:"state"`
	Distance float32 `json:"distance"`
	Seq      uint64  `json:"seq"`
}

// --- Observer Socket Frames ---

// SocketFrame is the envelope for inbound observer websocket messages.
type SocketFrame struct {
	Type string          `json:"type" validate:"required,oneof=controller hover"`
	Data json.RawMessage `json:"data"`
}

// OutboundFrame is the envelope for messages pushed to observers.
type OutboundFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type ControllerSampleFrame struct {
	Position    [3]float32 `json:"position"`
	Orientation [4]float32 `json:"orientation"`
	Grip        float32    `json:"grip" validate:"gte=0,lte=1"`
	Trigger     float32    `json:"trigger" validate:"gte=0,lte=1"`
	Tracked     bool       `json:"tracked"`
}

type HeadPoseFrame struct {
	Position    [3]float32 `json:"position"`
	Orientation [4]float32 `json:"orientation"`
}

type ControllerFrame struct {
	Left  ControllerSampleFrame `json:"left"`
	Right ControllerSampleFrame `json:"right"`
	Head  HeadPoseFrame         `json:"head"`
}

type HoverFrame struct {
	Id      string `json:"id" validate:"required"`
	Entered bool   `json:"entered"`
}

type HapticFrame struct {
	Hand       string  `json:"hand"`
	Intensity  float32 `json:"intensity"`
	DurationMs int64   `json:"duration_ms"`
}
