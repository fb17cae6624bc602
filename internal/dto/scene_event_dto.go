package dto

// --- Inbound Event DTOs ---

type SceneEventData struct {
	Id   string `json:"id" validate:"required"`
	Text string `json:"text"`
	Url  string `json:"url" validate:"omitempty,url"`
}

// SceneEventMessage is the envelope received from the content socket.
type SceneEventMessage struct {
	Type   string         `json:"type" validate:"required,oneof=note image model"`
	Action string         `json:"action" validate:"required,oneof=add delete"`
	Data   SceneEventData `json:"data"`
}

// --- Reconciliation Manifest DTOs ---

type ManifestNote struct {
	Id   string `json:"_id" validate:"required"`
	Text string `json:"text"`
}

type ManifestModel struct {
	Id  string `json:"_id" validate:"required"`
	Url string `json:"url" validate:"required,url"`
}

// ManifestResponse lists everything currently published upstream. Images are
// identified by their URL.
type ManifestResponse struct {
	Notes  []ManifestNote  `json:"notes" validate:"dive"`
	Images []string        `json:"images" validate:"dive,url"`
	Models []ManifestModel `json:"models" validate:"dive"`
}
