package entities

// TimelineAsset places a clip on the single video track
type TimelineAsset struct {
	Clip               Clip    `json:"clip"`
	StartOffsetSeconds float64 `json:"start_offset_seconds"`
}

// Soundtrack is the audio laid under the whole timeline
type Soundtrack struct {
	Src    string `json:"src"`
	Effect string `json:"effect,omitempty"`
}

// Timeline is the ordered, contiguous sequence of clips to be rendered
type Timeline struct {
	Assets        []TimelineAsset `json:"assets"`
	TotalDuration float64         `json:"total_duration"`
	Soundtrack    *Soundtrack     `json:"soundtrack,omitempty"`
}
