package domain

import "time"

// NoTrack marks an unset track selection.
const NoTrack = -1

// PlaybackState is the observable state of one playback session. One
// instance exists per open player surface; it is mutated only by the
// session's own event and command handlers.
type PlaybackState struct {
	SessionID               string         `json:"sessionId"`
	Lifecycle               LifecyclePhase `json:"lifecycle"`
	PositionSeconds         float64        `json:"positionSeconds"`
	DurationSeconds         float64        `json:"durationSeconds"`
	WidthPx                 int            `json:"widthPx,omitempty"`
	HeightPx                int            `json:"heightPx,omitempty"`
	Volume                  float64        `json:"volume"`
	Rate                    float64        `json:"rate"`
	SelectedAudioTrackID    int            `json:"selectedAudioTrackId"`
	SelectedSubtitleTrackID int            `json:"selectedSubtitleTrackId"`
	ActiveVersionID         VersionID      `json:"activeVersionId,omitempty"`
	LastError               string         `json:"lastError,omitempty"`
	UpdatedAt               time.Time      `json:"updatedAt"`
}
