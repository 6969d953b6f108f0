package player

import "playbackengine/internal/domain"

type EventType string

const (
	EventLoaded        EventType = "loaded"
	EventPositionTick  EventType = "positionTick"
	EventTracksChanged EventType = "tracksChanged"
	EventEnded         EventType = "ended"
	EventError         EventType = "error"
)

// Event is one normalized native player event. Backends translate their
// platform-specific payloads into this shape before delivery; the state
// machine never sees backend detail.
type Event struct {
	Type            EventType
	DurationSeconds float64
	WidthPx         int
	HeightPx        int
	PositionSeconds float64
	AudioTracks     []domain.Track
	SubtitleTracks  []domain.Track
	Message         string
}
