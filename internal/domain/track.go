package domain

type TrackKind string

const (
	TrackAudio    TrackKind = "audio"
	TrackSubtitle TrackKind = "subtitle"
)

// TrackFlags carries the source stream dispositions. HearingImpaired and
// AudioDescription are taken from container metadata when present; most
// sources leave them unset and only the label heuristics apply.
type TrackFlags struct {
	Forced           bool `json:"forced"`
	Default          bool `json:"default"`
	HearingImpaired  bool `json:"hearingImpaired"`
	AudioDescription bool `json:"audioDescription"`
}

// Track is a single audio or subtitle stream within a version. The ID is
// stable only for the lifetime of the native session that produced it.
type Track struct {
	ID       int        `json:"id"`
	Kind     TrackKind  `json:"kind"`
	Label    string     `json:"label"`
	Language string     `json:"language,omitempty"`
	Codec    string     `json:"codec,omitempty"`
	Flags    TrackFlags `json:"flags"`
}
