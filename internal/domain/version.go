package domain

type VersionID string

// Version is one alternate encoded source (file or stream) for the same
// title. It is immutable for the duration of a title-open: when the native
// layer reports a track change, a replacement Version is constructed via
// WithTracks rather than edited in place.
type Version struct {
	ID             VersionID      `json:"id"`
	Label          string         `json:"label"`
	URI            string         `json:"uri,omitempty"`
	AudioTracks    []Track        `json:"audioTracks"`
	SubtitleTracks []Track        `json:"subtitleTracks"`
	Tech           TechDescriptor `json:"tech"`
}

// FindTrack returns the track of the given kind with the given id, or
// ErrTrackNotFound.
func (v Version) FindTrack(kind TrackKind, id int) (Track, error) {
	var tracks []Track
	switch kind {
	case TrackAudio:
		tracks = v.AudioTracks
	case TrackSubtitle:
		tracks = v.SubtitleTracks
	default:
		return Track{}, ErrTrackNotFound
	}
	for _, t := range tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return Track{}, ErrTrackNotFound
}

// WithTracks returns a copy of the version with both track lists replaced
// wholesale. Used when the native layer emits a tracks-changed event.
func (v Version) WithTracks(audio, subtitle []Track) Version {
	out := v
	out.AudioTracks = audio
	out.SubtitleTracks = subtitle
	return out
}

// HasAccessibilityFeature reports whether the version's tracks carry the
// given accessibility feature, based on the label/flag heuristics of
// AccessibilityFromTracks.
func (v Version) HasAccessibilityFeature(feature AccessibilityFeature) bool {
	acc := AccessibilityFromTracks(v.AudioTracks, v.SubtitleTracks)
	switch feature {
	case FeatureClosedCaptions:
		return acc.HasCC
	case FeatureSDH:
		return acc.HasSDH
	case FeatureAudioDescription:
		return acc.HasAudioDescription
	}
	return false
}
