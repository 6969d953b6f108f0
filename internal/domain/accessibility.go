package domain

import "strings"

// AccessibilityFromTracks derives accessibility flags from track labels
// and flags. These are best-effort heuristics: most sources carry no
// authoritative captioning metadata, so free-text label markers are
// matched case-insensitively instead.
//
//   - HasCC: any subtitle label containing "cc", or any forced subtitle.
//   - HasSDH: any subtitle label containing "sdh", or a hearing-impaired
//     disposition when the source supplied one.
//   - HasAudioDescription: any audio label containing "audio desc" or
//     "descriptive", or an audio-description disposition.
func AccessibilityFromTracks(audio, subtitle []Track) Accessibility {
	var acc Accessibility

	for _, t := range subtitle {
		label := strings.ToLower(t.Label)
		if strings.Contains(label, "cc") || t.Flags.Forced {
			acc.HasCC = true
		}
		if strings.Contains(label, "sdh") || t.Flags.HearingImpaired {
			acc.HasSDH = true
		}
	}

	for _, t := range audio {
		label := strings.ToLower(t.Label)
		if strings.Contains(label, "audio desc") || strings.Contains(label, "descriptive") || t.Flags.AudioDescription {
			acc.HasAudioDescription = true
		}
	}

	return acc
}
