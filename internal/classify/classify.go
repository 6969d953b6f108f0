// Package classify maps raw stream and container metadata into the
// canonical resolution, HDR, audio and accessibility tags used to pick
// among versions and render badges. All functions are pure; the marker
// scans are order-dependent by design, so the first matching marker wins
// and reordering changes observable output for ambiguous inputs.
package classify

import (
	"fmt"
	"strings"

	"playbackengine/internal/domain"
)

// Classify derives the full classification for one version's descriptor
// and track lists.
func Classify(tech domain.TechDescriptor, audio, subtitle []domain.Track) domain.Classification {
	return domain.Classification{
		ResolutionTier: Resolution(tech),
		HDRFormat:      HDR(tech),
		AudioFormat:    Audio(tech.AudioCodec, tech.AudioProfile),
		Accessibility:  domain.AccessibilityFromTracks(audio, subtitle),
	}
}

// ClassifyVersion is a convenience wrapper over Classify.
func ClassifyVersion(v domain.Version) domain.Classification {
	return Classify(v.Tech, v.AudioTracks, v.SubtitleTracks)
}

// Resolution resolves the tier from whichever signal the source supplied,
// in precedence order: explicit hint string, height, width. Sources
// disagree on which field is populated, hence the ordered fallback.
func Resolution(tech domain.TechDescriptor) domain.ResolutionTier {
	if hint := strings.TrimSpace(tech.ResolutionHint); hint != "" {
		return resolutionFromHint(hint)
	}
	if tech.HeightPx > 0 {
		return resolutionFromHeight(tech.HeightPx)
	}
	if tech.WidthPx > 0 {
		return resolutionFromWidth(tech.WidthPx)
	}
	return domain.TierUnknown
}

func resolutionFromHint(hint string) domain.ResolutionTier {
	lower := strings.ToLower(hint)
	switch {
	case strings.Contains(lower, "4k"), strings.Contains(lower, "2160"):
		return domain.Tier4K
	case strings.Contains(lower, "1440"):
		return domain.Tier1440p
	case strings.Contains(lower, "1080"), strings.Contains(lower, "720"):
		return domain.TierHD
	case strings.Contains(lower, "480"), strings.Contains(lower, "sd"):
		return domain.Tier480p
	}
	// Unrecognized hints pass through uppercased so the UI still has
	// something to show for exotic sources.
	return domain.ResolutionTier(strings.ToUpper(hint))
}

func resolutionFromHeight(height int) domain.ResolutionTier {
	switch {
	case height >= 2160:
		return domain.Tier4K
	case height >= 1440:
		return domain.Tier1440p
	case height >= 720:
		return domain.TierHD
	case height >= 480:
		return domain.Tier480p
	}
	return domain.ResolutionTier(fmt.Sprintf("%dp", height))
}

func resolutionFromWidth(width int) domain.ResolutionTier {
	switch {
	case width >= 3840:
		return domain.Tier4K
	case width >= 2560:
		return domain.Tier1440p
	case width >= 1280:
		return domain.TierHD
	}
	return domain.Tier480p
}

// HDR resolves the format from the descriptor. A pre-supplied HDR field
// holding a canonical value is authoritative: probe-built descriptors
// derive it from transfer characteristics and DOVI side data, which
// outrank whatever the profile string happens to contain. Otherwise the
// video profile is scanned for markers, then the raw field. Marker
// priority matters: a profile reading "dolby vision main 10" is Dolby
// Vision, not generic HDR.
func HDR(tech domain.TechDescriptor) domain.HDRFormat {
	raw := strings.TrimSpace(tech.HDR)
	if format, ok := canonicalHDR(raw); ok {
		return format
	}
	if format, ok := hdrFromMarkers(tech.VideoProfile); ok {
		return format
	}
	if raw != "" {
		if format, ok := hdrFromMarkers(raw); ok {
			return format
		}
		// The field was supplied but matches no known marker; the source
		// at least believes the stream is HDR.
		return domain.HDRGeneric
	}
	return domain.HDRNone
}

func canonicalHDR(raw string) (domain.HDRFormat, bool) {
	switch format := domain.HDRFormat(raw); format {
	case domain.HDRNone, domain.HDRGeneric, domain.HDR10, domain.HDR10Plus, domain.HDRDolbyVision, domain.HDRHLG:
		return format, true
	}
	return domain.HDRNone, false
}

func hdrFromMarkers(raw string) (domain.HDRFormat, bool) {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "dolby vision"), strings.Contains(s, "dovi"), strings.Contains(s, " dv"):
		return domain.HDRDolbyVision, true
	case strings.Contains(s, "hdr10+"):
		return domain.HDR10Plus, true
	case strings.Contains(s, "hdr10"), strings.Contains(s, "hdr 10"):
		return domain.HDR10, true
	case strings.Contains(s, "hlg"):
		return domain.HDRHLG, true
	case strings.Contains(s, "hdr"), strings.Contains(s, "main 10"), strings.Contains(s, "pq"):
		return domain.HDRGeneric, true
	}
	return domain.HDRNone, false
}

// HDRFromStream classifies from decoded stream fields rather than a flat
// descriptor. A Dolby Vision configuration record takes absolute
// priority; otherwise the transfer characteristic decides, with bt2020
// primaries upgrading PQ to HDR10.
func HDRFromStream(dolbyVision bool, transfer, primaries string) domain.HDRFormat {
	if dolbyVision {
		return domain.HDRDolbyVision
	}
	t := strings.ToLower(transfer)
	switch {
	case strings.Contains(t, "smpte2084"), strings.Contains(t, "pq"):
		if strings.Contains(strings.ToLower(primaries), "2020") {
			return domain.HDR10
		}
		return domain.HDRGeneric
	case strings.Contains(t, "hlg"), strings.Contains(t, "arib-std-b67"):
		return domain.HDRHLG
	}
	return domain.HDRNone
}

// Audio classifies the audio format from codec and profile strings.
func Audio(codec, profile string) domain.AudioFormat {
	c := strings.ToLower(strings.TrimSpace(codec))
	p := strings.ToLower(profile)
	switch {
	case c == "truehd" && strings.Contains(p, "atmos"):
		return domain.AudioDolbyAtmos
	case c == "eac3" && strings.Contains(p, "atmos"):
		return domain.AudioDolbyAtmos
	case strings.Contains(c, "dts:x"), strings.Contains(c, "dts-x"):
		return domain.AudioDTSX
	}
	return domain.AudioPlain
}
