package domain

// ResolutionTier is the canonical, user-facing resolution class of a
// version. The well-known tiers are listed below; an explicit resolution
// hint that matches no tier passes through uppercased, and a source with
// an unusual height below 480px yields "<height>p".
type ResolutionTier string

const (
	Tier480p    ResolutionTier = "480p"
	Tier720p    ResolutionTier = "720p"
	TierHD      ResolutionTier = "1080p"
	Tier1440p   ResolutionTier = "1440p"
	Tier4K      ResolutionTier = "4k"
	TierUnknown ResolutionTier = "unknown"
)

type HDRFormat string

const (
	HDRNone        HDRFormat = "none"
	HDRGeneric     HDRFormat = "hdr"
	HDR10          HDRFormat = "hdr10"
	HDR10Plus      HDRFormat = "hdr10plus"
	HDRDolbyVision HDRFormat = "dolbyVision"
	HDRHLG         HDRFormat = "hlg"
)

type AudioFormat string

const (
	AudioPlain      AudioFormat = "plain"
	AudioDolbyAtmos AudioFormat = "dolbyAtmos"
	AudioDTSX       AudioFormat = "dtsX"
)

type AccessibilityFeature string

const (
	FeatureClosedCaptions   AccessibilityFeature = "cc"
	FeatureSDH              AccessibilityFeature = "sdh"
	FeatureAudioDescription AccessibilityFeature = "audioDescription"
)

type Accessibility struct {
	HasCC               bool `json:"hasCC"`
	HasSDH              bool `json:"hasSDH"`
	HasAudioDescription bool `json:"hasAudioDescription"`
}

// Classification is the normalized, display-ready view of a version's
// technical metadata. It is derived on demand from the TechDescriptor and
// track labels, never stored.
type Classification struct {
	ResolutionTier ResolutionTier `json:"resolutionTier"`
	HDRFormat      HDRFormat      `json:"hdrFormat"`
	AudioFormat    AudioFormat    `json:"audioFormat"`
	Accessibility  Accessibility  `json:"accessibility"`
}
