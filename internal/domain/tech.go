package domain

// TechDescriptor is the raw technical metadata of one encoded source.
// Fields are populated inconsistently across sources (some supply only a
// resolution hint string, some only pixel dimensions) and are never shown
// to the user directly; the classify package turns them into canonical
// display tags. Zero values mean "not supplied".
type TechDescriptor struct {
	WidthPx           int     `json:"widthPx,omitempty"`
	HeightPx          int     `json:"heightPx,omitempty"`
	ResolutionHint    string  `json:"resolutionHint,omitempty"`
	VideoCodec        string  `json:"videoCodec,omitempty"`
	VideoProfile      string  `json:"videoProfile,omitempty"`
	AudioCodec        string  `json:"audioCodec,omitempty"`
	AudioProfile      string  `json:"audioProfile,omitempty"`
	AudioChannelCount int     `json:"audioChannelCount,omitempty"`
	BitrateKbps       int     `json:"bitrateKbps,omitempty"`
	ContainerFormat   string  `json:"containerFormat,omitempty"`
	FileSizeMB        float64 `json:"fileSizeMB,omitempty"`
	HDR               string  `json:"hdr,omitempty"`
}
