package classify

import (
	"fmt"
	"strings"
)

// audioCodecLabels normalizes known codec identifiers to display names.
var audioCodecLabels = map[string]string{
	"truehd":    "Dolby TrueHD",
	"dts":       "DTS",
	"dts-hd ma": "DTS-HD MA",
	"dts:x":     "DTS:X",
	"ac3":       "Dolby Digital",
	"eac3":      "Dolby Digital Plus",
	"aac":       "AAC",
	"flac":      "FLAC",
}

// AudioCodecLabel returns the display name for a raw audio codec
// identifier. Unknown codecs are surfaced uppercased rather than hidden.
func AudioCodecLabel(codec string) string {
	c := strings.ToLower(strings.TrimSpace(codec))
	if c == "" {
		return ""
	}
	if label, ok := audioCodecLabels[c]; ok {
		return label
	}
	return strings.ToUpper(c)
}

// FormatBitrate renders a bitrate in kbps for display.
func FormatBitrate(kbps int) string {
	if kbps <= 0 {
		return ""
	}
	if kbps >= 1000 {
		return fmt.Sprintf("%.1f Mbps", float64(kbps)/1000)
	}
	return fmt.Sprintf("%d kbps", kbps)
}

// FormatFileSize renders a file size in MB for display.
func FormatFileSize(mb float64) string {
	if mb <= 0 {
		return ""
	}
	if mb >= 1024 {
		return fmt.Sprintf("%.2f GB", mb/1024)
	}
	return fmt.Sprintf("%.0f MB", mb)
}
