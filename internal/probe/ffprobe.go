package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"playbackengine/internal/classify"
	"playbackengine/internal/domain"
)

// Result is everything a single ffprobe run tells us about a media file:
// the selectable track lists plus the technical descriptor used for
// classification.
type Result struct {
	AudioTracks     []domain.Track
	SubtitleTracks  []domain.Track
	Tech            domain.TechDescriptor
	DurationSeconds float64
}

type Prober struct {
	binary string
}

func New(binary string) *Prober {
	bin := strings.TrimSpace(binary)
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{binary: bin}
}

func (p *Prober) Probe(ctx context.Context, filePath string) (Result, error) {
	path := strings.TrimSpace(filePath)
	if path == "" {
		return Result{}, errors.New("file path is required")
	}

	return p.runProbe(ctx, []string{
		"-v", "quiet",
		"-probesize", "100M",
		"-analyzeduration", "100M",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	}, nil)
}

func (p *Prober) ProbeReader(ctx context.Context, reader io.Reader) (Result, error) {
	if reader == nil {
		return Result{}, errors.New("reader is required")
	}
	return p.runProbe(ctx, []string{
		"-v", "quiet",
		"-probesize", "100M",
		"-analyzeduration", "100M",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-i", "pipe:0",
	}, reader)
}

const maxProbeTimeout = 30 * time.Second

func (p *Prober) runProbe(ctx context.Context, args []string, stdin io.Reader) (Result, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxProbeTimeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, p.binary, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	result, parseErr := parseProbeOutput(stdout.Bytes())
	if parseErr != nil {
		if runErr != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return Result{}, fmt.Errorf("ffprobe failed: %w", runErr)
			}
			return Result{}, fmt.Errorf("ffprobe failed: %w: %s", runErr, msg)
		}
		return Result{}, fmt.Errorf("ffprobe output parse failed: %w", parseErr)
	}

	// ffprobe can exit non-zero on truncated files and still print usable
	// stream metadata. Keep what we parsed if anything came through.
	if runErr != nil && len(result.AudioTracks) == 0 && result.Tech == (domain.TechDescriptor{}) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return Result{}, fmt.Errorf("ffprobe failed: %w", runErr)
		}
		return Result{}, fmt.Errorf("ffprobe failed: %w: %s", runErr, msg)
	}

	return result, nil
}

// probePayload is the subset of ffprobe JSON output we parse.
type probePayload struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType      string            `json:"codec_type"`
	CodecName      string            `json:"codec_name"`
	Profile        string            `json:"profile"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	Channels       int               `json:"channels"`
	ColorTransfer  string            `json:"color_transfer"`
	ColorPrimaries string            `json:"color_primaries"`
	BitRate        string            `json:"bit_rate"`
	Tags           map[string]string `json:"tags"`
	SideDataList   []probeSideData   `json:"side_data_list"`
	Disposition    struct {
		Default         int `json:"default"`
		Forced          int `json:"forced"`
		HearingImpaired int `json:"hearing_impaired"`
		VisualImpaired  int `json:"visual_impaired"`
		AttachedPic     int `json:"attached_pic"`
	} `json:"disposition"`
}

type probeSideData struct {
	SideDataType string `json:"side_data_type"`
}

type probeFormat struct {
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

func parseProbeOutput(data []byte) (Result, error) {
	var payload probePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Result{}, err
	}

	var result Result
	audioIndex := 0
	subtitleIndex := 0
	sawVideo := false

	for _, stream := range payload.Streams {
		switch stream.CodecType {
		case "video":
			// Cover art streams masquerade as video; skip attached
			// pictures, then the first real video stream wins.
			if stream.Disposition.AttachedPic == 1 || sawVideo {
				continue
			}
			sawVideo = true
			result.Tech.VideoCodec = stream.CodecName
			result.Tech.VideoProfile = stream.Profile
			result.Tech.WidthPx = stream.Width
			result.Tech.HeightPx = stream.Height
			result.Tech.HDR = string(classify.HDRFromStream(
				hasDolbyVisionSideData(stream.SideDataList),
				stream.ColorTransfer,
				stream.ColorPrimaries,
			))
			if result.Tech.HDR == string(domain.HDRNone) {
				result.Tech.HDR = ""
			}

		case "audio":
			if result.Tech.AudioCodec == "" {
				result.Tech.AudioCodec = stream.CodecName
				result.Tech.AudioProfile = stream.Profile
				result.Tech.AudioChannelCount = stream.Channels
			}
			result.AudioTracks = append(result.AudioTracks, domain.Track{
				ID:       audioIndex,
				Kind:     domain.TrackAudio,
				Label:    trackLabel(stream),
				Language: strings.TrimSpace(getTag(stream.Tags, "language")),
				Codec:    stream.CodecName,
				Flags:    trackFlags(stream),
			})
			audioIndex++

		case "subtitle":
			result.SubtitleTracks = append(result.SubtitleTracks, domain.Track{
				ID:       subtitleIndex,
				Kind:     domain.TrackSubtitle,
				Label:    trackLabel(stream),
				Language: strings.TrimSpace(getTag(stream.Tags, "language")),
				Codec:    stream.CodecName,
				Flags:    trackFlags(stream),
			})
			subtitleIndex++
		}
	}

	if payload.Format.Duration != "" {
		if d, err := strconv.ParseFloat(payload.Format.Duration, 64); err == nil && d > 0 {
			result.DurationSeconds = d
		}
	}
	if payload.Format.BitRate != "" {
		if br, err := strconv.ParseInt(payload.Format.BitRate, 10, 64); err == nil && br > 0 {
			result.Tech.BitrateKbps = int(br / 1000)
		}
	}
	if payload.Format.Size != "" {
		if size, err := strconv.ParseInt(payload.Format.Size, 10, 64); err == nil && size > 0 {
			result.Tech.FileSizeMB = float64(size) / (1024 * 1024)
		}
	}
	if name := payload.Format.FormatName; name != "" {
		// ffprobe reports muxer aliases comma-separated; the first one is
		// the canonical container name.
		result.Tech.ContainerFormat = strings.SplitN(name, ",", 2)[0]
	}

	return result, nil
}

func trackLabel(stream probeStream) string {
	if title := strings.TrimSpace(getTag(stream.Tags, "title")); title != "" {
		return title
	}
	if lang := strings.TrimSpace(getTag(stream.Tags, "language")); lang != "" {
		return lang
	}
	return stream.CodecName
}

func trackFlags(stream probeStream) domain.TrackFlags {
	return domain.TrackFlags{
		Forced:           stream.Disposition.Forced == 1,
		Default:          stream.Disposition.Default == 1,
		HearingImpaired:  stream.Disposition.HearingImpaired == 1,
		AudioDescription: stream.Disposition.VisualImpaired == 1,
	}
}

func hasDolbyVisionSideData(sideData []probeSideData) bool {
	for _, sd := range sideData {
		if strings.Contains(strings.ToLower(sd.SideDataType), "dovi") {
			return true
		}
	}
	return false
}

func getTag(tags map[string]string, key string) string {
	if len(tags) == 0 {
		return ""
	}
	if value, ok := tags[key]; ok {
		return value
	}
	upper := strings.ToUpper(key)
	if value, ok := tags[upper]; ok {
		return value
	}
	lower := strings.ToLower(key)
	if value, ok := tags[lower]; ok {
		return value
	}
	return ""
}
