package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"playbackengine/internal/domain"
)

// ChannelBridge transmits commands as generic {command, args} envelopes
// over a byte-stream transport (typically a local IPC socket to the
// platform shell hosting the decoder) and reads newline-delimited event
// envelopes back. This is the backend for platforms whose player surface
// exposes a single generic command channel rather than named methods.
type ChannelBridge struct {
	logger *slog.Logger

	writeMu sync.Mutex
	rw      io.ReadWriteCloser

	subMu       sync.Mutex
	subscribers []func(Event)

	done      chan struct{}
	closeOnce sync.Once
}

type commandEnvelope struct {
	Command string         `json:"command"`
	Args    map[string]any `json:"args,omitempty"`
}

type eventEnvelope struct {
	Event    string     `json:"event"`
	Duration float64    `json:"duration,omitempty"`
	Width    int        `json:"width,omitempty"`
	Height   int        `json:"height,omitempty"`
	Position float64    `json:"position,omitempty"`
	Tracks   []wireTrack `json:"tracks,omitempty"`
	Message  string     `json:"message,omitempty"`
}

type wireTrack struct {
	ID               int    `json:"id"`
	Kind             string `json:"kind"`
	Label            string `json:"label"`
	Language         string `json:"language,omitempty"`
	Codec            string `json:"codec,omitempty"`
	Forced           bool   `json:"forced,omitempty"`
	Default          bool   `json:"default,omitempty"`
	HearingImpaired  bool   `json:"hearingImpaired,omitempty"`
	AudioDescription bool   `json:"audioDescription,omitempty"`
}

func NewChannelBridge(rw io.ReadWriteCloser, logger *slog.Logger) *ChannelBridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &ChannelBridge{
		logger: logger,
		rw:     rw,
		done:   make(chan struct{}),
	}
	go b.readLoop()
	return b
}

func (b *ChannelBridge) Dispatch(cmd Command) error {
	env := commandEnvelope{Command: string(cmd.Name)}
	switch cmd.Name {
	case CmdLoad:
		env.Args = map[string]any{"uri": cmd.URI}
	case CmdSeek:
		env.Args = map[string]any{"seconds": cmd.Seconds}
	case CmdSelectAudioTrack, CmdSelectSubtitleTrack:
		env.Args = map[string]any{"trackId": cmd.TrackID}
	case CmdSetVolume, CmdSetRate:
		env.Args = map[string]any{"value": cmd.Value}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}
	data = append(data, '\n')

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if _, err := b.rw.Write(data); err != nil {
		return fmt.Errorf("transmit command: %w", err)
	}
	return nil
}

func (b *ChannelBridge) Subscribe(fn func(Event)) {
	b.subMu.Lock()
	b.subscribers = append(b.subscribers, fn)
	b.subMu.Unlock()
}

func (b *ChannelBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.rw.Close()
	})
	return err
}

func (b *ChannelBridge) readLoop() {
	scanner := bufio.NewScanner(b.rw)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var env eventEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			b.logger.Warn("channel bridge: malformed event", slog.String("error", err.Error()))
			continue
		}
		ev, ok := normalizeEnvelope(env)
		if !ok {
			b.logger.Debug("channel bridge: unknown event", slog.String("event", env.Event))
			continue
		}
		b.publish(ev)
	}

	select {
	case <-b.done:
		// Closed locally; the transport error, if any, is expected.
	default:
		if err := scanner.Err(); err != nil {
			b.publish(Event{Type: EventError, Message: "native channel lost: " + err.Error()})
		}
	}
}

func (b *ChannelBridge) publish(ev Event) {
	b.subMu.Lock()
	subs := make([]func(Event), len(b.subscribers))
	copy(subs, b.subscribers)
	b.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func normalizeEnvelope(env eventEnvelope) (Event, bool) {
	switch EventType(env.Event) {
	case EventLoaded:
		return Event{
			Type:            EventLoaded,
			DurationSeconds: env.Duration,
			WidthPx:         env.Width,
			HeightPx:        env.Height,
		}, true
	case EventPositionTick:
		return Event{Type: EventPositionTick, PositionSeconds: env.Position}, true
	case EventTracksChanged:
		audio, subtitle := splitWireTracks(env.Tracks)
		return Event{Type: EventTracksChanged, AudioTracks: audio, SubtitleTracks: subtitle}, true
	case EventEnded:
		return Event{Type: EventEnded}, true
	case EventError:
		return Event{Type: EventError, Message: env.Message}, true
	}
	return Event{}, false
}

func splitWireTracks(tracks []wireTrack) (audio, subtitle []domain.Track) {
	for _, wt := range tracks {
		track := domain.Track{
			ID:       wt.ID,
			Kind:     domain.TrackKind(wt.Kind),
			Label:    wt.Label,
			Language: wt.Language,
			Codec:    wt.Codec,
			Flags: domain.TrackFlags{
				Forced:           wt.Forced,
				Default:          wt.Default,
				HearingImpaired:  wt.HearingImpaired,
				AudioDescription: wt.AudioDescription,
			},
		}
		switch track.Kind {
		case domain.TrackAudio:
			audio = append(audio, track)
		case domain.TrackSubtitle:
			subtitle = append(subtitle, track)
		}
	}
	return audio, subtitle
}
