package player

import (
	"sync"

	"playbackengine/internal/domain"
)

// NativeModule is the discrete-method surface exposed by platforms whose
// player handle offers named entry points instead of a command channel.
type NativeModule interface {
	Load(uri string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SelectAudioTrack(id int) error
	SelectSubtitleTrack(id int) error
	SetVolume(value float64) error
	SetRate(value float64) error
	Stop() error
}

// ModuleBridge adapts a NativeModule to the Bridge contract. Event
// delivery happens through OnLoaded/OnPositionTick/... which the module
// host calls from its own callback thread; the bridge only fans out.
type ModuleBridge struct {
	module NativeModule

	subMu       sync.Mutex
	subscribers []func(Event)

	closeOnce sync.Once
}

func NewModuleBridge(module NativeModule) *ModuleBridge {
	return &ModuleBridge{module: module}
}

func (b *ModuleBridge) Dispatch(cmd Command) error {
	switch cmd.Name {
	case CmdLoad:
		return b.module.Load(cmd.URI)
	case CmdPlay:
		return b.module.Play()
	case CmdPause:
		return b.module.Pause()
	case CmdSeek:
		return b.module.Seek(cmd.Seconds)
	case CmdSelectAudioTrack:
		return b.module.SelectAudioTrack(cmd.TrackID)
	case CmdSelectSubtitleTrack:
		return b.module.SelectSubtitleTrack(cmd.TrackID)
	case CmdSetVolume:
		return b.module.SetVolume(cmd.Value)
	case CmdSetRate:
		return b.module.SetRate(cmd.Value)
	case CmdStop:
		return b.module.Stop()
	}
	return domain.ErrUnsupported
}

func (b *ModuleBridge) Subscribe(fn func(Event)) {
	b.subMu.Lock()
	b.subscribers = append(b.subscribers, fn)
	b.subMu.Unlock()
}

func (b *ModuleBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.module.Stop()
	})
	return err
}

// OnLoaded reports that the native module finished loading a source.
func (b *ModuleBridge) OnLoaded(durationSeconds float64, widthPx, heightPx int) {
	b.publish(Event{
		Type:            EventLoaded,
		DurationSeconds: durationSeconds,
		WidthPx:         widthPx,
		HeightPx:        heightPx,
	})
}

func (b *ModuleBridge) OnPositionTick(positionSeconds float64) {
	b.publish(Event{Type: EventPositionTick, PositionSeconds: positionSeconds})
}

func (b *ModuleBridge) OnTracksChanged(audio, subtitle []domain.Track) {
	b.publish(Event{Type: EventTracksChanged, AudioTracks: audio, SubtitleTracks: subtitle})
}

func (b *ModuleBridge) OnEnded() {
	b.publish(Event{Type: EventEnded})
}

func (b *ModuleBridge) OnError(message string) {
	b.publish(Event{Type: EventError, Message: message})
}

func (b *ModuleBridge) publish(ev Event) {
	b.subMu.Lock()
	subs := make([]func(Event), len(b.subscribers))
	copy(subs, b.subscribers)
	b.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
