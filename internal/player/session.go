package player

import (
	"log/slog"
	"sync"
	"time"

	"playbackengine/internal/domain"
	"playbackengine/internal/metrics"
)

// Config is the per-session playback policy, snapshotted at session
// creation. Keeping it explicit per session (rather than in a package
// global) means two surfaces can run different policies concurrently.
type Config struct {
	Autoplay      bool
	InitialVolume float64
	InitialRate   float64
}

func DefaultConfig() Config {
	return Config{InitialVolume: 1, InitialRate: 1}
}

// Session owns the playback state for one player surface. All native
// events are serialized through an inbox and applied one at a time, in
// arrival order; commands mutate state under the same lock. Nothing
// outside this type writes PlaybackState.
type Session struct {
	id     string
	logger *slog.Logger
	cfg    Config

	inbox     chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	bridge  Bridge
	version *domain.Version
	state   domain.PlaybackState
}

func NewSession(id string, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.InitialVolume <= 0 || cfg.InitialVolume > 1 {
		cfg.InitialVolume = 1
	}
	if cfg.InitialRate <= 0 {
		cfg.InitialRate = 1
	}
	s := &Session{
		id:     id,
		logger: logger,
		cfg:    cfg,
		inbox:  make(chan Event, 64),
		done:   make(chan struct{}),
		state: domain.PlaybackState{
			SessionID:               id,
			Lifecycle:               domain.PhaseIdle,
			Volume:                  cfg.InitialVolume,
			Rate:                    cfg.InitialRate,
			SelectedAudioTrackID:    domain.NoTrack,
			SelectedSubtitleTrackID: domain.NoTrack,
			UpdatedAt:               time.Now().UTC(),
		},
	}
	go s.run()
	return s
}

func (s *Session) ID() string { return s.id }

// Attach binds a native player handle to this surface. Any previously
// attached handle is torn down first; a fresh mount resets the session
// to Idle, discarding in-flight position.
func (s *Session) Attach(bridge Bridge) {
	s.mu.Lock()
	if s.bridge != nil {
		_ = s.bridge.Close()
	}
	s.bridge = bridge
	s.state.PositionSeconds = 0
	s.state.DurationSeconds = 0
	s.state.WidthPx = 0
	s.state.HeightPx = 0
	s.state.LastError = ""
	s.transitionLocked(domain.PhaseIdle)
	s.mu.Unlock()

	if bridge != nil {
		bridge.Subscribe(s.deliver)
	}
}

// Detach drops the native handle, e.g. when the hosting view unmounts.
// Subsequent commands become benign no-ops.
func (s *Session) Detach() {
	s.mu.Lock()
	if s.bridge != nil {
		_ = s.bridge.Close()
		s.bridge = nil
	}
	s.mu.Unlock()
}

// deliver feeds one native event into the session inbox. Events are
// applied strictly in arrival order by the run loop.
func (s *Session) deliver(ev Event) {
	select {
	case s.inbox <- ev:
	case <-s.done:
	}
}

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.inbox:
			s.apply(ev)
		}
	}
}

// Open activates a version on this surface. It is valid from Idle, Ended
// and Error, and also mid-session: re-issuing open is the only
// cancellation primitive, so any prior native load is torn down first.
func (s *Session) Open(v domain.Version) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bridge != nil {
		if s.state.Lifecycle != domain.PhaseIdle && !s.state.Lifecycle.Terminal() {
			s.dispatchLocked(Command{Name: CmdStop})
		}
		s.dispatchLocked(Command{Name: CmdLoad, URI: v.URI})
	}

	version := v
	s.version = &version
	s.state.ActiveVersionID = v.ID
	s.state.PositionSeconds = 0
	s.state.DurationSeconds = 0
	s.state.WidthPx = 0
	s.state.HeightPx = 0
	s.state.SelectedAudioTrackID = domain.NoTrack
	s.state.SelectedSubtitleTrackID = domain.NoTrack
	s.state.LastError = ""
	s.transitionLocked(domain.PhaseLoading)
}

// Play starts or resumes playback. Valid from Ready and Paused; a no-op
// everywhere else and when no native handle is attached.
func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge == nil {
		return
	}
	if s.state.Lifecycle != domain.PhaseReady && s.state.Lifecycle != domain.PhasePaused {
		return
	}
	s.dispatchLocked(Command{Name: CmdPlay})
	s.transitionLocked(domain.PhasePlaying)
}

// Pause suspends playback. Valid only from Playing.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge == nil || s.state.Lifecycle != domain.PhasePlaying {
		return
	}
	s.dispatchLocked(Command{Name: CmdPause})
	s.transitionLocked(domain.PhasePaused)
}

// Seek moves the playhead, clamping the target to [0, duration]. Valid
// from Ready, Playing and Paused; the lifecycle phase does not change.
func (s *Session) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge == nil {
		return
	}
	switch s.state.Lifecycle {
	case domain.PhaseReady, domain.PhasePlaying, domain.PhasePaused:
	default:
		return
	}

	target := seconds
	if target < 0 {
		target = 0
	}
	if s.state.DurationSeconds > 0 && target > s.state.DurationSeconds {
		target = s.state.DurationSeconds
	}
	s.state.PositionSeconds = target
	s.state.UpdatedAt = time.Now().UTC()
	s.dispatchLocked(Command{Name: CmdSeek, Seconds: target})
}

// SelectTrack switches the active audio or subtitle track. The id is
// validated against the active version before dispatch; an unknown id
// fails with ErrTrackNotFound and leaves state unchanged.
func (s *Session) SelectTrack(kind domain.TrackKind, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge == nil {
		return nil
	}
	if s.version == nil {
		return domain.ErrTrackNotFound
	}
	if _, err := s.version.FindTrack(kind, id); err != nil {
		return err
	}

	switch kind {
	case domain.TrackAudio:
		s.state.SelectedAudioTrackID = id
		s.dispatchLocked(Command{Name: CmdSelectAudioTrack, TrackID: id})
	case domain.TrackSubtitle:
		s.state.SelectedSubtitleTrackID = id
		s.dispatchLocked(Command{Name: CmdSelectSubtitleTrack, TrackID: id})
	}
	s.state.UpdatedAt = time.Now().UTC()
	return nil
}

// SetVolume adjusts playback volume, clamped to [0, 1].
func (s *Session) SetVolume(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge == nil {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	s.state.Volume = value
	s.state.UpdatedAt = time.Now().UTC()
	s.dispatchLocked(Command{Name: CmdSetVolume, Value: value})
}

// SetRate adjusts playback rate. Non-positive rates are ignored.
func (s *Session) SetRate(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge == nil || value <= 0 {
		return
	}
	s.state.Rate = value
	s.state.UpdatedAt = time.Now().UTC()
	s.dispatchLocked(Command{Name: CmdSetRate, Value: value})
}

// Snapshot returns a copy of the current playback state.
func (s *Session) Snapshot() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ActiveVersion returns the currently active version, if any.
func (s *Session) ActiveVersion() (domain.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version == nil {
		return domain.Version{}, false
	}
	return *s.version, true
}

// Close stops the event loop and releases the native handle.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.Detach()
}

// ---- event application ----

func (s *Session) apply(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Type {
	case EventLoaded:
		if s.state.Lifecycle != domain.PhaseLoading {
			return
		}
		s.state.DurationSeconds = ev.DurationSeconds
		s.state.WidthPx = ev.WidthPx
		s.state.HeightPx = ev.HeightPx
		s.transitionLocked(domain.PhaseReady)
		if s.cfg.Autoplay && s.bridge != nil {
			s.dispatchLocked(Command{Name: CmdPlay})
			s.transitionLocked(domain.PhasePlaying)
		}

	case EventPositionTick:
		if s.state.Lifecycle != domain.PhasePlaying && s.state.Lifecycle != domain.PhasePaused {
			return
		}
		pos := ev.PositionSeconds
		if pos < 0 {
			pos = 0
		}
		if s.state.DurationSeconds > 0 && pos > s.state.DurationSeconds {
			pos = s.state.DurationSeconds
		}
		s.state.PositionSeconds = pos
		s.state.UpdatedAt = time.Now().UTC()

	case EventTracksChanged:
		if s.state.Lifecycle.Terminal() || s.version == nil {
			return
		}
		replacement := s.version.WithTracks(ev.AudioTracks, ev.SubtitleTracks)
		s.version = &replacement
		if _, err := replacement.FindTrack(domain.TrackAudio, s.state.SelectedAudioTrackID); err != nil {
			s.state.SelectedAudioTrackID = domain.NoTrack
		}
		if _, err := replacement.FindTrack(domain.TrackSubtitle, s.state.SelectedSubtitleTrackID); err != nil {
			s.state.SelectedSubtitleTrackID = domain.NoTrack
		}
		s.state.UpdatedAt = time.Now().UTC()

	case EventEnded:
		if s.state.Lifecycle != domain.PhasePlaying {
			return
		}
		s.state.PositionSeconds = s.state.DurationSeconds
		s.transitionLocked(domain.PhaseEnded)

	case EventError:
		if s.state.Lifecycle == domain.PhaseError {
			return
		}
		metrics.NativeErrorsTotal.Inc()
		s.state.LastError = ev.Message
		s.transitionLocked(domain.PhaseError)
	}
}

// transitionLocked records a lifecycle transition. Caller holds s.mu.
func (s *Session) transitionLocked(to domain.LifecyclePhase) {
	from := s.state.Lifecycle
	s.state.Lifecycle = to
	s.state.UpdatedAt = time.Now().UTC()
	metrics.StateTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	s.logger.Info("playback state transition",
		slog.String("sessionId", s.id),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// dispatchLocked sends a command to the attached bridge. Caller holds
// s.mu. Dispatch failures are reported, not retried: the native layer
// will surface a real failure as an error event.
func (s *Session) dispatchLocked(cmd Command) {
	metrics.CommandsTotal.WithLabelValues(string(cmd.Name)).Inc()
	if err := s.bridge.Dispatch(cmd); err != nil {
		metrics.CommandFailuresTotal.WithLabelValues(string(cmd.Name)).Inc()
		s.logger.Warn("command dispatch failed",
			slog.String("sessionId", s.id),
			slog.String("command", string(cmd.Name)),
			slog.String("error", err.Error()),
		)
	}
}
