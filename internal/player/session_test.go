package player

import (
	"errors"
	"sync"
	"testing"
	"time"

	"playbackengine/internal/domain"
)

type fakeBridge struct {
	mu         sync.Mutex
	commands   []Command
	subscriber func(Event)
	closed     bool
}

func (b *fakeBridge) Dispatch(cmd Command) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, cmd)
	return nil
}

func (b *fakeBridge) Subscribe(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriber = fn
}

func (b *fakeBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBridge) emit(ev Event) {
	b.mu.Lock()
	fn := b.subscriber
	b.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (b *fakeBridge) dispatched() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Command, len(b.commands))
	copy(out, b.commands)
	return out
}

func (b *fakeBridge) lastCommand(t *testing.T) Command {
	t.Helper()
	cmds := b.dispatched()
	if len(cmds) == 0 {
		t.Fatal("expected at least one dispatched command")
	}
	return cmds[len(cmds)-1]
}

func waitForPhase(t *testing.T, s *Session, want domain.LifecyclePhase) domain.PlaybackState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := s.Snapshot()
		if state.Lifecycle == want {
			return state
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session never reached %s, stuck in %s", want, s.Snapshot().Lifecycle)
	return domain.PlaybackState{}
}

func newTestSession(t *testing.T) (*Session, *fakeBridge) {
	t.Helper()
	s := NewSession("test", DefaultConfig(), nil)
	t.Cleanup(s.Close)
	bridge := &fakeBridge{}
	s.Attach(bridge)
	return s, bridge
}

func sampleVersion() domain.Version {
	return domain.Version{
		ID:    "v1",
		Label: "Example 4K",
		URI:   "file:///media/example.mkv",
		AudioTracks: []domain.Track{
			{ID: 1, Kind: domain.TrackAudio, Label: "English", Language: "eng"},
			{ID: 2, Kind: domain.TrackAudio, Label: "Commentary", Language: "eng"},
		},
		SubtitleTracks: []domain.Track{
			{ID: 1, Kind: domain.TrackSubtitle, Label: "English SDH", Language: "eng"},
		},
	}
}

func TestSessionOpenToReady(t *testing.T) {
	s, bridge := newTestSession(t)

	s.Open(sampleVersion())

	state := s.Snapshot()
	if state.Lifecycle != domain.PhaseLoading {
		t.Fatalf("after open lifecycle = %s, want %s", state.Lifecycle, domain.PhaseLoading)
	}
	if got := bridge.lastCommand(t); got.Name != CmdLoad || got.URI != "file:///media/example.mkv" {
		t.Fatalf("expected load command for version uri, got %+v", got)
	}

	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120, WidthPx: 1920, HeightPx: 1080})

	state = waitForPhase(t, s, domain.PhaseReady)
	if state.DurationSeconds != 120 {
		t.Errorf("duration = %v, want 120", state.DurationSeconds)
	}
	if state.WidthPx != 1920 || state.HeightPx != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", state.WidthPx, state.HeightPx)
	}
	if state.ActiveVersionID != "v1" {
		t.Errorf("active version = %q, want v1", state.ActiveVersionID)
	}
}

func TestSessionPlayPauseEnded(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)

	s.Play()
	if got := s.Snapshot().Lifecycle; got != domain.PhasePlaying {
		t.Fatalf("after play lifecycle = %s, want %s", got, domain.PhasePlaying)
	}

	s.Pause()
	if got := s.Snapshot().Lifecycle; got != domain.PhasePaused {
		t.Fatalf("after pause lifecycle = %s, want %s", got, domain.PhasePaused)
	}

	// Ended fires only from Playing; while paused it is ignored.
	bridge.emit(Event{Type: EventEnded})
	time.Sleep(20 * time.Millisecond)
	if got := s.Snapshot().Lifecycle; got != domain.PhasePaused {
		t.Fatalf("ended while paused moved lifecycle to %s", got)
	}

	s.Play()
	bridge.emit(Event{Type: EventEnded})
	state := waitForPhase(t, s, domain.PhaseEnded)
	if state.PositionSeconds != state.DurationSeconds {
		t.Errorf("position at end = %v, want %v", state.PositionSeconds, state.DurationSeconds)
	}
}

func TestSessionCommandsIgnoredWhenEnded(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)
	s.Play()
	bridge.emit(Event{Type: EventEnded})
	waitForPhase(t, s, domain.PhaseEnded)

	before := len(bridge.dispatched())
	s.Play()
	s.Pause()
	s.Seek(30)
	if got := len(bridge.dispatched()); got != before {
		t.Errorf("commands dispatched in terminal state: %d new", got-before)
	}
	if got := s.Snapshot().Lifecycle; got != domain.PhaseEnded {
		t.Errorf("lifecycle = %s, want %s", got, domain.PhaseEnded)
	}
}

func TestSessionSeekClamps(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)

	s.Seek(170)
	if got := s.Snapshot().PositionSeconds; got != 120 {
		t.Errorf("seek past end: position = %v, want 120", got)
	}
	if got := bridge.lastCommand(t); got.Name != CmdSeek || got.Seconds != 120 {
		t.Errorf("seek past end dispatched %+v, want clamped seek 120", got)
	}

	s.Seek(-10)
	if got := s.Snapshot().PositionSeconds; got != 0 {
		t.Errorf("seek before start: position = %v, want 0", got)
	}
}

func TestSessionSelectTrack(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)

	if err := s.SelectTrack(domain.TrackAudio, 2); err != nil {
		t.Fatalf("select known audio track: %v", err)
	}
	if got := s.Snapshot().SelectedAudioTrackID; got != 2 {
		t.Errorf("selected audio track = %d, want 2", got)
	}

	err := s.SelectTrack(domain.TrackSubtitle, 99)
	if !errors.Is(err, domain.ErrTrackNotFound) {
		t.Fatalf("select unknown track err = %v, want ErrTrackNotFound", err)
	}
	state := s.Snapshot()
	if state.SelectedSubtitleTrackID != domain.NoTrack {
		t.Errorf("failed selection mutated subtitle track id: %d", state.SelectedSubtitleTrackID)
	}
	if state.SelectedAudioTrackID != 2 {
		t.Errorf("failed selection mutated audio track id: %d", state.SelectedAudioTrackID)
	}
}

func TestSessionTracksChangedResetsStaleSelection(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)

	if err := s.SelectTrack(domain.TrackAudio, 2); err != nil {
		t.Fatal(err)
	}

	bridge.emit(Event{
		Type:        EventTracksChanged,
		AudioTracks: []domain.Track{{ID: 7, Kind: domain.TrackAudio, Label: "French", Language: "fra"}},
	})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Snapshot().SelectedAudioTrackID == domain.NoTrack {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if got := s.Snapshot().SelectedAudioTrackID; got != domain.NoTrack {
		t.Fatalf("stale audio selection survived tracks change: %d", got)
	}

	v, ok := s.ActiveVersion()
	if !ok {
		t.Fatal("active version missing after tracks change")
	}
	if len(v.AudioTracks) != 1 || v.AudioTracks[0].ID != 7 {
		t.Errorf("audio tracks not replaced: %+v", v.AudioTracks)
	}
	if len(v.SubtitleTracks) != 0 {
		t.Errorf("subtitle tracks should be replaced wholesale, got %+v", v.SubtitleTracks)
	}
}

func TestSessionPositionTickClamped(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)

	// Ticks while Ready are discarded.
	bridge.emit(Event{Type: EventPositionTick, PositionSeconds: 15})
	time.Sleep(20 * time.Millisecond)
	if got := s.Snapshot().PositionSeconds; got != 0 {
		t.Fatalf("tick while ready moved position to %v", got)
	}

	s.Play()
	bridge.emit(Event{Type: EventPositionTick, PositionSeconds: 500})
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Snapshot().PositionSeconds != 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	if got := s.Snapshot().PositionSeconds; got != 120 {
		t.Errorf("runaway tick position = %v, want clamped 120", got)
	}
}

func TestSessionNativeErrorFatal(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventError, Message: "decoder init failed"})

	state := waitForPhase(t, s, domain.PhaseError)
	if state.LastError != "decoder init failed" {
		t.Errorf("last error = %q", state.LastError)
	}

	before := len(bridge.dispatched())
	s.Play()
	s.Seek(10)
	if got := len(bridge.dispatched()); got != before {
		t.Errorf("commands dispatched after fatal error: %d new", got-before)
	}
}

func TestSessionReopenFromError(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventError, Message: "decoder init failed"})
	waitForPhase(t, s, domain.PhaseError)

	v2 := sampleVersion()
	v2.ID = "v2"
	v2.URI = "file:///media/other.mkv"
	s.Open(v2)

	state := s.Snapshot()
	if state.Lifecycle != domain.PhaseLoading {
		t.Fatalf("reopen lifecycle = %s, want %s", state.Lifecycle, domain.PhaseLoading)
	}
	if state.LastError != "" {
		t.Errorf("reopen kept stale error %q", state.LastError)
	}
	if state.ActiveVersionID != "v2" {
		t.Errorf("active version = %q, want v2", state.ActiveVersionID)
	}
}

func TestSessionReopenMidPlaybackStopsFirst(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)
	s.Play()

	v2 := sampleVersion()
	v2.ID = "v2"
	s.Open(v2)

	cmds := bridge.dispatched()
	if len(cmds) < 2 {
		t.Fatalf("expected stop+load, got %+v", cmds)
	}
	if cmds[len(cmds)-2].Name != CmdStop || cmds[len(cmds)-1].Name != CmdLoad {
		t.Fatalf("expected stop then load, got %s then %s",
			cmds[len(cmds)-2].Name, cmds[len(cmds)-1].Name)
	}
}

func TestSessionCommandsNoopWithoutBridge(t *testing.T) {
	s := NewSession("detached", DefaultConfig(), nil)
	t.Cleanup(s.Close)

	s.Open(sampleVersion())
	s.Play()
	s.Pause()
	s.Seek(10)
	s.SetVolume(0.5)
	s.SetRate(2)
	if err := s.SelectTrack(domain.TrackAudio, 1); err != nil {
		t.Fatalf("select track without bridge: %v", err)
	}

	state := s.Snapshot()
	if state.Lifecycle != domain.PhaseLoading {
		t.Errorf("open without bridge lifecycle = %s, want %s", state.Lifecycle, domain.PhaseLoading)
	}
	if state.PositionSeconds != 0 || state.Volume != 1 || state.Rate != 1 {
		t.Errorf("detached commands mutated state: %+v", state)
	}
}

func TestSessionVolumeAndRateClamps(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)

	s.SetVolume(1.7)
	if got := s.Snapshot().Volume; got != 1 {
		t.Errorf("volume = %v, want clamp to 1", got)
	}
	s.SetVolume(-0.2)
	if got := s.Snapshot().Volume; got != 0 {
		t.Errorf("volume = %v, want clamp to 0", got)
	}

	s.SetRate(0)
	if got := s.Snapshot().Rate; got != 1 {
		t.Errorf("rate = %v, non-positive rate should be ignored", got)
	}
	s.SetRate(1.5)
	if got := s.Snapshot().Rate; got != 1.5 {
		t.Errorf("rate = %v, want 1.5", got)
	}
}

func TestSessionAutoplay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Autoplay = true
	s := NewSession("autoplay", cfg, nil)
	t.Cleanup(s.Close)
	bridge := &fakeBridge{}
	s.Attach(bridge)

	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})

	waitForPhase(t, s, domain.PhasePlaying)
	if got := bridge.lastCommand(t); got.Name != CmdPlay {
		t.Errorf("autoplay last command = %s, want play", got.Name)
	}
}

func TestSessionAttachResetsToIdle(t *testing.T) {
	s, bridge := newTestSession(t)
	s.Open(sampleVersion())
	bridge.emit(Event{Type: EventLoaded, DurationSeconds: 120})
	waitForPhase(t, s, domain.PhaseReady)

	fresh := &fakeBridge{}
	s.Attach(fresh)

	state := s.Snapshot()
	if state.Lifecycle != domain.PhaseIdle {
		t.Errorf("lifecycle after remount = %s, want %s", state.Lifecycle, domain.PhaseIdle)
	}
	if state.PositionSeconds != 0 || state.DurationSeconds != 0 {
		t.Errorf("remount kept stale timing: %+v", state)
	}
	bridge.mu.Lock()
	closed := bridge.closed
	bridge.mu.Unlock()
	if !closed {
		t.Error("previous bridge not closed on remount")
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(DefaultConfig(), func(string) (Bridge, error) {
		return &fakeBridge{}, nil
	}, nil)
	t.Cleanup(m.Close)

	s, err := m.Create("surface-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create("surface-1"); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate create err = %v, want ErrAlreadyExists", err)
	}

	got, ok := m.Get("surface-1")
	if !ok || got != s {
		t.Fatal("Get did not return created session")
	}
	if len(m.Snapshots()) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(m.Snapshots()))
	}

	if err := m.Remove("surface-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Remove("surface-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second remove err = %v, want ErrNotFound", err)
	}
}
