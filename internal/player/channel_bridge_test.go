package player

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"playbackengine/internal/domain"
)

// pipeTransport gives the test the far end of the bridge's byte stream.
func pipeTransport(t *testing.T) (io.ReadWriteCloser, net.Conn) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		remote.Close()
	})
	return local, remote
}

func TestChannelBridgeDispatchEnvelopes(t *testing.T) {
	local, remote := pipeTransport(t)
	bridge := NewChannelBridge(local, nil)
	defer bridge.Close()

	reader := bufio.NewReader(remote)
	readEnvelope := func() commandEnvelope {
		t.Helper()
		line, err := reader.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read command line: %v", err)
		}
		var env commandEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			t.Fatalf("decode command envelope: %v", err)
		}
		return env
	}

	tests := []struct {
		cmd      Command
		wantName string
		wantArgs map[string]any
	}{
		{Command{Name: CmdLoad, URI: "file:///a.mkv"}, "load", map[string]any{"uri": "file:///a.mkv"}},
		{Command{Name: CmdPlay}, "play", nil},
		{Command{Name: CmdSeek, Seconds: 42.5}, "seek", map[string]any{"seconds": 42.5}},
		{Command{Name: CmdSelectAudioTrack, TrackID: 3}, "selectAudioTrack", map[string]any{"trackId": float64(3)}},
		{Command{Name: CmdSetVolume, Value: 0.5}, "setVolume", map[string]any{"value": 0.5}},
		{Command{Name: CmdStop}, "stop", nil},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, tc := range tests {
			if err := bridge.Dispatch(tc.cmd); err != nil {
				t.Errorf("dispatch %s: %v", tc.cmd.Name, err)
				return
			}
		}
	}()

	for _, tc := range tests {
		env := readEnvelope()
		if env.Command != tc.wantName {
			t.Errorf("command = %q, want %q", env.Command, tc.wantName)
		}
		if len(tc.wantArgs) == 0 && len(env.Args) != 0 {
			t.Errorf("%s: unexpected args %v", tc.wantName, env.Args)
		}
		for k, want := range tc.wantArgs {
			if got := env.Args[k]; got != want {
				t.Errorf("%s: args[%q] = %v, want %v", tc.wantName, k, got, want)
			}
		}
	}
	wg.Wait()
}

func TestChannelBridgeEventNormalization(t *testing.T) {
	local, remote := pipeTransport(t)
	bridge := NewChannelBridge(local, nil)
	defer bridge.Close()

	events := make(chan Event, 8)
	bridge.Subscribe(func(ev Event) { events <- ev })

	lines := []string{
		`{"event":"loaded","duration":120,"width":1920,"height":1080}`,
		`{"event":"positionTick","position":42.5}`,
		`{"event":"tracksChanged","tracks":[` +
			`{"id":1,"kind":"audio","label":"English","language":"eng","codec":"truehd"},` +
			`{"id":1,"kind":"subtitle","label":"English SDH","hearingImpaired":true}]}`,
		`not json at all`,
		`{"event":"somethingWeird"}`,
		`{"event":"ended"}`,
		`{"event":"error","message":"decoder crashed"}`,
	}
	go func() {
		for _, line := range lines {
			if _, err := remote.Write([]byte(line + "\n")); err != nil {
				return
			}
		}
	}()

	recv := func() Event {
		t.Helper()
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return Event{}
		}
	}

	ev := recv()
	if ev.Type != EventLoaded || ev.DurationSeconds != 120 || ev.WidthPx != 1920 || ev.HeightPx != 1080 {
		t.Errorf("loaded event = %+v", ev)
	}

	ev = recv()
	if ev.Type != EventPositionTick || ev.PositionSeconds != 42.5 {
		t.Errorf("tick event = %+v", ev)
	}

	ev = recv()
	if ev.Type != EventTracksChanged {
		t.Fatalf("event type = %s, want tracksChanged", ev.Type)
	}
	if len(ev.AudioTracks) != 1 || ev.AudioTracks[0].Codec != "truehd" {
		t.Errorf("audio tracks = %+v", ev.AudioTracks)
	}
	if len(ev.SubtitleTracks) != 1 || !ev.SubtitleTracks[0].Flags.HearingImpaired {
		t.Errorf("subtitle tracks = %+v", ev.SubtitleTracks)
	}

	// The malformed line and the unknown event are skipped, so the next
	// deliveries are ended then error.
	ev = recv()
	if ev.Type != EventEnded {
		t.Errorf("event type = %s, want ended", ev.Type)
	}
	ev = recv()
	if ev.Type != EventError || ev.Message != "decoder crashed" {
		t.Errorf("error event = %+v", ev)
	}
}

func TestChannelBridgeLocalCloseIsQuiet(t *testing.T) {
	local, _ := pipeTransport(t)
	bridge := NewChannelBridge(local, nil)

	events := make(chan Event, 1)
	bridge.Subscribe(func(ev Event) { events <- ev })

	if err := bridge.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case ev := <-events:
		t.Fatalf("local close published %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestModuleBridgeDispatch(t *testing.T) {
	mod := &fakeModule{}
	bridge := NewModuleBridge(mod)

	calls := []struct {
		cmd  Command
		want string
	}{
		{Command{Name: CmdLoad, URI: "file:///a.mkv"}, "load:file:///a.mkv"},
		{Command{Name: CmdPlay}, "play"},
		{Command{Name: CmdPause}, "pause"},
		{Command{Name: CmdSeek, Seconds: 12}, "seek:12"},
		{Command{Name: CmdSelectAudioTrack, TrackID: 2}, "audio:2"},
		{Command{Name: CmdSelectSubtitleTrack, TrackID: 1}, "subtitle:1"},
		{Command{Name: CmdSetVolume, Value: 0.5}, "volume:0.5"},
		{Command{Name: CmdSetRate, Value: 1.5}, "rate:1.5"},
		{Command{Name: CmdStop}, "stop"},
	}
	for _, tc := range calls {
		if err := bridge.Dispatch(tc.cmd); err != nil {
			t.Fatalf("dispatch %s: %v", tc.cmd.Name, err)
		}
	}
	if len(mod.calls) != len(calls) {
		t.Fatalf("module saw %d calls, want %d", len(mod.calls), len(calls))
	}
	for i, tc := range calls {
		if mod.calls[i] != tc.want {
			t.Errorf("call %d = %q, want %q", i, mod.calls[i], tc.want)
		}
	}

	if err := bridge.Dispatch(Command{Name: "teleport"}); err != domain.ErrUnsupported {
		t.Errorf("unknown command err = %v, want ErrUnsupported", err)
	}
}

func TestModuleBridgeEvents(t *testing.T) {
	bridge := NewModuleBridge(&fakeModule{})

	var got []Event
	bridge.Subscribe(func(ev Event) { got = append(got, ev) })

	bridge.OnLoaded(90, 1280, 720)
	bridge.OnPositionTick(12)
	bridge.OnTracksChanged(
		[]domain.Track{{ID: 1, Kind: domain.TrackAudio, Label: "English"}},
		nil,
	)
	bridge.OnEnded()
	bridge.OnError("boom")

	wantTypes := []EventType{EventLoaded, EventPositionTick, EventTracksChanged, EventEnded, EventError}
	if len(got) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(got), len(wantTypes))
	}
	for i, want := range wantTypes {
		if got[i].Type != want {
			t.Errorf("event %d = %s, want %s", i, got[i].Type, want)
		}
	}
	if got[0].DurationSeconds != 90 || got[0].WidthPx != 1280 {
		t.Errorf("loaded payload = %+v", got[0])
	}
}

func TestModuleBridgeCloseStopsOnce(t *testing.T) {
	mod := &fakeModule{}
	bridge := NewModuleBridge(mod)

	if err := bridge.Close(); err != nil {
		t.Fatal(err)
	}
	if err := bridge.Close(); err != nil {
		t.Fatal(err)
	}
	stops := 0
	for _, c := range mod.calls {
		if c == "stop" {
			stops++
		}
	}
	if stops != 1 {
		t.Errorf("module.Stop called %d times, want 1", stops)
	}
}

type fakeModule struct {
	calls []string
}

func (m *fakeModule) record(s string) error {
	m.calls = append(m.calls, s)
	return nil
}

func (m *fakeModule) Load(uri string) error     { return m.record("load:" + uri) }
func (m *fakeModule) Play() error               { return m.record("play") }
func (m *fakeModule) Pause() error              { return m.record("pause") }
func (m *fakeModule) Seek(sec float64) error    { return m.record(fmtFloat("seek", sec)) }
func (m *fakeModule) SelectAudioTrack(id int) error {
	return m.record(fmtInt("audio", id))
}
func (m *fakeModule) SelectSubtitleTrack(id int) error {
	return m.record(fmtInt("subtitle", id))
}
func (m *fakeModule) SetVolume(v float64) error { return m.record(fmtFloat("volume", v)) }
func (m *fakeModule) SetRate(v float64) error   { return m.record(fmtFloat("rate", v)) }
func (m *fakeModule) Stop() error               { return m.record("stop") }

func fmtFloat(prefix string, v float64) string {
	return prefix + ":" + strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtInt(prefix string, v int) string {
	return prefix + ":" + strconv.Itoa(v)
}
