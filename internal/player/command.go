package player

type CommandName string

const (
	CmdLoad                CommandName = "load"
	CmdPlay                CommandName = "play"
	CmdPause               CommandName = "pause"
	CmdSeek                CommandName = "seek"
	CmdSelectAudioTrack    CommandName = "selectAudioTrack"
	CmdSelectSubtitleTrack CommandName = "selectSubtitleTrack"
	CmdSetVolume           CommandName = "setVolume"
	CmdSetRate             CommandName = "setRate"
	CmdStop                CommandName = "stop"
)

// Command is one imperative instruction for a native player backend.
// Only the fields relevant to the named command are set.
type Command struct {
	Name    CommandName
	URI     string
	Seconds float64
	TrackID int
	Value   float64
}
