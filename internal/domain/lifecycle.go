package domain

import "fmt"

// LifecyclePhase is the playback state machine's current state.
type LifecyclePhase int

const (
	PhaseIdle LifecyclePhase = iota
	PhaseLoading
	PhaseReady
	PhasePlaying
	PhasePaused
	PhaseEnded
	PhaseError
)

var phaseNames = [...]string{
	"idle", "loading", "ready", "playing", "paused", "ended", "error",
}

func (p LifecyclePhase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("unknown(%d)", int(p))
}

func (p LifecyclePhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *LifecyclePhase) UnmarshalText(text []byte) error {
	name := string(text)
	for i, candidate := range phaseNames {
		if candidate == name {
			*p = LifecyclePhase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown lifecycle phase %q", name)
}

// Terminal reports whether the phase admits no further native events.
// Ended and Error are terminal; both accept a fresh open.
func (p LifecyclePhase) Terminal() bool {
	return p == PhaseEnded || p == PhaseError
}
