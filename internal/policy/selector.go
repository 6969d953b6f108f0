// Package policy decides which of a title's versions to play.
package policy

import (
	"strings"

	"playbackengine/internal/domain"
)

// Decision is the outcome of version selection. Either Selected is set
// (automatic choice) or Choices holds the full list, in source order, for
// the user to pick from. No version is ever dropped.
type Decision struct {
	Selected *domain.Version  `json:"selected,omitempty"`
	Choices  []domain.Version `json:"choices,omitempty"`
}

// Auto reports whether the decision resolved without user input.
func (d Decision) Auto() bool {
	return d.Selected != nil
}

// Select picks a version for playback. A single version is always
// auto-selected. A stored preference auto-selects only when it matches
// exactly one version by id or label; an ambiguous or stale preference
// falls back to an explicit choice. Zero versions is a caller bug and
// yields ErrNoPlayableVersion, never an empty success.
func Select(versions []domain.Version, preference string) (Decision, error) {
	if len(versions) == 0 {
		return Decision{}, domain.ErrNoPlayableVersion
	}
	if len(versions) == 1 {
		return Decision{Selected: &versions[0]}, nil
	}

	if pref := strings.TrimSpace(preference); pref != "" {
		if match := matchPreference(versions, pref); match != nil {
			return Decision{Selected: match}, nil
		}
	}

	return Decision{Choices: versions}, nil
}

func matchPreference(versions []domain.Version, pref string) *domain.Version {
	var found *domain.Version
	for i := range versions {
		v := &versions[i]
		if string(v.ID) == pref || strings.EqualFold(v.Label, pref) {
			if found != nil {
				// Ambiguous preference: punt to the user.
				return nil
			}
			found = v
		}
	}
	return found
}
