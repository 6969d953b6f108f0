package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/metrics"
	"playbackengine/internal/player"
	"playbackengine/internal/policy"
)

var ErrTitleRequired = errors.New("title id is required")

// OpenTitle resolves which version of a title to play and hands it to a
// session. When the user has a stored preference or the title has a
// single version the selection is automatic; otherwise the caller gets
// the choice list back and re-invokes with an explicit version id.
type OpenTitle struct {
	Catalog  ports.VersionCatalog
	Settings ports.PlayerSettingsStore
	History  ports.WatchHistoryStore
	Sessions *player.Manager
}

type OpenTitleInput struct {
	SessionID string
	TitleID   string
	// VersionID, when set, is an explicit user choice. It is persisted
	// as the preference for this title.
	VersionID string
}

type OpenTitleOutput struct {
	// Opened is set when playback started; otherwise Choices carries the
	// versions the user must pick from.
	Opened  *domain.PlaybackState `json:"opened,omitempty"`
	Choices []domain.Version      `json:"choices,omitempty"`
	// ResumePosition is the stored watch position for the opened
	// version, zero when starting fresh.
	ResumePosition float64 `json:"resumePosition,omitempty"`
}

func (uc OpenTitle) Execute(ctx context.Context, input OpenTitleInput) (OpenTitleOutput, error) {
	titleID := strings.TrimSpace(input.TitleID)
	if titleID == "" {
		return OpenTitleOutput{}, ErrTitleRequired
	}

	versions, err := uc.Catalog.Get(ctx, titleID)
	if err != nil {
		return OpenTitleOutput{}, wrapRepo(err)
	}

	version, choices, err := uc.resolveVersion(ctx, titleID, input.VersionID, versions)
	if err != nil {
		return OpenTitleOutput{}, err
	}
	if choices != nil {
		metrics.VersionSelectionsTotal.WithLabelValues("choice").Inc()
		return OpenTitleOutput{Choices: choices}, nil
	}

	session, ok := uc.Sessions.Get(input.SessionID)
	if !ok {
		return OpenTitleOutput{}, fmt.Errorf("session %q: %w", input.SessionID, wrapPlayer(domain.ErrNotFound))
	}
	session.Open(*version)

	out := OpenTitleOutput{}
	state := session.Snapshot()
	out.Opened = &state

	if uc.History != nil {
		if wp, err := uc.History.Get(ctx, titleID, version.ID); err == nil {
			out.ResumePosition = wp.Position
		}
	}
	return out, nil
}

// resolveVersion returns exactly one of: a version to play, a non-nil
// choice list, or an error.
func (uc OpenTitle) resolveVersion(ctx context.Context, titleID, explicitID string, versions []domain.Version) (*domain.Version, []domain.Version, error) {
	if explicit := strings.TrimSpace(explicitID); explicit != "" {
		for i := range versions {
			if string(versions[i].ID) == explicit {
				metrics.VersionSelectionsTotal.WithLabelValues("explicit").Inc()
				if uc.Settings != nil {
					if err := uc.Settings.SetPreferredVersion(ctx, titleID, explicit); err != nil {
						return nil, nil, wrapRepo(err)
					}
				}
				return &versions[i], nil, nil
			}
		}
		return nil, nil, fmt.Errorf("version %q: %w", explicit, domain.ErrNotFound)
	}

	var preference string
	if uc.Settings != nil {
		pref, ok, err := uc.Settings.GetPreferredVersion(ctx, titleID)
		if err != nil {
			return nil, nil, wrapRepo(err)
		}
		if ok {
			preference = pref
		}
	}

	decision, err := policy.Select(versions, preference)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Auto() {
		return nil, decision.Choices, nil
	}
	metrics.VersionSelectionsTotal.WithLabelValues("auto").Inc()
	return decision.Selected, nil, nil
}
