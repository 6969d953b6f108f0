package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/player"
)

var ErrNothingPlaying = errors.New("session has no active version")

// SaveProgress records the resume position of a live session. The UI
// calls it periodically during playback and once on teardown.
type SaveProgress struct {
	History  ports.WatchHistoryStore
	Sessions *player.Manager
	Now      func() time.Time
}

type SaveProgressInput struct {
	SessionID string
	TitleID   string
	TitleName string
}

func (uc SaveProgress) Execute(ctx context.Context, input SaveProgressInput) (domain.WatchPosition, error) {
	titleID := strings.TrimSpace(input.TitleID)
	if titleID == "" {
		return domain.WatchPosition{}, ErrTitleRequired
	}

	session, ok := uc.Sessions.Get(input.SessionID)
	if !ok {
		return domain.WatchPosition{}, fmt.Errorf("session %q: %w", input.SessionID, wrapPlayer(domain.ErrNotFound))
	}

	state := session.Snapshot()
	if state.ActiveVersionID == "" {
		return domain.WatchPosition{}, ErrNothingPlaying
	}

	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}

	wp := domain.WatchPosition{
		TitleID:   titleID,
		VersionID: state.ActiveVersionID,
		Position:  state.PositionSeconds,
		Duration:  state.DurationSeconds,
		TitleName: input.TitleName,
		UpdatedAt: now().UTC(),
	}
	if err := uc.History.Upsert(ctx, wp); err != nil {
		return domain.WatchPosition{}, wrapRepo(err)
	}
	return wp, nil
}
