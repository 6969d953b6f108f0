package ports

import (
	"context"

	"playbackengine/internal/domain"
)

// PlayerSettingsStore is the key-value settings collaborator. The version
// selection policy reads a user's prior version preference through it;
// everything else about the store is opaque.
type PlayerSettingsStore interface {
	GetPreferredVersion(ctx context.Context, titleID string) (string, bool, error)
	SetPreferredVersion(ctx context.Context, titleID, versionRef string) error
	GetAutoplay(ctx context.Context) (bool, bool, error)
	SetAutoplay(ctx context.Context, enabled bool) error
}

// WatchHistoryStore persists resume positions outside the playback core.
type WatchHistoryStore interface {
	Upsert(ctx context.Context, wp domain.WatchPosition) error
	Get(ctx context.Context, titleID string, versionID domain.VersionID) (domain.WatchPosition, error)
	ListRecent(ctx context.Context, limit int) ([]domain.WatchPosition, error)
}
