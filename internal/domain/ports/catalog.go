package ports

import (
	"context"

	"playbackengine/internal/domain"
)

// VersionCatalog stores the playable versions known for each title. The
// remote library service that discovers versions is an external
// collaborator; this is the engine's local record of what it has been
// told is playable.
type VersionCatalog interface {
	Get(ctx context.Context, titleID string) ([]domain.Version, error)
	Put(ctx context.Context, titleID string, versions []domain.Version) error
	Delete(ctx context.Context, titleID string) error
}
