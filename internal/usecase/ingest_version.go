package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"playbackengine/internal/domain"
	"playbackengine/internal/domain/ports"
	"playbackengine/internal/probe"
)

var ErrFileRequired = errors.New("file path is required")

// MediaProber is the slice of the ffprobe wrapper this use case needs.
type MediaProber interface {
	Probe(ctx context.Context, filePath string) (probe.Result, error)
}

// IngestVersion probes a local media file and registers it as a playable
// version of a title. The probe supplies the track lists and the
// technical descriptor; classification happens lazily wherever the
// version is presented.
type IngestVersion struct {
	Catalog ports.VersionCatalog
	Prober  MediaProber
}

type IngestVersionInput struct {
	TitleID   string
	VersionID string
	Label     string
	FilePath  string
}

func (uc IngestVersion) Execute(ctx context.Context, input IngestVersionInput) (domain.Version, error) {
	titleID := strings.TrimSpace(input.TitleID)
	if titleID == "" {
		return domain.Version{}, ErrTitleRequired
	}
	path := strings.TrimSpace(input.FilePath)
	if path == "" {
		return domain.Version{}, ErrFileRequired
	}

	result, err := uc.Prober.Probe(ctx, path)
	if err != nil {
		return domain.Version{}, fmt.Errorf("%w: %v", ErrPlayer, err)
	}

	id := strings.TrimSpace(input.VersionID)
	if id == "" {
		id = deriveVersionID(path)
	}
	version := domain.Version{
		ID:             domain.VersionID(id),
		Label:          strings.TrimSpace(input.Label),
		URI:            "file://" + path,
		AudioTracks:    result.AudioTracks,
		SubtitleTracks: result.SubtitleTracks,
		Tech:           result.Tech,
	}
	if version.Label == "" {
		version.Label = id
	}

	versions, err := uc.Catalog.Get(ctx, titleID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Version{}, wrapRepo(err)
	}

	replaced := false
	for i := range versions {
		if versions[i].ID == version.ID {
			versions[i] = version
			replaced = true
			break
		}
	}
	if !replaced {
		versions = append(versions, version)
	}

	if err := uc.Catalog.Put(ctx, titleID, versions); err != nil {
		return domain.Version{}, wrapRepo(err)
	}
	return version, nil
}

// deriveVersionID produces a stable id from the file name, without its
// extension.
func deriveVersionID(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndexByte(base, '.'); idx > 0 {
		base = base[:idx]
	}
	return base
}
