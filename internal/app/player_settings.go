package app

import (
	"context"
	"time"
)

// AutoplayEngine is the live playback component whose autoplay policy
// the manager controls.
type AutoplayEngine interface {
	Autoplay() bool
	SetAutoplay(enabled bool)
}

// AutoplayStore persists the policy across restarts.
type AutoplayStore interface {
	GetAutoplay(ctx context.Context) (bool, bool, error)
	SetAutoplay(ctx context.Context, enabled bool) error
}

// PlayerSettingsManager keeps the live engine and the persisted settings
// in sync. Updates apply to the engine first and roll back if the store
// write fails, so the engine never runs a policy that will be lost on
// restart.
type PlayerSettingsManager struct {
	engine  AutoplayEngine
	store   AutoplayStore
	timeout time.Duration
}

func NewPlayerSettingsManager(engine AutoplayEngine, store AutoplayStore) *PlayerSettingsManager {
	return &PlayerSettingsManager{
		engine:  engine,
		store:   store,
		timeout: 5 * time.Second,
	}
}

// Restore loads the persisted policy into the engine at startup. A
// missing settings document leaves the engine's default in place.
func (m *PlayerSettingsManager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	enabled, ok, err := m.store.GetAutoplay(ctx)
	if err != nil {
		return err
	}
	if ok {
		m.engine.SetAutoplay(enabled)
	}
	return nil
}

func (m *PlayerSettingsManager) Autoplay() bool {
	return m.engine.Autoplay()
}

func (m *PlayerSettingsManager) SetAutoplay(enabled bool) error {
	prev := m.engine.Autoplay()
	m.engine.SetAutoplay(enabled)

	if m.store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	if err := m.store.SetAutoplay(ctx, enabled); err != nil {
		m.engine.SetAutoplay(prev)
		return err
	}
	return nil
}
