package player

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"playbackengine/internal/domain"
	"playbackengine/internal/metrics"
)

// BridgeFactory builds the native bridge for a new session. The surface
// id identifies the hosting player surface (window, view, IPC peer).
type BridgeFactory func(surfaceID string) (Bridge, error)

// Manager tracks all live playback sessions for this process.
type Manager struct {
	logger  *slog.Logger
	cfg     Config
	factory BridgeFactory

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(cfg Config, factory BridgeFactory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:   logger,
		cfg:      cfg,
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new session bound to the given surface. When a bridge
// factory is configured, the native handle is attached before the
// session is published.
func (m *Manager) Create(surfaceID string) (*Session, error) {
	id := surfaceID
	if id == "" {
		id = newSessionID()
	}

	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrAlreadyExists)
	}
	cfg := m.cfg
	m.mu.Unlock()

	s := NewSession(id, cfg, m.logger)
	if m.factory != nil {
		bridge, err := m.factory(id)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("attach native bridge: %w", err)
		}
		s.Attach(bridge)
	}

	m.mu.Lock()
	m.sessions[id] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	m.logger.Info("session created", slog.String("sessionId", id))
	return s, nil
}

// Autoplay reports the autoplay policy applied to new sessions.
func (m *Manager) Autoplay() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Autoplay
}

// SetAutoplay changes the autoplay policy for sessions created from now
// on. Live sessions keep the policy they were created with.
func (m *Manager) SetAutoplay(enabled bool) {
	m.mu.Lock()
	m.cfg.Autoplay = enabled
	m.mu.Unlock()
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove closes the session and drops it from the registry.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	s.Close()
	m.logger.Info("session removed", slog.String("sessionId", id))
	return nil
}

// Snapshots returns the current state of every live session.
func (m *Manager) Snapshots() []domain.PlaybackState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.PlaybackState, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// Close shuts down every session. Used on process shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	metrics.ActiveSessions.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func newSessionID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "session-fallback"
	}
	return hex.EncodeToString(buf)
}
