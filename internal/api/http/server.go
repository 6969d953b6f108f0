package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"playbackengine/internal/domain"
	domainports "playbackengine/internal/domain/ports"
	"playbackengine/internal/player"
	"playbackengine/internal/usecase"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type OpenTitleUseCase interface {
	Execute(ctx context.Context, input usecase.OpenTitleInput) (usecase.OpenTitleOutput, error)
}

type SaveProgressUseCase interface {
	Execute(ctx context.Context, input usecase.SaveProgressInput) (domain.WatchPosition, error)
}

type IngestVersionUseCase interface {
	Execute(ctx context.Context, input usecase.IngestVersionInput) (domain.Version, error)
}

// AutoplayManager applies autoplay changes to the live session manager and
// persists them, rolling back on store failure.
type AutoplayManager interface {
	Autoplay() bool
	SetAutoplay(enabled bool) error
}

type Server struct {
	sessions       *player.Manager
	openTitle      OpenTitleUseCase
	saveProgress   SaveProgressUseCase
	ingestVersion  IngestVersionUseCase
	catalog        domainports.VersionCatalog
	settings       domainports.PlayerSettingsStore
	autoplay       AutoplayManager
	watchHistory   domainports.WatchHistoryStore
	allowedOrigins []string
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
}

type ServerOption func(*Server)

func WithOpenTitle(uc OpenTitleUseCase) ServerOption {
	return func(s *Server) {
		s.openTitle = uc
	}
}

func WithSaveProgress(uc SaveProgressUseCase) ServerOption {
	return func(s *Server) {
		s.saveProgress = uc
	}
}

func WithIngestVersion(uc IngestVersionUseCase) ServerOption {
	return func(s *Server) {
		s.ingestVersion = uc
	}
}

func WithCatalog(catalog domainports.VersionCatalog) ServerOption {
	return func(s *Server) {
		s.catalog = catalog
	}
}

func WithPlayerSettings(store domainports.PlayerSettingsStore) ServerOption {
	return func(s *Server) {
		s.settings = store
	}
}

func WithWatchHistory(store domainports.WatchHistoryStore) ServerOption {
	return func(s *Server) {
		s.watchHistory = store
	}
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted (development mode).
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(sessions *player.Manager, opts ...ServerOption) *Server {
	s := &Server{sessions: sessions}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/sessions/", s.handleSessionByID)
	mux.HandleFunc("/titles/", s.handleTitleByID)
	mux.HandleFunc("/settings/player", s.handlePlayerSettings)
	mux.HandleFunc("/watch-history", s.handleWatchHistory)
	mux.HandleFunc("/watch-history/", s.handleWatchHistoryByID)
	mux.HandleFunc("/internal/health/player", s.handlePlayerHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "playback-engine",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/internal/health/player"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, rateLimitMiddleware(100, 200, metricsMiddleware(corsMiddleware(s.allowedOrigins, traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// SetAutoplayManager wires the autoplay settings manager after construction.
// When set, autoplay updates go through it so the live session manager and
// the persisted settings stay in sync.
func (s *Server) SetAutoplayManager(mgr AutoplayManager) {
	s.autoplay = mgr
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsHub == nil {
		http.Error(w, "websocket not available", http.StatusServiceUnavailable)
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()
}

// BroadcastStates pushes every live session snapshot to all connected
// WebSocket clients. The UI subscribes instead of polling.
func (s *Server) BroadcastStates() {
	if s.wsHub == nil || s.sessions == nil {
		return
	}
	s.wsHub.Broadcast("sessions", s.sessions.Snapshots())
}

// BroadcastSessionState pushes a single session's snapshot.
func (s *Server) BroadcastSessionState(state domain.PlaybackState) {
	if s.wsHub == nil {
		return
	}
	s.wsHub.Broadcast("session", state)
}

// Close shuts down the WebSocket hub, disconnecting all clients.
func (s *Server) Close() {
	if s.wsHub != nil {
		s.wsHub.Close()
	}
}

// splitPathTail returns the path segments after the given prefix.
func splitPathTail(path, prefix string) []string {
	tail := strings.TrimPrefix(path, prefix)
	tail = strings.Trim(tail, "/")
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}
