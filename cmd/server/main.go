package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "playbackengine/internal/api/http"
	"playbackengine/internal/app"
	"playbackengine/internal/metrics"
	"playbackengine/internal/player"
	"playbackengine/internal/probe"
	mongorepo "playbackengine/internal/repository/mongo"
	"playbackengine/internal/telemetry"
	"playbackengine/internal/usecase"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "playback-engine")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "playback-engine"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("playerBackend", cfg.PlayerBackend),
		slog.String("nativeSocket", cfg.NativeSocket),
		slog.Bool("autoplay", cfg.Autoplay),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	mongoMonitor := otelmongo.NewMonitor()
	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI, options.Client().SetMonitor(mongoMonitor))
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("mongo ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	catalog := mongorepo.NewCatalog(mongoClient, cfg.MongoDatabase)
	settingsRepo := mongorepo.NewPlayerSettingsRepository(mongoClient, cfg.MongoDatabase)
	historyRepo := mongorepo.NewWatchHistoryRepository(mongoClient, cfg.MongoDatabase)

	if err := catalog.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo ensure indexes failed", slog.String("error", err.Error()))
	}
	if err := historyRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo ensure indexes failed", slog.String("error", err.Error()))
	}

	playerCfg := player.DefaultConfig()
	playerCfg.Autoplay = cfg.Autoplay

	factory, err := bridgeFactory(cfg, logger)
	if err != nil {
		logger.Error("player backend init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	manager := player.NewManager(playerCfg, factory, logger)

	settingsMgr := app.NewPlayerSettingsManager(manager, settingsRepo)
	if err := settingsMgr.Restore(rootCtx); err != nil {
		logger.Warn("player settings load failed", slog.String("error", err.Error()))
	}

	openUC := usecase.OpenTitle{
		Catalog:  catalog,
		Settings: settingsRepo,
		History:  historyRepo,
		Sessions: manager,
	}
	saveUC := usecase.SaveProgress{History: historyRepo, Sessions: manager, Now: time.Now}
	ingestUC := usecase.IngestVersion{Catalog: catalog, Prober: probe.New(cfg.FFProbePath)}

	handler := apihttp.NewServer(manager,
		apihttp.WithLogger(logger),
		apihttp.WithOpenTitle(openUC),
		apihttp.WithSaveProgress(saveUC),
		apihttp.WithIngestVersion(ingestUC),
		apihttp.WithCatalog(catalog),
		apihttp.WithPlayerSettings(settingsRepo),
		apihttp.WithWatchHistory(historyRepo),
		apihttp.WithAllowedOrigins(cfg.AllowedOrigins),
	)
	handler.SetAutoplayManager(settingsMgr)

	// Periodically push session snapshots to websocket subscribers.
	go broadcastSessionStates(rootCtx, handler)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	handler.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	manager.Close()
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		logger.Warn("mongo disconnect error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

// bridgeFactory picks the native player transport for new sessions.
//
// The "channel" backend dials the player's IPC socket once per session and
// speaks the line-delimited JSON protocol over it. The "module" backend has
// no standalone transport: the embedding process attaches a ModuleBridge to
// each session itself, so sessions start detached here.
func bridgeFactory(cfg app.Config, logger *slog.Logger) (player.BridgeFactory, error) {
	switch cfg.PlayerBackend {
	case "module":
		return nil, nil
	case "channel":
		if cfg.NativeSocket == "" {
			logger.Warn("no native socket configured, sessions start detached")
			return nil, nil
		}
		socket := cfg.NativeSocket
		return func(surfaceID string) (player.Bridge, error) {
			conn, err := net.DialTimeout("unix", socket, 5*time.Second)
			if err != nil {
				return nil, err
			}
			return player.NewChannelBridge(conn, logger.With(slog.String("surfaceId", surfaceID))), nil
		}, nil
	default:
		return nil, errors.New("unknown player backend: " + cfg.PlayerBackend)
	}
}

func broadcastSessionStates(ctx context.Context, handler *apihttp.Server) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			handler.BroadcastStates()
		}
	}
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
