package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thraizz/gridduel-server/internal/abilities"
	"github.com/thraizz/gridduel-server/internal/catalog"
	"github.com/thraizz/gridduel-server/internal/config"
	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/rules"
	"github.com/thraizz/gridduel-server/internal/match"
	"github.com/thraizz/gridduel-server/internal/repository"
	"github.com/thraizz/gridduel-server/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

const (
	janitorInterval = time.Minute
	finishedRetain  = 10 * time.Minute
)

func main() {
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting gridduel server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var db *repository.DB
	if cfg.Database.Enabled {
		db, err = repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stat()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
	} else {
		logger.Warn("database disabled; finished games are not persisted")
	}

	registry := abilities.NewDefaultRegistry()
	cards, err := loadCatalog(ctx, cfg, db)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	if err := cards.Validate(registry); err != nil {
		logger.Fatal("card catalog references unknown abilities", zap.Error(err))
	}
	logger.Info("card catalog loaded",
		zap.Int("cards", cards.Len()),
		zap.Int("abilities", registry.Len()),
	)

	bus := rules.NewEventBus()
	engine := game.NewEngine(logger, registry,
		game.WithRules(cfg.Game),
		game.WithEventBus(bus),
	)

	opts := []match.Option{match.WithRecorder(game.NewReplayRecorder(logger, cfg.Replay.Dir))}
	if db != nil {
		opts = append(opts, match.WithStore(repository.NewGameRepository(db)))
	}
	matchMgr := match.NewManager(engine, cards, logger, opts...)
	go matchMgr.RunJanitor(ctx, janitorInterval, finishedRetain)
	logger.Info("match manager initialized",
		zap.Int("board_size", cfg.Game.BoardSize),
		zap.Int("hand_size", cfg.Game.HandSize),
		zap.String("replay_dir", cfg.Replay.Dir),
	)

	hub := server.NewHub(cfg.Server.WebSocket, matchMgr, logger)
	hub.Subscribe(bus)
	go hub.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.WebSocket.Address,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("WebSocket server error", zap.Error(err))
		}
	}()

	healthServer := server.NewHealthServer(logger)
	if addr := cfg.Server.GRPC.Address; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Fatal("failed to listen", zap.String("address", addr), zap.Error(err))
		}
		go func() {
			if err := healthServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", zap.Error(err))
			}
		}()
	}

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket server shutdown", zap.Error(err))
	}
	healthServer.Stop()

	logger.Info("gridduel server stopped",
		zap.Int("unfinished_matches", matchMgr.ActiveCount()),
	)
}

func loadCatalog(ctx context.Context, cfg *config.Config, db *repository.DB) (*catalog.Catalog, error) {
	if cfg.Catalog.FromDatabase {
		return repository.NewCardRepository(db).LoadCatalog(ctx)
	}
	return catalog.LoadFile(cfg.Catalog.Path)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
