package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-voice-intake/config"
	"github.com/fekuna/omnipos-voice-intake/internal/audio"
	"github.com/fekuna/omnipos-voice-intake/internal/extractor"
	"github.com/fekuna/omnipos-voice-intake/internal/i18n"
	intakeListenerPkg "github.com/fekuna/omnipos-voice-intake/internal/intake/listener"
	intakeUCPkg "github.com/fekuna/omnipos-voice-intake/internal/intake/usecase"
	"github.com/fekuna/omnipos-voice-intake/internal/logger"
	"github.com/fekuna/omnipos-voice-intake/internal/mirror"
	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/platform/broker"
	"github.com/fekuna/omnipos-voice-intake/internal/platform/cache"
	"github.com/fekuna/omnipos-voice-intake/internal/platform/postgres"
	prodRepoPkg "github.com/fekuna/omnipos-voice-intake/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-voice-intake/internal/product/usecase"
	"github.com/fekuna/omnipos-voice-intake/internal/session"
	"github.com/fekuna/omnipos-voice-intake/internal/session/lock"
	"github.com/fekuna/omnipos-voice-intake/internal/session/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize i18n
	catalog, err := i18n.New(cfg.Locale.Default)
	if err != nil {
		appLogger.Fatal("Could not load message catalog", zap.Error(err))
	}

	// 4. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if err := prodRepoPkg.Migrate(context.Background(), db); err != nil {
		appLogger.Fatal("Could not migrate schema", zap.Error(err))
	}

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 6. Sessions and actor locks
	var (
		sessions session.Store
		locker   session.Locker
	)
	switch cfg.Session.Backend {
	case "memory":
		sessions = store.NewMemoryStore()
		locker = lock.NewKeyedMutex()
	default:
		sessions = store.NewRedisStore(redisClient, cfg.Session.TTL)
		locker = lock.NewRedisLocker(redisClient, cfg.Session.LockTTL, cfg.Session.LockTTL, appLogger)
	}
	appLogger.Info("Session backend ready", zap.String("backend", cfg.Session.Backend))

	// 7. Initialize Repositories and UseCases
	prodRepo := prodRepoPkg.NewPGRepository(db)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, redisClient, appLogger)

	gemini := extractor.NewGeminiClient(extractor.GeminiConfig{
		APIKey:          cfg.Extractor.APIKey,
		Model:           cfg.Extractor.Model,
		BaseURL:         cfg.Extractor.BaseURL,
		Timeout:         cfg.Extractor.Timeout,
		RatePerMinute:   cfg.Extractor.RatePerMinute,
		DefaultCurrency: model.DefaultCurrency,
	}, appLogger)
	extract := extractor.WithRetry(gemini, extractor.DefaultRetryPolicy(cfg.Extractor.MaxAttempts, cfg.Extractor.BaseDelay), appLogger)

	var sheetMirror mirror.Mirror = mirror.Noop{}
	if cfg.Sheets.SpreadsheetID != "" {
		m, err := mirror.NewSheetsMirror(context.Background(), mirror.SheetsConfig{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			SheetName:       cfg.Sheets.SheetName,
		}, appLogger)
		if err != nil {
			appLogger.Warn("Could not initialize spreadsheet mirror (Mirroring disabled)", zap.Error(err))
		} else {
			sheetMirror = m
			appLogger.Info("Spreadsheet mirror enabled", zap.String("sheet", cfg.Sheets.SheetName))
		}
	}

	controller := intakeUCPkg.NewController(intakeUCPkg.Deps{
		Products:   prodUC,
		Sessions:   sessions,
		Locker:     locker,
		Extractor:  extract,
		Fetcher:    audio.NewFetcher(cfg.Audio.FileBaseURL, cfg.Audio.Timeout),
		Transcoder: audio.NewTranscoder(cfg.Audio.FFmpegPath, cfg.Audio.TempDir),
		Mirror:     sheetMirror,
		Catalog:    catalog,
		ReportDir:  cfg.Report.OutputDir,
	}, appLogger)

	// 8. Initialize Kafka
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.EventTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ReplyTopic,
	})
	defer kafkaProducer.Close()
	appLogger.Info("Connected to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("events", cfg.Kafka.EventTopic),
		zap.String("replies", cfg.Kafka.ReplyTopic),
	)

	// 9. Start Listener
	intakeListener := intakeListenerPkg.NewIntakeListener(kafkaConsumer, kafkaProducer, controller, cfg.Server.Workers, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	listenerDone := make(chan struct{})
	go func() {
		intakeListener.Start(ctx)
		close(listenerDone)
	}()

	// 10. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()
	<-listenerDone
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
