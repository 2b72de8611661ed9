package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/jobs"
	"github.com/Dosada05/tournament-engine/locks"
	"github.com/Dosada05/tournament-engine/logger"
	"github.com/Dosada05/tournament-engine/repositories"
	api "github.com/Dosada05/tournament-engine/routes"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tournament-engine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Настройка логгера
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, ServiceName: "tournament-engine"})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("configuration loaded",
		zap.Int("port", cfg.ServerPort), zap.String("storage", cfg.StorageDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Хранилище
	var (
		store  repositories.Store
		dbConn *sql.DB
	)
	switch cfg.StorageDriver {
	case config.StorageDriverPostgres:
		dbConn, err = db.Connect(cfg.DatabaseURL, 5*time.Second, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				log.Error("failed to close database connection", zap.Error(err))
			} else {
				log.Info("database connection closed")
			}
		}()
		if err := db.Migrate(dbConn, log); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		store = repositories.NewPostgresStore(dbConn, log)
	default:
		log.Warn("using in-memory storage, data is lost on restart")
		store = repositories.NewMemoryStore()
	}

	// Блокировки: Redis, если настроен, иначе локальные мьютексы
	var locker locks.Locker = locks.NewLocalLocker()
	if cfg.RedisAddr != "" {
		redisClient, err := locks.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = locks.NewRedisLocker(redisClient, locks.DefaultLockTTL, log.Named("locks"))
		log.Info("redis locker initialized", zap.String("addr", cfg.RedisAddr))
	}

	// Уведомления
	wsHub := brackets.NewHub(log.Named("ws"))
	go wsHub.Run()
	defer wsHub.Stop()

	notifiers := []services.Notifier{
		services.NewLogNotifier(log.Named("notifications")),
		services.NewHubNotifier(wsHub),
	}

	if cfg.NATSURL != "" {
		publisher, err := events.NewPublisher(ctx, events.Config{URL: cfg.NATSURL, Stream: cfg.NATSStream}, log.Named("events"))
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifiers = append(notifiers, services.NewEventNotifier(publisher, log.Named("events")))
	}

	if cfg.SMTPEnabled() {
		notifiers = append(notifiers, services.NewEmailNotifier(services.NewEmailService(cfg), store, log.Named("email")))
	}
	notifier := services.NewMultiNotifier(notifiers...)

	// Хранилище доказательств (Cloudflare R2)
	var (
		evidence storage.EvidenceStore
		verifier services.Verifier
	)
	if cfg.R2Enabled() {
		evidence, err = storage.NewCloudflareR2Store(ctx, storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		}, log.Named("storage"))
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 store: %w", err)
		}
		verifier = services.NewEvidenceVerifier(evidence)
		log.Info("Cloudflare R2 evidence store initialized")
	}

	// Инициализация сервисов
	authService := services.NewAuthService(store.Users())
	accessService := services.NewAccessService(store)
	tournamentService := services.NewTournamentService(store, log)
	teamService := services.NewTeamService(store, log)
	progression := services.NewProgressionController(store, locker, notifier, log)
	resultService := services.NewResultService(store, locker, progression, notifier, verifier, evidence, log)

	scheduler, err := jobs.NewScheduler(teamService, cfg.RegistrationSweepInterval, log)
	if err != nil {
		return err
	}
	teamService.SetDispatcher(scheduler)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Error("failed to stop scheduler", zap.Error(err))
		}
	}()

	// Маршрутизатор
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		Tournament: handlers.NewTournamentHandler(tournamentService, teamService, progression, accessService),
		Team:       handlers.NewTeamHandler(teamService, accessService),
		Match:      handlers.NewMatchHandler(resultService, accessService),
		WebSocket:  handlers.NewWebSocketHandler(wsHub, tournamentService),
	}, api.Options{
		JWTSecret:      cfg.JWTSecretKey,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     zap.NewStdLog(log.Named("http")),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		log.Info("server stopped gracefully")
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		log.Info("shutting down server", zap.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			if closeErr := server.Close(); closeErr != nil {
				log.Error("failed to force close server", zap.Error(closeErr))
			}
			return err
		}
		log.Info("server shutdown complete")
	}
	log.Info("application exited")
	return nil
}
