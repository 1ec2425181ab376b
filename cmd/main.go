package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bracketpulse/tournament-stats/config"
	"github.com/bracketpulse/tournament-stats/db"
	"github.com/bracketpulse/tournament-stats/elo"
	"github.com/bracketpulse/tournament-stats/handlers"
	"github.com/bracketpulse/tournament-stats/live"
	"github.com/bracketpulse/tournament-stats/provider"
	"github.com/bracketpulse/tournament-stats/repositories"
	api "github.com/bracketpulse/tournament-stats/routes"
	"github.com/bracketpulse/tournament-stats/services"
	"github.com/bracketpulse/tournament-stats/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2). Хранилище аватаров
	// опционально: без него аватары остаются у внешнего провайдера.
	var uploader storage.FileUploader
	var rehoster storage.AvatarRehoster
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		rehoster = storage.NewAvatarRehoster(uploader, nil)
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, avatar rehosting disabled")
	}

	// Клиент провайдера турнирных сеток
	bracketClient, err := provider.NewChallongeClient(provider.ChallongeClientConfig{
		BaseURL: cfg.ChallongeBaseURL,
		APIKey:  cfg.ChallongeAPIKey,
	})
	if err != nil {
		logger.Error("failed to initialize bracket provider client", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	resultRepo := repositories.NewPostgresResultRepository(dbConn)
	eloRepo := repositories.NewPostgresEloRepository(dbConn)
	logger.Info("Repositories initialized")

	// Рейтинговый движок
	engine := elo.NewEngine(elo.Config{
		DefaultK:     cfg.EloDefaultK,
		KFactorRules: cfg.EloKFactorRules,
	})

	// Инициализация сервисов
	authService := services.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, []byte(cfg.JWTSecretKey), 24*time.Hour)
	gameService := services.NewGameService(gameRepo, uploader)
	playerService := services.NewPlayerService(playerRepo, eloRepo, uploader)
	tournamentService := services.NewTournamentService(tournamentRepo, gameRepo, playerRepo, matchRepo, resultRepo, uploader, logger)

	reconciler := services.NewReconcilerService(playerRepo, rehoster, logger)
	builder := services.NewBuilderService(matchRepo, resultRepo, logger)
	replay := services.NewReplayService(matchRepo, eloRepo, engine, services.ReplayConfig{
		StartingRating:         cfg.EloStartingRating,
		LegacyThreeGameOutcome: cfg.EloLegacyThreeGameMode,
	}, logger)
	standings := services.NewStandingsService(matchRepo, resultRepo, logger)

	syncService := services.NewSyncService(
		tournamentRepo,
		gameRepo,
		matchRepo,
		resultRepo,
		bracketClient,
		reconciler,
		builder,
		replay,
		standings,
		wsHub,
		services.SyncConfig{
			FetchTimeout: cfg.SyncFetchTimeout,
			StageTimeout: cfg.SyncStageTimeout,
		},
		logger,
	)
	logger.Info("Services initialized")

	// Планировщик фоновой синхронизации pending-турниров
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.SyncCronSpec, func() {
		if err := syncService.SyncPending(context.Background()); err != nil {
			logger.Error("scheduled sync run failed", slog.Any("error", err))
		}
	}); err != nil {
		logger.Error("failed to schedule pending sync", slog.String("spec", cfg.SyncCronSpec), slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("Sync scheduler started", slog.String("spec", cfg.SyncCronSpec))

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(gameService, playerService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	syncHandler := handlers.NewSyncHandler(syncService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		authHandler,
		gameHandler,
		playerHandler,
		tournamentHandler,
		syncHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		} else {
			logger.Info("server stopped gracefully")
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
