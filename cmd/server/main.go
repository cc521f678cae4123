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

	"github.com/go-telegram/bot"

	"phrasebot/internal/config"
	"phrasebot/internal/curriculum"
	"phrasebot/internal/database"
	"phrasebot/internal/handlers"
	"phrasebot/internal/logging"
	"phrasebot/internal/quiz"
	"phrasebot/internal/repository"
	"phrasebot/internal/security"
	"phrasebot/internal/service"
)

const adminTokenTTL = 12 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsDev())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.RequireBot(); err != nil {
		return err
	}

	startup := handlers.NewStartupStatus(
		handlers.StepDatabase,
		handlers.StepMigrations,
		handlers.StepSeed,
		handlers.StepCurriculum,
		handlers.StepBot,
	)

	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.Open(ctx, database.Options{
		Type: cfg.DatabaseType,
		Path: cfg.DatabasePath,
		URL:  cfg.DatabaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("database connection established", slog.String("type", db.Dialect.Name()))
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx, cfg.MigrationsPath, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepSeed)
	if cfg.SeedCurriculum {
		if _, err := service.NewSeedService(db, logger).SeedIfEmpty(ctx); err != nil {
			logger.Warn("failed to seed curriculum", slog.Any("error", err))
		}
	}
	startup.CompleteStep(handlers.StepSeed)

	// Repositories and services
	attempts := repository.NewAttemptRepository(db)
	content := service.NewContentService(service.NewRepositoryStore(db), logger)

	emailService, err := service.NewEmailService(ctx, service.EmailSettings{
		AWSRegion:   cfg.AWSRegion,
		FromEmail:   cfg.SESFromEmail,
		FromName:    cfg.SESFromName,
		ReportEmail: cfg.ReportEmail,
		Debug:       cfg.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}

	engine := quiz.NewEngine(quiz.NewSessionStore(), content, logger,
		quiz.Options{WordsInRow: cfg.WordsInRow, AutoAdvance: cfg.AutoAdvance},
		quiz.WithAttemptRecorder(attempts))

	limiter := security.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx, 5*time.Minute)

	startup.SetCurrentStep(handlers.StepCurriculum)
	content.LoadAsync(func(idx *curriculum.Index, err error) {
		if err != nil {
			logger.Error("initial curriculum load failed, retrying on demand", slog.Any("error", err))
			return
		}
		startup.CompleteStep(handlers.StepCurriculum)
	})

	// HTTP API
	adminAuth := security.NewAdminAuth(cfg.AdminPassHash, cfg.AdminJWTSecret, adminTokenTTL)
	if !adminAuth.Enabled() {
		logger.Info("admin API disabled: ADMIN_PASS_HASH or ADMIN_JWT_SECRET not configured")
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		API:         handlers.NewAPIHandler(content, attempts, engine, logger),
		Admin:       handlers.NewAdminHandler(adminAuth, content, logger),
		AdminAuth:   adminAuth,
		Startup:     startup,
		CORSOrigins: cfg.CORSAllowedOrigins,
		Logger:      logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Telegram bot
	startup.SetCurrentStep(handlers.StepBot)
	botHandler := handlers.NewBotHandler(engine, content, emailService, limiter, logger)
	b, err := bot.New(cfg.TelegramToken,
		bot.WithDefaultHandler(botHandler.Handle),
		bot.WithMiddlewares(handlers.RecoverUpdates(logger)),
	)
	if err != nil {
		shutdown(server, logger)
		return fmt.Errorf("failed to create bot: %w", err)
	}
	startup.CompleteStep(handlers.StepBot)
	startup.MarkReady()

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		logger.Info("bot polling started")
		b.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serverErr:
		stopErr := fmt.Errorf("http server failed: %w", err)
		shutdown(server, logger)
		return stopErr
	}

	<-botDone
	shutdown(server, logger)
	return nil
}

func shutdown(server *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", slog.Any("error", err))
	}
}
