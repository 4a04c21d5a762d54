package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/config"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/database"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/i18n"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/logging"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/plans"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/routes"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/storage"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/trial"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/youtube"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Plan registry, reloaded when plans.yaml changes
	registry, err := plans.LoadFromFile(cfg.PlansConfigPath)
	if err != nil {
		slog.Error("failed to load plan registry", "path", cfg.PlansConfigPath, "error", err)
		os.Exit(1)
	}
	slog.Info("plan registry loaded", "plans", len(registry.All()))

	watcher := plans.NewWatcher(registry, cfg.PlansConfigPath)
	watcher.OnReload(func(err error) {
		if err != nil {
			slog.Warn("plans reload rejected, keeping previous registry", "error", err)
			return
		}
		slog.Info("plans reloaded", "plans", len(registry.All()))
	})
	if err := watcher.Start(); err != nil {
		slog.Warn("plans hot reload disabled", "error", err)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	db := database.DB
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		pgLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, logging.DefaultRules(), cleanupDone)

	// Locale catalogs plus admin overrides
	catalog, err := i18n.Load(cfg.DefaultLocale)
	if err != nil {
		slog.Error("failed to load locale catalogs", "error", err)
		os.Exit(1)
	}
	if err := catalog.LoadOverrides(db); err != nil {
		slog.Warn("translation overrides not loaded", "error", err)
	}

	ctx := context.Background()
	yt := youtube.NewClient(cfg.YouTubeAPIURL, cfg.YouTubeAPIKey, cfg.YouTubeRPS)
	if !yt.Configured() {
		slog.Warn("YOUTUBE_API_KEY not set, channel sync disabled")
	}

	// Services
	events := services.NewSyncService(db)
	devices := services.NewDeviceService(db, registry, events)
	authService := services.NewAuthService(db, cfg, devices, events)
	userService := services.NewUserService(db, catalog, events)
	teamService := services.NewTeamService(db)
	channelService := services.NewChannelService(db, registry, yt, teamService)
	classifier := services.NewCommentClassifier()
	ingestService := services.NewIngestService(db, yt, channelService, classifier)
	videoService := services.NewVideoService(db, channelService)
	commentService := services.NewCommentService(db, videoService, classifier)
	reportService := services.NewReportService(db, registry, channelService, videoService, commentService, catalog)
	dashboardService := services.NewDashboardService(db, channelService, videoService, events)
	subscriptionService := services.NewSubscriptionService(db, registry, events)
	translationService := services.NewTranslationService(db, catalog)
	adminService := services.NewAdminService(db, registry, events)

	if cfg.StorageEnabled() {
		store, err := storage.NewS3Store(ctx, storage.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    "reports",
		})
		if err != nil {
			slog.Error("object storage init failed, exports will stream", "error", err)
		} else {
			reportService.WithStorage(store, store.LinkTTL())
		}
	}

	var narrator services.Narrator
	if cfg.GeminiAPIKey != "" {
		g, err := services.NewGeminiNarrator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout)
		if err != nil {
			slog.Error("gemini init failed, insights use templates", "error", err)
		} else {
			narrator = g
		}
	}
	insightService := services.NewInsightService(db, channelService, videoService, commentService, catalog, narrator)

	// Anonymous trial: memory, database and signed cookie copies
	memTrials := trial.NewMemoryStore(10 * time.Minute)
	trials := trial.NewService(cfg.AnonTrialLimit, cfg.AnonTrialTTL,
		trial.NewCookieCodec(cfg.JWTSecret), memTrials, trial.NewDBStore(db))

	secure := cfg.AppEnv == "production"
	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		User:      handlers.NewUserHandler(userService),
		Device:    handlers.NewDeviceHandler(devices),
		Sync:      handlers.NewSyncHandler(events),
		Trial:     handlers.NewTrialHandler(trials, ingestService, catalog, secure),
		Channel:   handlers.NewChannelHandler(channelService, ingestService),
		Video:     handlers.NewVideoHandler(videoService, commentService),
		Report:    handlers.NewReportHandler(reportService),
		Dashboard: handlers.NewDashboardHandler(dashboardService),
		Insight:   handlers.NewInsightHandler(insightService),
		Team:      handlers.NewTeamHandler(teamService),
		I18n:      handlers.NewI18nHandler(catalog, translationService),
		Webhook:   handlers.NewWebhookHandler(subscriptionService, cfg.BillingWebhookSecret),
		Admin:     handlers.NewAdminHandler(adminService, trials),
		Health:    handlers.NewHealthHandler(db, cfg, registry),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	routes.Setup(app, cfg, db, registry, catalog, routes.Limits{API: 120, Auth: 10}, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	watcher.Stop()
	memTrials.Close()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
