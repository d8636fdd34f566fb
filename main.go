package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"phish-sim-backend/cache"
	"phish-sim-backend/config"
	"phish-sim-backend/handlers"
	"phish-sim-backend/logger"
	"phish-sim-backend/middleware"
	"phish-sim-backend/models"
	"phish-sim-backend/services"
	"phish-sim-backend/utils"
	"phish-sim-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal("failed to init logger:", err)
	}
	defer logg.Sync()

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logg.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logg.Fatal("failed to connect to database", "error", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		logg.Fatal("failed to migrate database", "error", err)
	}

	var leaderboardCache services.LeaderboardCache = cache.NewMemory(cfg.Redis.LeaderboardTTL)
	if cfg.Redis.Address != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.LeaderboardTTL, logg)
		if err != nil {
			logg.Warn("redis unavailable, using in-process leaderboard cache", "error", err)
		} else {
			defer rc.Close()
			leaderboardCache = rc
		}
	}

	var store utils.ArtifactStore
	if cfg.R2.Enabled() {
		store, err = utils.NewR2Store(ctx, cfg.R2.AccountID, cfg.R2.AccessKeyID, cfg.R2.AccessKeySecret, cfg.R2.Bucket, cfg.R2.CDNBaseURL)
	} else {
		store, err = utils.NewLocalStore(cfg.Certificates.Dir, cfg.Certificates.AppBaseURL+"/certificates")
	}
	if err != nil {
		logg.Fatal("failed to initialize artifact store", "error", err)
	}
	renderer, err := utils.NewCertificateRenderer(cfg.Certificates.IssuerName)
	if err != nil {
		logg.Fatal("failed to initialize certificate renderer", "error", err)
	}

	attemptRecorder := services.NewAttemptRecorder(db)
	challengeService := services.NewChallengeService(db, logg)
	badgeService := services.NewBadgeService(db, attemptRecorder, logg)
	certificateService := services.NewCertificateService(db, attemptRecorder, logg)
	artifactService := services.NewCertificateArtifactService(db, certificateService, store, renderer, logg)
	authService := services.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, leaderboardCache, logg)
	userService := services.NewUserService(db, attemptRecorder, badgeService, certificateService, leaderboardCache, logg)
	progressionService := services.NewProgressionService(db, services.ProgressionDeps{
		Challenges:   challengeService,
		Attempts:     attemptRecorder,
		Badges:       badgeService,
		Certificates: certificateService,
		Leaderboard:  leaderboardCache,
	}, cfg.Scoring.RepeatAttempts, logg)

	if cfg.SeedDir != "" {
		if _, err := challengeService.ImportDir(ctx, cfg.SeedDir); err != nil {
			logg.Warn("challenge import failed", "dir", cfg.SeedDir, "error", err)
		}
	}

	sched, err := progressionService.StartReconcileScheduler(cfg.Jobs.ReconcileInterval)
	if err != nil {
		logg.Fatal("failed to start reconcile scheduler", "error", err)
	}
	defer func() { _ = sched.Shutdown() }()

	artifactWorker := workers.NewCertificateArtifactWorker(artifactService, logg)
	go artifactWorker.Poll(ctx, cfg.Jobs.ArtifactPollInterval)

	app := fiber.New(fiber.Config{
		AppName: "phish-sim-backend",
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupProgressionRoutes(app, handlers.ProgressionHandlerDeps{
		Auth:         authService,
		Progression:  progressionService,
		Badges:       badgeService,
		Certificates: certificateService,
		Artifacts:    artifactService,
	})
	handlers.SetupProfileRoutes(app, authService, userService)
	handlers.SetupEventRoutes(app, authService, services.NewEventService(db), cfg.Jobs.EventPollInterval, logg)
	handlers.SetupAdminRoutes(app, handlers.AdminHandlerDeps{
		Token:       cfg.Auth.AdminToken,
		Progression: progressionService,
		Challenges:  challengeService,
		SeedDir:     cfg.SeedDir,
	})

	if !cfg.R2.Enabled() {
		app.Static("/certificates", cfg.Certificates.Dir)
	}

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			logg.Error("server error", "error", err)
			stop()
		}
	}()

	logg.Info("server running",
		"port", cfg.Server.Port,
		"origins", cfg.Server.AllowedOrigins,
		"redis", cfg.Redis.Address != "",
		"r2", cfg.R2.Enabled())

	<-ctx.Done()
	logg.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logg.Error("shutdown error", "error", err)
	}
}
