package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/internal/api/handlers"
	"github.com/afs-framework/backend/internal/assessment"
	"github.com/afs-framework/backend/internal/cache/redis"
	"github.com/afs-framework/backend/internal/catalog"
	"github.com/afs-framework/backend/internal/metrics"
	"github.com/afs-framework/backend/internal/middleware/logging"
	"github.com/afs-framework/backend/internal/middleware/ratelimit"
	"github.com/afs-framework/backend/internal/middleware/security"
	"github.com/afs-framework/backend/internal/middleware/validation"
	"github.com/afs-framework/backend/internal/progress"
	"github.com/afs-framework/backend/internal/storage/sqlite"
	"github.com/afs-framework/backend/pkg/config"
	appLogger "github.com/afs-framework/backend/pkg/logger"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting AFS Assessment API Server")

	metrics.Init()

	cat, err := catalog.Load(cfg.Catalog.SeedDir)
	if err != nil {
		appLogger.Fatal("Failed to load catalog", zap.Error(err))
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Redis is optional. Without it every results read recomputes.
	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Cache.KeyPrefix,
			time.Duration(cfg.Cache.ResultsTTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, results caching disabled", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	hub := progress.NewHub()
	service := assessment.NewService(sqliteClient, cat, cacheClient, hub)

	assessmentHandler := handlers.NewAssessmentHandler(service)
	catalogHandler := handlers.NewCatalogHandler(cat)
	statsHandler := handlers.NewStatsHandler(service)
	healthHandler := handlers.NewHealthHandler(sqliteClient, cacheClient)
	wsHandler := handlers.NewWebSocketHandler(service, hub)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logging.Middleware(appLogger.GetLogger()))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Environment == "development",
	}))

	rateLimiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		Logger:            appLogger.GetLogger(),
	})
	defer rateLimiter.Stop()

	api := app.Group("/api/v1")
	api.Use(rateLimiter.Middleware())
	api.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	assessments := api.Group("/assessments")
	assessments.Post("/", assessmentHandler.CreateAssessment)
	assessments.Get("/", assessmentHandler.ListAssessments)
	assessments.Get("/:id", assessmentHandler.GetAssessment)
	assessments.Patch("/:id", assessmentHandler.UpdateAssessment)
	assessments.Delete("/:id", assessmentHandler.DeleteAssessment)
	assessments.Put("/:id/responses/:questionID", assessmentHandler.SaveResponse)
	assessments.Post("/:id/responses", assessmentHandler.BulkSaveResponses)
	assessments.Get("/:id/responses", assessmentHandler.GetResponses)
	assessments.Get("/:id/progress", assessmentHandler.GetProgress)
	assessments.Post("/:id/finalize", assessmentHandler.FinalizeAssessment)
	assessments.Get("/:id/results", assessmentHandler.GetResults)

	api.Get("/catalog/sections", catalogHandler.GetSections)
	api.Get("/catalog/areas/:id/questions", catalogHandler.GetAreaQuestions)
	api.Get("/catalog/areas/:id/progressions", catalogHandler.GetAreaProgressions)

	api.Get("/stats", statsHandler.GetStats)

	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/assessments/:id/progress", websocket.New(wsHandler.HandleProgress))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Shutdown did not complete cleanly", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
