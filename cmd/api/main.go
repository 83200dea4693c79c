package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"studyguide/docs"
	"studyguide/internal/config"
	"studyguide/internal/database"
	"studyguide/internal/database/migration"
	handlers "studyguide/internal/http/handler"
	"studyguide/internal/http/middleware"
	"studyguide/internal/linkcheck"
	"studyguide/internal/otel"
	"studyguide/internal/repository/postgres"
	"studyguide/internal/service"
	"studyguide/internal/storage"
)

// @title Study Guide API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Initialize tracing; degrades to noop when no OTLP endpoint is reachable
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	chapterRepo := postgres.NewChapterPostgres(db)

	opts := []service.Option{
		service.WithMaxChapterSize(cfg.Corpus.MaxChapterSizeBytes),
	}
	if cfg.Corpus.CheckExternalLinks {
		checker := linkcheck.New(
			time.Duration(cfg.Corpus.LinkCheckTimeoutSec)*time.Second,
			cfg.Corpus.LinkCheckConcurrency,
		)
		opts = append(opts, service.WithLinkChecker(checker))
	}
	corpusSvc := service.NewCorpusService(objStore, chapterRepo, opts...)

	// Publish a local chapter directory into the corpus, if configured
	if cfg.Corpus.SeedDir != "" {
		n, err := corpusSvc.SeedFromDir(ctx, cfg.Corpus.SeedDir)
		if err != nil {
			log.Printf("corpus seed finished with failures: %v", err)
		}
		log.Printf("seeded %d chapters from %s", n, cfg.Corpus.SeedDir)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, corpusSvc, promMiddleware)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Shut down cleanly on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
