package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"creditdocs/docs"
	"creditdocs/internal/config"
	"creditdocs/internal/crypto"
	"creditdocs/internal/database"
	"creditdocs/internal/database/migration"
	handlers "creditdocs/internal/http/handler"
	"creditdocs/internal/http/middleware"
	"creditdocs/internal/logging"
	"creditdocs/internal/otel"
	"creditdocs/internal/repository/postgres"
	"creditdocs/internal/service"
	"creditdocs/internal/storage"
)

// @title Credit Repair Document API
// @version 1.0
// @BasePath /
func main() {
	log := logging.NewJSON()
	ctx := context.Background()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		log.Error(ctx, "invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Error(ctx, "failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Error(ctx, "failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Select the blob store backend: local disk by default, MinIO when
	// configured. Both sit behind the same Storage interface.
	var objStore storage.Storage
	switch cfg.Upload.Backend {
	case "minio":
		objStore, err = storage.NewMinIO(cfg.MinIO)
	default:
		objStore, err = storage.NewLocal(cfg.Upload.Dir)
	}
	if err != nil {
		log.Error(ctx, "failed to initialize blob storage", "backend", cfg.Upload.Backend, "error", err)
		os.Exit(1)
	}

	encryptor, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		log.Error(ctx, "failed to initialize encryption", "error", err)
		os.Exit(1)
	}

	// Initialize repositories and services
	repos := postgres.NewProvider()
	docSvc := service.NewDocumentService(db, repos, objStore, encryptor, log,
		cfg.Upload.MaxFileSize, cfg.Upload.MaxFiles)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Upload.MaxFileSize)*cfg.Upload.MaxFiles + 1024*1024,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Error(ctx, "failed to register metrics", "error", err)
		os.Exit(1)
	}

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc, cfg.JWTSecret)

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

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info(ctx, "shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := cfg.AppHost + ":" + cfg.Port
	log.Info(ctx, "server starting", "addr", addr, "storage_backend", cfg.Upload.Backend)
	if err := app.Listen(addr); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}
