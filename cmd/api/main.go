package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"esignapi/docs"
	"esignapi/internal/config"
	"esignapi/internal/database"
	"esignapi/internal/database/migration"
	handlers "esignapi/internal/http/handler"
	"esignapi/internal/http/middleware"
	"esignapi/internal/logging"
	"esignapi/internal/mail"
	"esignapi/internal/metrics"
	"esignapi/internal/otel"
	"esignapi/internal/pivot"
	"esignapi/internal/repository/postgres"
	"esignapi/internal/scheduler"
	"esignapi/internal/service"
	"esignapi/internal/storage"
)

// @title E-Sign API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logging.NewWithLevel(nil, cfg.Location(), logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) error {
	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// PostgreSQL connection (pooled, traced through otelsql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.Migrate(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	// S3-compatible object storage (MinIO)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return err
	}

	pivotClient, err := pivot.NewClient(cfg.Pivot.BaseURL, cfg.Pivot.Timeout)
	if err != nil {
		return err
	}

	m, err := metrics.New(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	notifier := service.NewNotifier(mail.NewSMTPSender(cfg.Mail, log), cfg.Share.ClientURL)

	docSvc := service.NewDocumentService(objStore, postgres.NewDocumentPostgres(db))
	sessionSvc := service.NewSessionService(postgres.NewSessionPostgres(db), docSvc, objStore,
		service.WithMetrics(m),
		service.WithAllowReorder(cfg.Share.AllowReorder),
	)
	signingSvc := service.NewSigningService(sessionSvc, docSvc, objStore, pivotClient, m)
	shareSvc := service.NewShareService(postgres.NewSharePostgres(db), sessionSvc, objStore, notifier, m, log)

	if cfg.Scheduler.Enabled {
		sched := &scheduler.Scheduler{
			Share:    shareSvc,
			Docs:     docSvc,
			Interval: cfg.Scheduler.Interval,
			TempTTL:  cfg.Scheduler.TempTTL,
			Loc:      cfg.Location(),
			Log:      log.With("component", "scheduler"),
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.Share.MaxUploadSize * 1024 * 1024,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:       db,
		Docs:     docSvc,
		Sessions: sessionSvc,
		Signing:  signingSvc,
		Share:    shareSvc,
		Limiter:  middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	})

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

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", "addr", ":"+cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutting_down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
