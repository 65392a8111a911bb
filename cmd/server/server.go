package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"audio-articles/article-api/internal/config"
	domain "audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/domain/duration"
	"audio-articles/article-api/internal/domain/playback"
	"audio-articles/article-api/internal/infrastructure/database"
	"audio-articles/article-api/internal/infrastructure/janitor"
	"audio-articles/article-api/internal/infrastructure/logger"
	"audio-articles/article-api/internal/infrastructure/observability"
	articlerepo "audio-articles/article-api/internal/infrastructure/repository/article"
	categoryrepo "audio-articles/article-api/internal/infrastructure/repository/category"
	"audio-articles/article-api/internal/infrastructure/storage"
	"audio-articles/article-api/internal/interfaces/httpserver"
)

// @title Audio Articles API
// @version 1.0
// @description Audio article publishing service with best-effort duration resolution
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	janitor    *janitor.Janitor
	cfg        *config.Config
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, j *janitor.Janitor, cfg *config.Config, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		janitor:    j,
		cfg:        cfg,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	if err := a.janitor.Start(a.cfg.JanitorSchedule); err != nil {
		return fmt.Errorf("start temp janitor: %w", err)
	}
	defer a.janitor.Stop()
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	storageClient, err := provideStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize storage")
	}

	estimator := duration.NewEstimator(cfg.FFProbeBinary, cfg.ProbeTimeout, cfg.TempDir, log)
	prober := playback.NewFFProbeProber(cfg.FFProbeBinary, cfg.ProbeTimeout, log)

	articleRepository := articlerepo.NewRepository(db)
	categoryRepository := categoryrepo.NewRepository(db)
	articleService := domain.NewService(cfg, articleRepository, categoryRepository, storageClient, estimator, prober, log)

	tempJanitor := janitor.New(estimator.TempDir(), cfg.JanitorMaxAge, log)

	httpServer := httpserver.New(cfg, log, articleService)
	app := NewApplication(httpServer, tempJanitor, cfg, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// provideStorage creates the appropriate storage backend based on configuration.
func provideStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (domain.Storage, error) {
	if cfg.IsS3Storage() {
		return storage.NewS3Storage(ctx, cfg, log)
	}
	return storage.NewCloudinaryStorage(cfg, log), nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
