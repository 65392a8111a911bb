//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"audio-articles/article-api/internal/config"
	domain "audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/domain/duration"
	"audio-articles/article-api/internal/domain/playback"
	"audio-articles/article-api/internal/infrastructure/database"
	"audio-articles/article-api/internal/infrastructure/janitor"
	"audio-articles/article-api/internal/infrastructure/logger"
	articlerepo "audio-articles/article-api/internal/infrastructure/repository/article"
	categoryrepo "audio-articles/article-api/internal/infrastructure/repository/category"
	"audio-articles/article-api/internal/interfaces/httpserver"
	"audio-articles/article-api/internal/interfaces/httpserver/handlers"
)

var articleSet = wire.NewSet(
	articlerepo.NewRepository,
	wire.Bind(new(domain.Repository), new(*articlerepo.Repository)),
	categoryrepo.NewRepository,
	wire.Bind(new(domain.CategoryRepository), new(*categoryrepo.Repository)),
	provideStorage,
	newEstimator,
	wire.Bind(new(domain.DurationEstimator), new(*duration.Estimator)),
	newProber,
	wire.Bind(new(playback.Prober), new(*playback.FFProbeProber)),
	domain.NewService,
	wire.Bind(new(handlers.ArticleService), new(*domain.Service)),
)

// BuildApplication assembles the article API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		articleSet,
		newJanitor,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newEstimator(cfg *config.Config, log zerolog.Logger) *duration.Estimator {
	return duration.NewEstimator(cfg.FFProbeBinary, cfg.ProbeTimeout, cfg.TempDir, log)
}

func newProber(cfg *config.Config, log zerolog.Logger) *playback.FFProbeProber {
	return playback.NewFFProbeProber(cfg.FFProbeBinary, cfg.ProbeTimeout, log)
}

func newJanitor(cfg *config.Config, est *duration.Estimator, log zerolog.Logger) *janitor.Janitor {
	return janitor.New(est.TempDir(), cfg.JanitorMaxAge, log)
}
