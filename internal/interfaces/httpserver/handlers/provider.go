package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/config"
	domain "audio-articles/article-api/internal/domain/article"
)

// ArticleService is the domain surface the HTTP layer depends on.
type ArticleService interface {
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, int64, error)
	Search(ctx context.Context, query string) ([]domain.Article, error)
	Get(ctx context.Context, id string) (*domain.Article, error)
	Create(ctx context.Context, in domain.CreateInput) (*domain.Article, error)
	Update(ctx context.Context, id string, in domain.UpdateInput) (*domain.Article, error)
	Delete(ctx context.Context, id string) error
	UpdateDuration(ctx context.Context, id string, seconds int) (*domain.Article, error)
	FixDuration(ctx context.Context, id string) (*domain.DurationFix, error)
	RealDuration(ctx context.Context, id string) (*domain.RealDurationResult, error)
	BulkFixDurations(ctx context.Context) (*domain.BulkFixReport, error)
	DurationHealth(ctx context.Context) (*domain.DurationReport, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// Provider wires HTTP handlers.
type Provider struct {
	Article  *ArticleHandler
	Duration *DurationHandler
}

func NewProvider(cfg *config.Config, service ArticleService, log zerolog.Logger) *Provider {
	return &Provider{
		Article:  NewArticleHandler(cfg, service, log),
		Duration: NewDurationHandler(service, log),
	}
}
