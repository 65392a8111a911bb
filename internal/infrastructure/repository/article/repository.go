package article

import (
	"context"

	"gorm.io/gorm"

	domain "audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/domain/duration"
	"audio-articles/article-api/internal/infrastructure/database/entities"
	"audio-articles/article-api/internal/utils/platformerrors"
)

// Repository handles article persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Article{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Published != nil {
		query = query.Where("published = ?", *filter.Published)
	}
	if filter.Featured != nil {
		query = query.Where("featured = ?", *filter.Featured)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count articles",
			err,
			"3f7a9c1e-5d2b-4e86-a0f4-8c6d2b9e7a13",
		)
	}

	var rows []entities.Article
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list articles",
			err,
			"8e1c4a6f-2b9d-4073-95e8-d7a3f5c1b062",
		)
	}
	return mapEntities(rows), total, nil
}

func (r *Repository) Search(ctx context.Context, query string) ([]domain.Article, error) {
	pattern := "%" + query + "%"
	var rows []entities.Article
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Where("title ILIKE ? OR description ILIKE ? OR category ILIKE ?", pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(domain.SearchLimit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to search articles",
			err,
			"0b5d7f93-a4c1-4e28-b6d0-3e9f7a5c8d41",
		)
	}
	return mapEntities(rows), nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	var entity entities.Article
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get article by id",
			err,
			"6d2f8b4a-c7e1-4950-8a3d-f5b9e1c7a026",
		)
	}
	obj := mapEntity(entity)
	return &obj, nil
}

func (r *Repository) Create(ctx context.Context, a *domain.Article) error {
	entity := mapDomain(a)
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create article",
			err,
			"a9c3e5f7-1d08-4b62-9e4a-c2d6f8b0a357",
		)
	}
	a.CreatedAt = entity.CreatedAt
	a.UpdatedAt = entity.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, a *domain.Article) error {
	entity := mapDomain(a)
	result := r.db.WithContext(ctx).Model(&entities.Article{}).
		Where("id = ?", a.ID).
		Updates(map[string]interface{}{
			"title":                 entity.Title,
			"description":           entity.Description,
			"category":              entity.Category,
			"content":               entity.Content,
			"thumbnail_url":         entity.ThumbnailURL,
			"thumbnail_provider_id": entity.ThumbnailProviderID,
			"published":             entity.Published,
			"featured":              entity.Featured,
		})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update article",
			result.Error,
			"e4b6d8f0-3a5c-4217-b9e6-8d0f2a4c6e91",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"article not found",
			nil,
			"2c8e0a4d-6f1b-4593-a7c2-e9b3d5f7a180",
		)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Article{})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete article",
			result.Error,
			"7f1a3c5e-9b4d-4826-80f3-a6c8e0d2b495",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"article not found",
			nil,
			"5a9c7e1f-0d3b-4648-92a5-c4e6f8b0d217",
		)
	}
	return nil
}

func (r *Repository) IncrementPlayCount(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Model(&entities.Article{}).
		Where("id = ?", id).
		UpdateColumn("play_count", gorm.Expr("play_count + 1")).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to increment play count",
			err,
			"b0d2f4a6-8c1e-4359-b7d0-f2a4c6e8b013",
		)
	}
	return nil
}

// UpdateDuration writes the duration and its provenance tag in a single
// statement so they can never drift apart.
func (r *Repository) UpdateDuration(ctx context.Context, id string, seconds int, method string) error {
	result := r.db.WithContext(ctx).Model(&entities.Article{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"duration_seconds": seconds,
			"duration_method":  method,
		})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to update article duration",
			result.Error,
			"d6f8a0c2-4e7b-4185-96d8-b0c2e4f6a839",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"article not found",
			nil,
			"1e3a5c7f-9d2b-4064-8e1a-d3f5b7c9e024",
		)
	}
	return nil
}

func (r *Repository) ListSuspiciousDurations(ctx context.Context) ([]domain.Article, error) {
	var rows []entities.Article
	err := r.db.WithContext(ctx).
		Where("duration_seconds IN ? OR duration_method = ''", duration.SuspiciousValues()).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list suspicious durations",
			err,
			"9c1e3f5a-7b0d-4482-a6c9-e1f3a5b7d960",
		)
	}
	return mapEntities(rows), nil
}

func (r *Repository) CountByDurationMethod(ctx context.Context) (map[string]int64, error) {
	type row struct {
		DurationMethod string
		Count          int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&entities.Article{}).
		Select("duration_method, count(*) as count").
		Group("duration_method").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count durations by method",
			err,
			"4a6c8e0b-2d5f-4713-85a4-c6e8f0b2d571",
		)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.DurationMethod] = r.Count
	}
	return counts, nil
}

func mapDomain(a *domain.Article) entities.Article {
	return entities.Article{
		ID:                  a.ID,
		Title:               a.Title,
		Description:         a.Description,
		Category:            a.Category,
		Content:             a.Content,
		DurationSeconds:     a.DurationSeconds,
		DurationMethod:      a.DurationMethod,
		AudioURL:            a.AudioURL,
		AudioProviderID:     a.AudioProviderID,
		ThumbnailURL:        a.ThumbnailURL,
		ThumbnailProviderID: a.ThumbnailProviderID,
		PlayCount:           a.PlayCount,
		Published:           a.Published,
		Featured:            a.Featured,
	}
}

func mapEntity(entity entities.Article) domain.Article {
	return domain.Article{
		ID:                  entity.ID,
		Title:               entity.Title,
		Description:         entity.Description,
		Category:            entity.Category,
		Content:             entity.Content,
		DurationSeconds:     entity.DurationSeconds,
		DurationMethod:      entity.DurationMethod,
		AudioURL:            entity.AudioURL,
		AudioProviderID:     entity.AudioProviderID,
		ThumbnailURL:        entity.ThumbnailURL,
		ThumbnailProviderID: entity.ThumbnailProviderID,
		PlayCount:           entity.PlayCount,
		Published:           entity.Published,
		Featured:            entity.Featured,
		CreatedAt:           entity.CreatedAt,
		UpdatedAt:           entity.UpdatedAt,
	}
}

func mapEntities(rows []entities.Article) []domain.Article {
	out := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapEntity(row))
	}
	return out
}
