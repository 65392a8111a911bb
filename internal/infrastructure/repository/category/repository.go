package category

import (
	"context"

	"gorm.io/gorm"

	domain "audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/infrastructure/database/entities"
	"audio-articles/article-api/internal/utils/platformerrors"
)

// Repository handles category persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]domain.Category, error) {
	var rows []entities.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list categories",
			err,
			"f2a4c6e8-0b3d-4571-92f4-a6c8e0b2d413",
		)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Category{
			ID:          row.ID,
			Name:        row.Name,
			Slug:        row.Slug,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (r *Repository) Create(ctx context.Context, c *domain.Category) error {
	entity := entities.Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeConflict,
			"failed to create category",
			err,
			"8c0e2a4f-6d1b-4935-b8c0-e2a4f6d8b157",
		)
	}
	c.CreatedAt = entity.CreatedAt
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Category{})
	if result.Error != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to delete category",
			result.Error,
			"3b5d7f91-a2c4-4e68-80b3-d5f7a9c1e325",
		)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"category not found",
			nil,
			"6d8f0a2c-4e6b-4179-93d5-f0a2c4e6b098",
		)
	}
	return nil
}
