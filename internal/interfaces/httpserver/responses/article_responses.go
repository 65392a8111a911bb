package responses

import (
	"time"

	domain "audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/domain/duration"
)

// ArticleResponse is the wire shape of one article.
type ArticleResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	Content           string    `json:"content,omitempty"`
	DurationSeconds   int       `json:"duration_seconds"`
	DurationFormatted string    `json:"duration_formatted"`
	DurationMethod    string    `json:"duration_method"`
	AudioURL          string    `json:"audio_url"`
	ThumbnailURL      string    `json:"thumbnail_url,omitempty"`
	PlayCount         int64     `json:"play_count"`
	Published         bool      `json:"published"`
	Featured          bool      `json:"featured"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ArticleListResponse is a paginated listing.
type ArticleListResponse struct {
	Articles []ArticleResponse `json:"articles"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// CategoryResponse is the wire shape of one category.
type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewArticleResponse(a *domain.Article) ArticleResponse {
	return ArticleResponse{
		ID:                a.ID,
		Title:             a.Title,
		Description:       a.Description,
		Category:          a.Category,
		Content:           a.Content,
		DurationSeconds:   a.DurationSeconds,
		DurationFormatted: duration.FormatClock(a.DurationSeconds),
		DurationMethod:    a.DurationMethod,
		AudioURL:          a.AudioURL,
		ThumbnailURL:      a.ThumbnailURL,
		PlayCount:         a.PlayCount,
		Published:         a.Published,
		Featured:          a.Featured,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func NewArticleListResponse(articles []domain.Article, total int64, limit, offset int) ArticleListResponse {
	out := ArticleListResponse{
		Articles: make([]ArticleResponse, 0, len(articles)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for i := range articles {
		out.Articles = append(out.Articles, NewArticleResponse(&articles[i]))
	}
	return out
}

func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}
