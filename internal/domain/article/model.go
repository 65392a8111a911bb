package article

import (
	"context"
	"time"
)

// Article is an audio article: written content paired with a narrated audio
// asset and its resolved duration.
type Article struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Category            string    `json:"category"`
	Content             string    `json:"content"`
	DurationSeconds     int       `json:"duration_seconds"`
	DurationMethod      string    `json:"duration_method"`
	AudioURL            string    `json:"audio_url"`
	AudioProviderID     string    `json:"audio_provider_id"`
	ThumbnailURL        string    `json:"thumbnail_url"`
	ThumbnailProviderID string    `json:"thumbnail_provider_id"`
	PlayCount           int64     `json:"play_count"`
	Published           bool      `json:"published"`
	Featured            bool      `json:"featured"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Category is a browsing facet for articles.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchLimit caps how many rows a search may return.
const SearchLimit = 50

// ListFilter narrows a listing query.
type ListFilter struct {
	Category  string
	Published *bool
	Featured  *bool
	Limit     int
	Offset    int
}

// UploadFile is a file received with a create or update request.
type UploadFile struct {
	Data      []byte
	Filename  string
	MediaType string
}

// CreateInput carries everything needed to publish a new article.
type CreateInput struct {
	Title               string
	Description         string
	Category            string
	Content             string
	Published           bool
	Featured            bool
	DurationHintSeconds int
	Audio               UploadFile
	Thumbnail           *UploadFile
}

// UpdateInput carries a partial update. Nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Content     *string
	Published   *bool
	Featured    *bool
	Thumbnail   *UploadFile
}

// DurationFix is the per-article outcome of a repair attempt.
type DurationFix struct {
	ArticleID  string `json:"article_id"`
	Title      string `json:"title"`
	OldSeconds int    `json:"old_seconds"`
	NewSeconds int    `json:"new_seconds,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// BulkFixReport summarises a repair sweep over suspicious durations.
type BulkFixReport struct {
	Scanned int           `json:"scanned"`
	Fixed   int           `json:"fixed"`
	Failed  int           `json:"failed"`
	Results []DurationFix `json:"results"`
}

// DurationReportEntry is one article's duration provenance, for diagnostics.
type DurationReportEntry struct {
	ArticleID  string `json:"article_id"`
	Title      string `json:"title"`
	Seconds    int    `json:"seconds"`
	Formatted  string `json:"formatted"`
	Method     string `json:"method"`
	Suspicious bool   `json:"suspicious"`
}

// DurationReport is the catalog-wide duration health summary.
type DurationReport struct {
	Total           int64                 `json:"total"`
	SuspiciousCount int                   `json:"suspicious_count"`
	ByMethod        map[string]int64      `json:"by_method"`
	Entries         []DurationReportEntry `json:"entries"`
}

// RealDurationResult compares the stored duration with a fresh measurement.
type RealDurationResult struct {
	ArticleID        string `json:"article_id"`
	StoredSeconds    int    `json:"stored_seconds"`
	StoredMethod     string `json:"stored_method"`
	MeasuredSeconds  int    `json:"measured_seconds,omitempty"`
	DisplaySeconds   int    `json:"display_seconds"`
	StoredSuspicious bool   `json:"stored_suspicious"`
	AdoptedLive      bool   `json:"adopted_live"`
	BackfillIssued   bool   `json:"backfill_issued"`
	MeasureError     string `json:"measure_error,omitempty"`
}

// Repository defines persistence operations needed by the service.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Article, int64, error)
	Search(ctx context.Context, query string) ([]Article, error)
	GetByID(ctx context.Context, id string) (*Article, error)
	Create(ctx context.Context, a *Article) error
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id string) error
	IncrementPlayCount(ctx context.Context, id string) error
	UpdateDuration(ctx context.Context, id string, seconds int, method string) error
	ListSuspiciousDurations(ctx context.Context) ([]Article, error)
	CountByDurationMethod(ctx context.Context) (map[string]int64, error)
}

// CategoryRepository defines persistence for browsing categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}

// AssetKind selects the provider pipeline for an upload.
type AssetKind string

const (
	KindAudio AssetKind = "audio"
	KindImage AssetKind = "image"
)

// Asset is a stored object at the media provider.
type Asset struct {
	URL        string
	ProviderID string
}

// Storage defines asset storage operations.
type Storage interface {
	Put(ctx context.Context, data []byte, folder string, kind AssetKind) (Asset, error)
	Delete(ctx context.Context, providerID string, kind AssetKind) error
}
