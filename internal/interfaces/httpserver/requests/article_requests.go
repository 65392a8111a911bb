package requests

// CreateArticleForm is the multipart form for publishing an article. The
// audio file arrives as the "audio" part and the optional thumbnail as the
// "thumbnail" part.
type CreateArticleForm struct {
	Title               string `form:"title" binding:"required"`
	Description         string `form:"description"`
	Category            string `form:"category"`
	Content             string `form:"content"`
	Published           bool   `form:"published"`
	Featured            bool   `form:"featured"`
	DurationHintSeconds int    `form:"duration_hint_seconds"`
}

// UpdateArticleForm is a partial update; absent fields are untouched.
type UpdateArticleForm struct {
	Title       *string `form:"title"`
	Description *string `form:"description"`
	Category    *string `form:"category"`
	Content     *string `form:"content"`
	Published   *bool   `form:"published"`
	Featured    *bool   `form:"featured"`
}

// UpdateDurationRequest sets a manually corrected duration.
type UpdateDurationRequest struct {
	DurationSeconds int `json:"duration_seconds" binding:"required"`
}

// CreateCategoryRequest adds a browsing category.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}
