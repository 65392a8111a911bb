package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/config"
	domain "audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/interfaces/httpserver/requests"
	"audio-articles/article-api/internal/interfaces/httpserver/responses"
)

// ArticleHandler exposes article CRUD and catalog endpoints.
type ArticleHandler struct {
	cfg     *config.Config
	service ArticleService
	log     zerolog.Logger
}

func NewArticleHandler(cfg *config.Config, service ArticleService, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "article-handler").Logger(),
	}
}

// List godoc
// @Summary      List articles
// @Description  Returns articles newest first, optionally filtered by category, published or featured state.
// @Tags         articles
// @Produce      json
// @Param        category   query  string  false  "Category filter"
// @Param        published  query  bool    false  "Published filter"
// @Param        featured   query  bool    false  "Featured filter"
// @Param        limit      query  int     false  "Page size (max 100)"
// @Param        offset     query  int     false  "Page offset"
// @Success      200  {object}  responses.ArticleListResponse
// @Router       /api/articles [get]
func (h *ArticleHandler) List(c *gin.Context) {
	filter := domain.ListFilter{
		Category: c.Query("category"),
	}
	if v, ok := parseBoolQuery(c, "published"); ok {
		filter.Published = &v
	}
	if v, ok := parseBoolQuery(c, "featured"); ok {
		filter.Featured = &v
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	articles, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		responses.HandleError(c, err, "failed to list articles")
		return
	}
	c.JSON(http.StatusOK, responses.NewArticleListResponse(articles, total, filter.Limit, filter.Offset))
}

// Search godoc
// @Summary      Search articles
// @Description  Matches published articles against title, description and category.
// @Tags         articles
// @Produce      json
// @Param        q  query  string  true  "Search query"
// @Success      200  {object}  responses.ArticleListResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Router       /api/articles/search [get]
func (h *ArticleHandler) Search(c *gin.Context) {
	articles, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		responses.HandleError(c, err, "search failed")
		return
	}
	c.JSON(http.StatusOK, responses.NewArticleListResponse(articles, int64(len(articles)), domain.SearchLimit, 0))
}

// Get godoc
// @Summary      Get one article
// @Description  Returns a single article and counts the retrieval as a play.
// @Tags         articles
// @Produce      json
// @Param        id  path  string  true  "Article ID"
// @Success      200  {object}  responses.ArticleResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /api/articles/{id} [get]
func (h *ArticleHandler) Get(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get article")
		return
	}
	c.JSON(http.StatusOK, responses.NewArticleResponse(a))
}

// Create godoc
// @Summary      Publish an article
// @Description  Accepts a multipart form with the audio file, optional thumbnail and article fields. The audio duration is resolved server side.
// @Tags         articles
// @Accept       multipart/form-data
// @Produce      json
// @Param        title      formData  string  true   "Title"
// @Param        audio      formData  file    true   "Audio file"
// @Param        thumbnail  formData  file    false  "Thumbnail image"
// @Success      201  {object}  responses.ArticleResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /api/articles [post]
func (h *ArticleHandler) Create(c *gin.Context) {
	var form requests.CreateArticleForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	audio, err := readFormFile(c, "audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	thumbnail, _ := readFormFile(c, "thumbnail")

	in := domain.CreateInput{
		Title:               form.Title,
		Description:         form.Description,
		Category:            form.Category,
		Content:             form.Content,
		Published:           form.Published,
		Featured:            form.Featured,
		DurationHintSeconds: form.DurationHintSeconds,
		Audio:               *audio,
		Thumbnail:           thumbnail,
	}

	a, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		responses.HandleError(c, err, "failed to create article")
		return
	}
	c.JSON(http.StatusCreated, responses.NewArticleResponse(a))
}

// Update godoc
// @Summary      Update an article
// @Description  Applies a partial update; a new thumbnail replaces the old one.
// @Tags         articles
// @Accept       multipart/form-data
// @Produce      json
// @Param        id  path  string  true  "Article ID"
// @Success      200  {object}  responses.ArticleResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /api/articles/{id} [put]
func (h *ArticleHandler) Update(c *gin.Context) {
	var form requests.UpdateArticleForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	thumbnail, _ := readFormFile(c, "thumbnail")

	in := domain.UpdateInput{
		Title:       form.Title,
		Description: form.Description,
		Category:    form.Category,
		Content:     form.Content,
		Published:   form.Published,
		Featured:    form.Featured,
		Thumbnail:   thumbnail,
	}

	a, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		responses.HandleError(c, err, "failed to update article")
		return
	}
	c.JSON(http.StatusOK, responses.NewArticleResponse(a))
}

// Delete godoc
// @Summary      Delete an article
// @Description  Removes the article record and its stored assets.
// @Tags         articles
// @Produce      json
// @Param        id  path  string  true  "Article ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /api/articles/{id} [delete]
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to delete article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListCategories godoc
// @Summary      List categories
// @Tags         categories
// @Produce      json
// @Success      200  {array}  responses.CategoryResponse
// @Router       /api/categories [get]
func (h *ArticleHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list categories")
		return
	}
	out := make([]responses.CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, responses.NewCategoryResponse(&categories[i]))
	}
	c.JSON(http.StatusOK, out)
}

// CreateCategory godoc
// @Summary      Create a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        request  body  requests.CreateCategoryRequest  true  "Category"
// @Success      201  {object}  responses.CategoryResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /api/categories [post]
func (h *ArticleHandler) CreateCategory(c *gin.Context) {
	var req requests.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		responses.HandleError(c, err, "failed to create category")
		return
	}
	c.JSON(http.StatusCreated, responses.NewCategoryResponse(category))
}

// DeleteCategory godoc
// @Summary      Delete a category
// @Tags         categories
// @Produce      json
// @Param        id  path  string  true  "Category ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /api/categories/{id} [delete]
func (h *ArticleHandler) DeleteCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		responses.HandleError(c, err, "failed to delete category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func parseBoolQuery(c *gin.Context, name string) (bool, bool) {
	raw, exists := c.GetQuery(name)
	if !exists {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func readFormFile(c *gin.Context, field string) (*domain.UploadFile, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	return loadUpload(fileHeader)
}

func loadUpload(fh *multipart.FileHeader) (*domain.UploadFile, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &domain.UploadFile{
		Data:      data,
		Filename:  fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
	}, nil
}
