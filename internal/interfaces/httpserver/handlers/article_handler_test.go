package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/config"
	domain "audio-articles/article-api/internal/domain/article"
	"audio-articles/article-api/internal/utils/platformerrors"
)

type mockService struct {
	listFn           func(ctx context.Context, filter domain.ListFilter) ([]domain.Article, int64, error)
	searchFn         func(ctx context.Context, query string) ([]domain.Article, error)
	getFn            func(ctx context.Context, id string) (*domain.Article, error)
	createFn         func(ctx context.Context, in domain.CreateInput) (*domain.Article, error)
	updateFn         func(ctx context.Context, id string, in domain.UpdateInput) (*domain.Article, error)
	deleteFn         func(ctx context.Context, id string) error
	updateDurationFn func(ctx context.Context, id string, seconds int) (*domain.Article, error)
	fixDurationFn    func(ctx context.Context, id string) (*domain.DurationFix, error)
	realDurationFn   func(ctx context.Context, id string) (*domain.RealDurationResult, error)
	bulkFixFn        func(ctx context.Context) (*domain.BulkFixReport, error)
	durationHealthFn func(ctx context.Context) (*domain.DurationReport, error)
	listCategoriesFn func(ctx context.Context) ([]domain.Category, error)
	createCategoryFn func(ctx context.Context, name, description string) (*domain.Category, error)
	deleteCategoryFn func(ctx context.Context, id string) error
}

func (m *mockService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, int64, error) {
	return m.listFn(ctx, filter)
}
func (m *mockService) Search(ctx context.Context, query string) ([]domain.Article, error) {
	return m.searchFn(ctx, query)
}
func (m *mockService) Get(ctx context.Context, id string) (*domain.Article, error) {
	return m.getFn(ctx, id)
}
func (m *mockService) Create(ctx context.Context, in domain.CreateInput) (*domain.Article, error) {
	return m.createFn(ctx, in)
}
func (m *mockService) Update(ctx context.Context, id string, in domain.UpdateInput) (*domain.Article, error) {
	return m.updateFn(ctx, id, in)
}
func (m *mockService) Delete(ctx context.Context, id string) error { return m.deleteFn(ctx, id) }
func (m *mockService) UpdateDuration(ctx context.Context, id string, seconds int) (*domain.Article, error) {
	return m.updateDurationFn(ctx, id, seconds)
}
func (m *mockService) FixDuration(ctx context.Context, id string) (*domain.DurationFix, error) {
	return m.fixDurationFn(ctx, id)
}
func (m *mockService) RealDuration(ctx context.Context, id string) (*domain.RealDurationResult, error) {
	return m.realDurationFn(ctx, id)
}
func (m *mockService) BulkFixDurations(ctx context.Context) (*domain.BulkFixReport, error) {
	return m.bulkFixFn(ctx)
}
func (m *mockService) DurationHealth(ctx context.Context) (*domain.DurationReport, error) {
	return m.durationHealthFn(ctx)
}
func (m *mockService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return m.listCategoriesFn(ctx)
}
func (m *mockService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	return m.createCategoryFn(ctx, name, description)
}
func (m *mockService) DeleteCategory(ctx context.Context, id string) error {
	return m.deleteCategoryFn(ctx, id)
}

func newTestRouter(service ArticleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	provider := NewProvider(&config.Config{}, service, zerolog.Nop())
	engine := gin.New()

	articles := engine.Group("/api/articles")
	articles.GET("", provider.Article.List)
	articles.GET("/search", provider.Article.Search)
	articles.GET("/:id", provider.Article.Get)
	articles.GET("/:id/real-duration", provider.Duration.RealDuration)
	articles.POST("", provider.Article.Create)
	articles.PUT("/:id/duration", provider.Duration.UpdateDuration)
	articles.PUT("/:id/fix-duration", provider.Duration.FixDuration)
	articles.POST("/bulk-fix-durations", provider.Duration.BulkFix)
	return engine
}

func TestListArticles(t *testing.T) {
	service := &mockService{listFn: func(ctx context.Context, filter domain.ListFilter) ([]domain.Article, int64, error) {
		if filter.Category != "tech" {
			t.Errorf("category filter = %q, want tech", filter.Category)
		}
		if filter.Published == nil || !*filter.Published {
			t.Error("published filter not parsed")
		}
		return []domain.Article{{ID: "art_1", Title: "First", DurationSeconds: 125}}, 1, nil
	}}
	router := newTestRouter(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/articles?category=tech&published=true", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Articles []struct {
			ID                string `json:"id"`
			DurationFormatted string `json:"duration_formatted"`
		} `json:"articles"`
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 1 || len(body.Articles) != 1 {
		t.Fatalf("body = %s", w.Body.String())
	}
	if body.Articles[0].DurationFormatted != "2:05" {
		t.Errorf("duration_formatted = %q, want 2:05", body.Articles[0].DurationFormatted)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	service := &mockService{getFn: func(ctx context.Context, id string) (*domain.Article, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, "article not found", nil, "test-uuid")
	}}
	router := newTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/art_missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "test-uuid") {
		t.Errorf("error code missing from body: %s", w.Body.String())
	}
}

func TestCreateArticleMultipart(t *testing.T) {
	var gotInput domain.CreateInput
	service := &mockService{createFn: func(ctx context.Context, in domain.CreateInput) (*domain.Article, error) {
		gotInput = in
		return &domain.Article{ID: "art_new", Title: in.Title, DurationSeconds: 600, DurationMethod: "ffprobe"}, nil
	}}
	router := newTestRouter(service)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("title", "Evening Digest")
	writer.WriteField("category", "news")
	writer.WriteField("published", "true")
	writer.WriteField("duration_hint_seconds", "540")
	part, _ := writer.CreateFormFile("audio", "digest.mp3")
	part.Write([]byte("audio bytes"))
	writer.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/articles", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotInput.Title != "Evening Digest" || !gotInput.Published {
		t.Errorf("input = %+v", gotInput)
	}
	if gotInput.DurationHintSeconds != 540 {
		t.Errorf("hint = %d, want 540", gotInput.DurationHintSeconds)
	}
	if string(gotInput.Audio.Data) != "audio bytes" || gotInput.Audio.Filename != "digest.mp3" {
		t.Errorf("audio upload not forwarded: %+v", gotInput.Audio)
	}
	if gotInput.Thumbnail != nil {
		t.Error("no thumbnail was sent")
	}
}

func TestCreateArticleRequiresAudio(t *testing.T) {
	service := &mockService{createFn: func(ctx context.Context, in domain.CreateInput) (*domain.Article, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	router := newTestRouter(service)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("title", "No Audio")
	writer.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/articles", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpdateDurationEndpoint(t *testing.T) {
	service := &mockService{updateDurationFn: func(ctx context.Context, id string, seconds int) (*domain.Article, error) {
		if id != "art_1" || seconds != 777 {
			t.Errorf("called with %s/%d", id, seconds)
		}
		return &domain.Article{ID: id, DurationSeconds: seconds, DurationMethod: "manual-update"}, nil
	}}
	router := newTestRouter(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/articles/art_1/duration",
		strings.NewReader(`{"duration_seconds": 777}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"duration_method":"manual-update"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUpdateDurationRejectsMissingBody(t *testing.T) {
	router := newTestRouter(&mockService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/articles/art_1/duration", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRealDurationEndpoint(t *testing.T) {
	service := &mockService{realDurationFn: func(ctx context.Context, id string) (*domain.RealDurationResult, error) {
		return &domain.RealDurationResult{
			ArticleID:        id,
			StoredSeconds:    300,
			MeasuredSeconds:  912,
			DisplaySeconds:   912,
			StoredSuspicious: true,
			AdoptedLive:      true,
			BackfillIssued:   true,
		}, nil
	}}
	router := newTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/art_1/real-duration", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result domain.RealDurationResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.AdoptedLive || result.DisplaySeconds != 912 {
		t.Errorf("result = %+v", result)
	}
}

func TestBulkFixEndpoint(t *testing.T) {
	service := &mockService{bulkFixFn: func(ctx context.Context) (*domain.BulkFixReport, error) {
		return &domain.BulkFixReport{Scanned: 3, Fixed: 2, Failed: 1}, nil
	}}
	router := newTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/articles/bulk-fix-durations", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var report domain.BulkFixReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Scanned != 3 || report.Fixed != 2 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestSearchReportsAppliedLimit(t *testing.T) {
	service := &mockService{searchFn: func(ctx context.Context, query string) ([]domain.Article, error) {
		return []domain.Article{{ID: "art_1", Title: "Morning Digest"}}, nil
	}}
	router := newTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/search?q=digest", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Limit != domain.SearchLimit {
		t.Errorf("limit = %d, want the %d row search cap", body.Limit, domain.SearchLimit)
	}
	if body.Total != 1 {
		t.Errorf("total = %d, want 1", body.Total)
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	service := &mockService{searchFn: func(ctx context.Context, query string) ([]domain.Article, error) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "search query is required", nil, "uuid")
	}}
	router := newTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/articles/search", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
