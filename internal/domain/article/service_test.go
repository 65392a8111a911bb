package article

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/config"
	"audio-articles/article-api/internal/domain/duration"
	"audio-articles/article-api/internal/utils/articleid"
	"audio-articles/article-api/internal/utils/platformerrors"
)

// mp3Bytes carries an ID3v2 header so content sniffing sees audio/mpeg.
var mp3Bytes = append([]byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0}, make([]byte, 64)...)

// pngBytes carries the PNG signature.
var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 32)...)

type mockRepo struct {
	mu                      sync.Mutex
	listFn                  func(ctx context.Context, filter ListFilter) ([]Article, int64, error)
	searchFn                func(ctx context.Context, query string) ([]Article, error)
	getByIDFn               func(ctx context.Context, id string) (*Article, error)
	createFn                func(ctx context.Context, a *Article) error
	updateFn                func(ctx context.Context, a *Article) error
	deleteFn                func(ctx context.Context, id string) error
	incrementPlayCountFn    func(ctx context.Context, id string) error
	updateDurationFn        func(ctx context.Context, id string, seconds int, method string) error
	listSuspiciousFn        func(ctx context.Context) ([]Article, error)
	countByDurationMethodFn func(ctx context.Context) (map[string]int64, error)
}

func (m *mockRepo) List(ctx context.Context, filter ListFilter) ([]Article, int64, error) {
	return m.listFn(ctx, filter)
}
func (m *mockRepo) Search(ctx context.Context, query string) ([]Article, error) {
	return m.searchFn(ctx, query)
}
func (m *mockRepo) GetByID(ctx context.Context, id string) (*Article, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockRepo) Create(ctx context.Context, a *Article) error { return m.createFn(ctx, a) }
func (m *mockRepo) Update(ctx context.Context, a *Article) error { return m.updateFn(ctx, a) }
func (m *mockRepo) Delete(ctx context.Context, id string) error  { return m.deleteFn(ctx, id) }
func (m *mockRepo) IncrementPlayCount(ctx context.Context, id string) error {
	return m.incrementPlayCountFn(ctx, id)
}
func (m *mockRepo) UpdateDuration(ctx context.Context, id string, seconds int, method string) error {
	return m.updateDurationFn(ctx, id, seconds, method)
}
func (m *mockRepo) ListSuspiciousDurations(ctx context.Context) ([]Article, error) {
	return m.listSuspiciousFn(ctx)
}
func (m *mockRepo) CountByDurationMethod(ctx context.Context) (map[string]int64, error) {
	return m.countByDurationMethodFn(ctx)
}

type mockCategoryRepo struct {
	listFn   func(ctx context.Context) ([]Category, error)
	createFn func(ctx context.Context, c *Category) error
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]Category, error) { return m.listFn(ctx) }
func (m *mockCategoryRepo) Create(ctx context.Context, c *Category) error {
	return m.createFn(ctx, c)
}
func (m *mockCategoryRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

type putCall struct {
	folder string
	kind   AssetKind
	bytes  int
}

type deleteCall struct {
	providerID string
	kind       AssetKind
}

type mockStorage struct {
	mu      sync.Mutex
	puts    []putCall
	deletes []deleteCall
	putFn   func(ctx context.Context, data []byte, folder string, kind AssetKind) (Asset, error)
}

func (m *mockStorage) Put(ctx context.Context, data []byte, folder string, kind AssetKind) (Asset, error) {
	m.mu.Lock()
	m.puts = append(m.puts, putCall{folder, kind, len(data)})
	m.mu.Unlock()
	if m.putFn != nil {
		return m.putFn(ctx, data, folder, kind)
	}
	return Asset{URL: "https://cdn.example.com/" + folder + "/asset", ProviderID: folder + "/asset"}, nil
}

func (m *mockStorage) Delete(ctx context.Context, providerID string, kind AssetKind) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, deleteCall{providerID, kind})
	m.mu.Unlock()
	return nil
}

type mockEstimator struct {
	result duration.Result
}

func (m *mockEstimator) Estimate(ctx context.Context, in duration.Input) duration.Result {
	return m.result
}

type mockProber struct {
	measureFn func(ctx context.Context, url string) (float64, error)
}

func (m *mockProber) Measure(ctx context.Context, url string) (float64, error) {
	return m.measureFn(ctx, url)
}

func testConfig() *config.Config {
	return &config.Config{
		MaxAudioBytes:       10 * 1024 * 1024,
		MaxThumbnailBytes:   1024 * 1024,
		LiveProbeRetryDelay: time.Millisecond,
	}
}

func newTestService(repo *mockRepo, storage *mockStorage, est *mockEstimator, prober *mockProber) *Service {
	if est == nil {
		est = &mockEstimator{result: duration.Result{Seconds: 100, Method: duration.MethodFFProbe}}
	}
	if prober == nil {
		prober = &mockProber{measureFn: func(ctx context.Context, url string) (float64, error) {
			return 0, errors.New("prober not configured")
		}}
	}
	return NewService(testConfig(), repo, &mockCategoryRepo{}, storage, est, prober, zerolog.Nop())
}

func TestCreatePersistsEstimatedDuration(t *testing.T) {
	var created *Article
	repo := &mockRepo{createFn: func(ctx context.Context, a *Article) error {
		created = a
		return nil
	}}
	storage := &mockStorage{}
	est := &mockEstimator{result: duration.Result{Seconds: 847, Method: duration.MethodFrameScan}}
	svc := newTestService(repo, storage, est, nil)

	got, err := svc.Create(context.Background(), CreateInput{
		Title: "Morning Brief",
		Audio: UploadFile{Data: mp3Bytes, Filename: "brief.mp3"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created == nil {
		t.Fatal("article was not persisted")
	}
	if got.DurationSeconds != 847 || got.DurationMethod != duration.MethodFrameScan {
		t.Errorf("duration = %d/%q, want 847/%q", got.DurationSeconds, got.DurationMethod, duration.MethodFrameScan)
	}
	if !articleid.IsValid(got.ID) {
		t.Errorf("invalid article id %q", got.ID)
	}
	if got.AudioURL == "" || got.AudioProviderID == "" {
		t.Errorf("audio asset not recorded: %+v", got)
	}
	if len(storage.puts) != 1 || storage.puts[0].folder != audioFolder || storage.puts[0].kind != KindAudio {
		t.Errorf("unexpected storage puts: %+v", storage.puts)
	}
}

func TestCreateUploadsThumbnail(t *testing.T) {
	repo := &mockRepo{createFn: func(ctx context.Context, a *Article) error { return nil }}
	storage := &mockStorage{}
	svc := newTestService(repo, storage, nil, nil)

	got, err := svc.Create(context.Background(), CreateInput{
		Title:     "With Art",
		Audio:     UploadFile{Data: mp3Bytes, Filename: "a.mp3"},
		Thumbnail: &UploadFile{Data: pngBytes, Filename: "cover.png"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ThumbnailURL == "" {
		t.Error("thumbnail URL not recorded")
	}
	if len(storage.puts) != 2 || storage.puts[1].folder != thumbnailFolder {
		t.Errorf("unexpected storage puts: %+v", storage.puts)
	}
}

func TestCreateCleansUpAudioWhenThumbnailUploadFails(t *testing.T) {
	repo := &mockRepo{createFn: func(ctx context.Context, a *Article) error {
		t.Fatal("article must not be persisted")
		return nil
	}}
	storage := &mockStorage{}
	storage.putFn = func(ctx context.Context, data []byte, folder string, kind AssetKind) (Asset, error) {
		if kind == KindImage {
			return Asset{}, errors.New("provider unavailable")
		}
		return Asset{URL: "https://cdn.example.com/audio/a", ProviderID: "audio/a"}, nil
	}
	svc := newTestService(repo, storage, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{
		Title:     "Doomed",
		Audio:     UploadFile{Data: mp3Bytes, Filename: "a.mp3"},
		Thumbnail: &UploadFile{Data: pngBytes, Filename: "cover.png"},
	})
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeExternal) {
		t.Fatalf("err = %v, want external error", err)
	}
	if len(storage.deletes) != 1 || storage.deletes[0].providerID != "audio/a" {
		t.Errorf("orphaned audio was not deleted: %+v", storage.deletes)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockStorage{}, nil, nil)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing title", CreateInput{Audio: UploadFile{Data: mp3Bytes}}},
		{"missing audio", CreateInput{Title: "t"}},
		{"oversize audio", CreateInput{Title: "t", Audio: UploadFile{Data: make([]byte, 11*1024*1024)}}},
		{"not audio", CreateInput{Title: "t", Audio: UploadFile{Data: []byte("plain text, not a recording")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestGetIncrementsPlayCount(t *testing.T) {
	id := articleid.New()
	incremented := false
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, got string) (*Article, error) {
			return &Article{ID: got, Title: "t", PlayCount: 4}, nil
		},
		incrementPlayCountFn: func(ctx context.Context, got string) error {
			incremented = got == id
			return nil
		},
	}
	svc := newTestService(repo, &mockStorage{}, nil, nil)

	a, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !incremented {
		t.Error("play count was not incremented")
	}
	if a.PlayCount != 5 {
		t.Errorf("PlayCount = %d, want 5", a.PlayCount)
	}
}

func TestGetUnknownArticle(t *testing.T) {
	repo := &mockRepo{getByIDFn: func(ctx context.Context, id string) (*Article, error) {
		return nil, nil
	}}
	svc := newTestService(repo, &mockStorage{}, nil, nil)

	_, err := svc.Get(context.Background(), articleid.New())
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("err = %v, want not found", err)
	}

	_, err = svc.Get(context.Background(), "not-an-id")
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("err = %v, want validation error for malformed id", err)
	}
}

func TestUpdateDuration(t *testing.T) {
	id := articleid.New()
	var gotSeconds int
	var gotMethod string
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, _ string) (*Article, error) {
			return &Article{ID: id, DurationSeconds: 300, DurationMethod: duration.MethodFallback}, nil
		},
		updateDurationFn: func(ctx context.Context, _ string, seconds int, method string) error {
			gotSeconds, gotMethod = seconds, method
			return nil
		},
	}
	svc := newTestService(repo, &mockStorage{}, nil, nil)

	a, err := svc.UpdateDuration(context.Background(), id, 1234)
	if err != nil {
		t.Fatalf("UpdateDuration: %v", err)
	}
	if gotSeconds != 1234 || gotMethod != duration.MethodManual {
		t.Errorf("persisted %d/%q, want 1234/%q", gotSeconds, gotMethod, duration.MethodManual)
	}
	if a.DurationSeconds != 1234 || a.DurationMethod != duration.MethodManual {
		t.Errorf("returned %d/%q", a.DurationSeconds, a.DurationMethod)
	}

	if _, err := svc.UpdateDuration(context.Background(), id, 0); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("zero seconds: err = %v, want validation error", err)
	}
}

func TestFixDurationMeasuresAndPersists(t *testing.T) {
	id := articleid.New()
	var gotMethod string
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, _ string) (*Article, error) {
			return &Article{ID: id, Title: "t", DurationSeconds: 480, AudioURL: "https://cdn.example.com/a.mp3"}, nil
		},
		updateDurationFn: func(ctx context.Context, _ string, seconds int, method string) error {
			gotMethod = method
			return nil
		},
	}
	prober := &mockProber{measureFn: func(ctx context.Context, url string) (float64, error) {
		return 742.4, nil
	}}
	svc := newTestService(repo, &mockStorage{}, nil, prober)

	fix, err := svc.FixDuration(context.Background(), id)
	if err != nil {
		t.Fatalf("FixDuration: %v", err)
	}
	if fix.OldSeconds != 480 || fix.NewSeconds != 742 {
		t.Errorf("fix = %+v, want old 480 new 742", fix)
	}
	if gotMethod != duration.MethodLive {
		t.Errorf("method = %q, want %q", gotMethod, duration.MethodLive)
	}
}

func TestRealDurationAdoptsLiveAndBackfills(t *testing.T) {
	id := articleid.New()
	backfilled := make(chan int, 1)
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, _ string) (*Article, error) {
			return &Article{ID: id, DurationSeconds: 300, DurationMethod: duration.MethodFallback, AudioURL: "https://cdn.example.com/a.mp3"}, nil
		},
		updateDurationFn: func(ctx context.Context, _ string, seconds int, method string) error {
			if method != duration.MethodLive {
				t.Errorf("backfill method = %q, want %q", method, duration.MethodLive)
			}
			backfilled <- seconds
			return nil
		},
	}
	prober := &mockProber{measureFn: func(ctx context.Context, url string) (float64, error) {
		return 912, nil
	}}
	svc := newTestService(repo, &mockStorage{}, nil, prober)

	got, err := svc.RealDuration(context.Background(), id)
	if err != nil {
		t.Fatalf("RealDuration: %v", err)
	}
	if !got.StoredSuspicious || !got.AdoptedLive || got.DisplaySeconds != 912 {
		t.Errorf("result = %+v", got)
	}
	select {
	case seconds := <-backfilled:
		if seconds != 912 {
			t.Errorf("backfilled %d, want 912", seconds)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("backfill never ran")
	}
}

func TestRealDurationKeepsStoredOnFailure(t *testing.T) {
	id := articleid.New()
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, _ string) (*Article, error) {
			return &Article{ID: id, DurationSeconds: 650, DurationMethod: duration.MethodFFProbe, AudioURL: "https://cdn.example.com/a.mp3"}, nil
		},
	}
	prober := &mockProber{measureFn: func(ctx context.Context, url string) (float64, error) {
		return 0, errors.New("timeout")
	}}
	svc := newTestService(repo, &mockStorage{}, nil, prober)

	got, err := svc.RealDuration(context.Background(), id)
	if err != nil {
		t.Fatalf("RealDuration: %v", err)
	}
	if got.DisplaySeconds != 650 || got.AdoptedLive || got.BackfillIssued {
		t.Errorf("result = %+v, want stored value kept", got)
	}
	if got.MeasureError == "" {
		t.Error("measure error not surfaced")
	}
}

func TestBulkFixDurations(t *testing.T) {
	good := articleid.New()
	bad := articleid.New()
	updates := map[string]int{}
	var mu sync.Mutex
	repo := &mockRepo{
		listSuspiciousFn: func(ctx context.Context) ([]Article, error) {
			return []Article{
				{ID: good, Title: "good", DurationSeconds: 300, AudioURL: "https://cdn.example.com/good.mp3"},
				{ID: bad, Title: "bad", DurationSeconds: 480, AudioURL: "https://cdn.example.com/bad.mp3"},
			}, nil
		},
		updateDurationFn: func(ctx context.Context, id string, seconds int, method string) error {
			if method != duration.MethodBulkFix {
				t.Errorf("method = %q, want %q", method, duration.MethodBulkFix)
			}
			mu.Lock()
			updates[id] = seconds
			mu.Unlock()
			return nil
		},
	}
	prober := &mockProber{measureFn: func(ctx context.Context, url string) (float64, error) {
		if url == "https://cdn.example.com/good.mp3" {
			return 555, nil
		}
		return 0, errors.New("stream unreadable")
	}}
	svc := newTestService(repo, &mockStorage{}, nil, prober)

	report, err := svc.BulkFixDurations(context.Background())
	if err != nil {
		t.Fatalf("BulkFixDurations: %v", err)
	}
	if report.Scanned != 2 || report.Fixed != 1 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if updates[good] != 555 {
		t.Errorf("good article updated to %d, want 555", updates[good])
	}
	if _, ok := updates[bad]; ok {
		t.Error("failed measurement must not write a duration")
	}
}

func TestDeleteRemovesAssetsAndRecord(t *testing.T) {
	id := articleid.New()
	deleted := false
	repo := &mockRepo{
		getByIDFn: func(ctx context.Context, _ string) (*Article, error) {
			return &Article{ID: id, AudioProviderID: "audio/a", ThumbnailProviderID: "thumbnails/t"}, nil
		},
		deleteFn: func(ctx context.Context, _ string) error {
			deleted = true
			return nil
		},
	}
	storage := &mockStorage{}
	svc := newTestService(repo, storage, nil, nil)

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Error("record was not deleted")
	}
	if len(storage.deletes) != 2 {
		t.Fatalf("deletes = %+v, want audio and thumbnail", storage.deletes)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	svc := newTestService(&mockRepo{}, &mockStorage{}, nil, nil)
	if _, err := svc.Search(context.Background(), "   "); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestDurationHealth(t *testing.T) {
	repo := &mockRepo{
		countByDurationMethodFn: func(ctx context.Context) (map[string]int64, error) {
			return map[string]int64{duration.MethodFFProbe: 8, duration.MethodFallback: 2}, nil
		},
		listSuspiciousFn: func(ctx context.Context) ([]Article, error) {
			return []Article{{ID: articleid.New(), Title: "s", DurationSeconds: 300, DurationMethod: duration.MethodFallback}}, nil
		},
	}
	svc := newTestService(repo, &mockStorage{}, nil, nil)

	report, err := svc.DurationHealth(context.Background())
	if err != nil {
		t.Fatalf("DurationHealth: %v", err)
	}
	if report.Total != 10 || report.SuspiciousCount != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Entries) != 1 || report.Entries[0].Formatted != "5:00" {
		t.Errorf("entries = %+v", report.Entries)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Tech News", "tech-news"},
		{"  Deep  Dives!  ", "deep-dives"},
		{"Already-Slugged", "already-slugged"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
