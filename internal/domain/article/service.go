package article

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/config"
	"audio-articles/article-api/internal/domain/duration"
	"audio-articles/article-api/internal/domain/playback"
	"audio-articles/article-api/internal/infrastructure/metrics"
	"audio-articles/article-api/internal/utils/articleid"
	"audio-articles/article-api/internal/utils/platformerrors"
)

var allowedAudioMIMEs = map[string]string{
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/x-m4a": "m4a",
	"audio/mp4":   "m4a",
	"video/mp4":   "m4a",
	"audio/aac":   "aac",
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
	"audio/ogg":   "ogg",
	"audio/flac":  "flac",
}

var allowedImageMIMEs = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

const (
	audioFolder     = "audio"
	thumbnailFolder = "thumbnails"

	liveProbeAttempts = 3
)

// DurationEstimator resolves a duration for uploaded audio bytes.
type DurationEstimator interface {
	Estimate(ctx context.Context, in duration.Input) duration.Result
}

// Service orchestrates article publishing, asset storage and duration
// resolution.
type Service struct {
	cfg        *config.Config
	repo       Repository
	categories CategoryRepository
	storage    Storage
	estimator  DurationEstimator
	prober     playback.Prober
	reconciler *playback.Reconciler
	log        zerolog.Logger
}

func NewService(
	cfg *config.Config,
	repo Repository,
	categories CategoryRepository,
	storage Storage,
	estimator DurationEstimator,
	prober playback.Prober,
	log zerolog.Logger,
) *Service {
	s := &Service{
		cfg:        cfg,
		repo:       repo,
		categories: categories,
		storage:    storage,
		estimator:  estimator,
		prober:     prober,
		log:        log.With().Str("component", "article-service").Logger(),
	}
	s.reconciler = playback.NewReconciler(prober, s.backfillDuration, cfg.LiveProbeRetryDelay, log)
	return s
}

// backfillDuration persists a live-measured duration. Articles deleted while
// the measurement was in flight are not an error.
func (s *Service) backfillDuration(ctx context.Context, articleID string, seconds int, method string) error {
	err := s.repo.UpdateDuration(ctx, articleID, seconds, method)
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		s.log.Debug().Str("article_id", articleID).Msg("skipping backfill for deleted article")
		return nil
	}
	return err
}

// List returns articles matching the filter plus the unpaginated total.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Article, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

// Search matches published articles against title, description and category.
func (s *Service) Search(ctx context.Context, query string) ([]Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "search query is required", nil,
			"8f2a1c54-9f41-4f7b-b0d3-62a6a1f0e9c1")
	}
	return s.repo.Search(ctx, query)
}

// Get returns one article and counts the retrieval as a play.
func (s *Service) Get(ctx context.Context, id string) (*Article, error) {
	a, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementPlayCount(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("article_id", id).Msg("failed to increment play count")
	} else {
		a.PlayCount++
	}
	return a, nil
}

// Create validates the upload, resolves a duration for the audio, stores the
// assets and persists the article. The duration is best effort and never
// blocks publication.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Article, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "title is required", nil,
			"7c03d9a2-5a2e-4a0f-8a64-1d9c7b3f5e88")
	}
	if len(in.Audio.Data) == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "audio file is required", nil,
			"3e6b8d17-42cc-4f19-9d6a-0c5e2f8a4b71")
	}
	if int64(len(in.Audio.Data)) > s.cfg.MaxAudioBytes {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("audio file exceeds max size of %d bytes", s.cfg.MaxAudioBytes), nil,
			"c1d5f7a9-88b3-4e26-9f40-7a2d6e1c3b55")
	}

	audioMIME := mimetype.Detect(in.Audio.Data).String()
	if _, ok := allowedAudioMIMEs[audioMIME]; !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unsupported audio type %s", audioMIME), nil,
			"a4e9c2d6-17f5-4b38-8c0a-5d3b9e7f1a42")
	}

	if in.Thumbnail != nil {
		if err := s.validateThumbnail(ctx, in.Thumbnail); err != nil {
			return nil, err
		}
	}

	estimated := s.estimator.Estimate(ctx, duration.Input{
		Data:        in.Audio.Data,
		MediaType:   audioMIME,
		Filename:    in.Audio.Filename,
		SizeBytes:   int64(len(in.Audio.Data)),
		HintSeconds: in.DurationHintSeconds,
	})

	audioAsset, err := s.storage.Put(ctx, in.Audio.Data, audioFolder, KindAudio)
	if err != nil {
		metrics.RecordUpload(string(KindAudio), "failure", 0)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeExternal, "failed to store audio", err,
			"f8b2e4d0-63a7-4c15-b9f6-2e8d0a4c6f93")
	}
	metrics.RecordUpload(string(KindAudio), "success", int64(len(in.Audio.Data)))

	a := &Article{
		ID:              articleid.New(),
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Category:        strings.TrimSpace(in.Category),
		Content:         in.Content,
		DurationSeconds: estimated.Seconds,
		DurationMethod:  estimated.Method,
		AudioURL:        audioAsset.URL,
		AudioProviderID: audioAsset.ProviderID,
		Published:       in.Published,
		Featured:        in.Featured,
	}

	if in.Thumbnail != nil {
		thumbAsset, err := s.storage.Put(ctx, in.Thumbnail.Data, thumbnailFolder, KindImage)
		if err != nil {
			metrics.RecordUpload(string(KindImage), "failure", 0)
			s.removeAsset(audioAsset.ProviderID, KindAudio)
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeExternal, "failed to store thumbnail", err,
				"0d7a3f5c-91e8-4b62-a4d0-6c2f8b1e9a37")
		}
		metrics.RecordUpload(string(KindImage), "success", int64(len(in.Thumbnail.Data)))
		a.ThumbnailURL = thumbAsset.URL
		a.ThumbnailProviderID = thumbAsset.ProviderID
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.removeAsset(a.AudioProviderID, KindAudio)
		s.removeAsset(a.ThumbnailProviderID, KindImage)
		return nil, err
	}

	s.log.Info().
		Str("article_id", a.ID).
		Str("duration_method", a.DurationMethod).
		Int("duration_seconds", a.DurationSeconds).
		Msg("article created")
	return a, nil
}

// Update applies a partial update and optionally replaces the thumbnail. The
// audio asset and its duration are immutable here; duration changes go
// through the dedicated duration operations.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Article, error) {
	a, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeValidation, "title cannot be empty", nil,
				"5b9e1d3a-70c4-4f82-b6e9-3a8c5d0f7b24")
		}
		a.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		a.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		a.Category = strings.TrimSpace(*in.Category)
	}
	if in.Content != nil {
		a.Content = *in.Content
	}
	if in.Published != nil {
		a.Published = *in.Published
	}
	if in.Featured != nil {
		a.Featured = *in.Featured
	}

	oldThumbID := ""
	if in.Thumbnail != nil {
		if err := s.validateThumbnail(ctx, in.Thumbnail); err != nil {
			return nil, err
		}
		thumbAsset, err := s.storage.Put(ctx, in.Thumbnail.Data, thumbnailFolder, KindImage)
		if err != nil {
			metrics.RecordUpload(string(KindImage), "failure", 0)
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
				platformerrors.ErrorTypeExternal, "failed to store thumbnail", err,
				"e2c8a6f4-35d9-4107-9b8e-7f1a3c5d9e60")
		}
		metrics.RecordUpload(string(KindImage), "success", int64(len(in.Thumbnail.Data)))
		oldThumbID = a.ThumbnailProviderID
		a.ThumbnailURL = thumbAsset.URL
		a.ThumbnailProviderID = thumbAsset.ProviderID
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	// The old thumbnail is orphaned only after the record points at the new
	// one.
	s.removeAsset(oldThumbID, KindImage)
	return a, nil
}

// Delete removes the article record and its stored assets. Asset deletions
// are independent and best effort: a provider failure never strands the
// record.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.getExisting(ctx, id)
	if err != nil {
		return err
	}

	s.removeAsset(a.AudioProviderID, KindAudio)
	s.removeAsset(a.ThumbnailProviderID, KindImage)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("article_id", id).Msg("article deleted")
	return nil
}

// UpdateDuration sets a manually corrected duration.
func (s *Service) UpdateDuration(ctx context.Context, id string, seconds int) (*Article, error) {
	if seconds <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "duration must be a positive number of seconds", nil,
			"92d4b7e1-0c6f-4a53-8e2b-d5f9a1c3e786")
	}
	a, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDuration(ctx, id, seconds, duration.MethodManual); err != nil {
		return nil, err
	}
	a.DurationSeconds = seconds
	a.DurationMethod = duration.MethodManual
	return a, nil
}

// FixDuration measures the stored audio and overwrites the stored duration
// with the result.
func (s *Service) FixDuration(ctx context.Context, id string) (*DurationFix, error) {
	a, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	fix := &DurationFix{ArticleID: a.ID, Title: a.Title, OldSeconds: a.DurationSeconds}

	measured, err := playback.MeasureAsset(ctx, s.prober, a.AudioURL, liveProbeAttempts, s.cfg.LiveProbeRetryDelay)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeExternal, "failed to measure audio duration", err,
			"b6f0d2a8-4e17-4c93-a5b1-8d3e6f0c2a49")
	}

	seconds := int(math.Round(measured))
	if err := s.repo.UpdateDuration(ctx, id, seconds, duration.MethodLive); err != nil {
		return nil, err
	}
	fix.NewSeconds = seconds
	fix.Status = "fixed"
	s.log.Info().
		Str("article_id", id).
		Int("old_seconds", fix.OldSeconds).
		Int("new_seconds", seconds).
		Msg("duration fixed from live measurement")
	return fix, nil
}

// RealDuration reconciles the stored duration against a fresh measurement of
// the delivered audio. An untrustworthy or badly drifted stored value is
// corrected in the background; the response always carries the best value
// known right now.
func (s *Service) RealDuration(ctx context.Context, id string) (*RealDurationResult, error) {
	a, err := s.getExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome := s.reconciler.Load(ctx, a.ID, a.AudioURL, a.DurationSeconds)
	result := &RealDurationResult{
		ArticleID:        a.ID,
		StoredSeconds:    a.DurationSeconds,
		StoredMethod:     a.DurationMethod,
		MeasuredSeconds:  outcome.LiveSeconds,
		DisplaySeconds:   outcome.DisplaySeconds,
		StoredSuspicious: duration.IsSuspicious(a.DurationSeconds),
		AdoptedLive:      outcome.AdoptedLive,
		BackfillIssued:   outcome.BackfillIssued,
	}
	if outcome.Err != nil {
		result.MeasureError = outcome.Err.Error()
	}
	return result, nil
}

// BulkFixDurations sweeps every article whose stored duration is
// untrustworthy, measures the real duration and repairs the record. Articles
// are processed sequentially; a failed measurement leaves the stored value
// untouched.
func (s *Service) BulkFixDurations(ctx context.Context) (*BulkFixReport, error) {
	suspects, err := s.repo.ListSuspiciousDurations(ctx)
	if err != nil {
		return nil, err
	}

	report := &BulkFixReport{Scanned: len(suspects)}
	for i := range suspects {
		a := &suspects[i]
		fix := DurationFix{ArticleID: a.ID, Title: a.Title, OldSeconds: a.DurationSeconds}

		if strings.TrimSpace(a.AudioURL) == "" {
			fix.Status = "failed"
			fix.Error = "article has no audio url"
			report.Failed++
			report.Results = append(report.Results, fix)
			continue
		}

		measured, err := playback.MeasureAsset(ctx, s.prober, a.AudioURL, liveProbeAttempts, s.cfg.LiveProbeRetryDelay)
		if err != nil {
			fix.Status = "failed"
			fix.Error = err.Error()
			report.Failed++
			report.Results = append(report.Results, fix)
			s.log.Warn().Err(err).Str("article_id", a.ID).Msg("bulk fix measurement failed")
			continue
		}

		seconds := int(math.Round(measured))
		if err := s.repo.UpdateDuration(ctx, a.ID, seconds, duration.MethodBulkFix); err != nil {
			fix.Status = "failed"
			fix.Error = err.Error()
			report.Failed++
			report.Results = append(report.Results, fix)
			continue
		}

		fix.NewSeconds = seconds
		fix.Status = "fixed"
		report.Fixed++
		report.Results = append(report.Results, fix)
	}

	s.log.Info().
		Int("scanned", report.Scanned).
		Int("fixed", report.Fixed).
		Int("failed", report.Failed).
		Msg("bulk duration repair finished")
	return report, nil
}

// DurationHealth reports duration provenance across the catalog.
func (s *Service) DurationHealth(ctx context.Context) (*DurationReport, error) {
	byMethod, err := s.repo.CountByDurationMethod(ctx)
	if err != nil {
		return nil, err
	}
	suspects, err := s.repo.ListSuspiciousDurations(ctx)
	if err != nil {
		return nil, err
	}

	report := &DurationReport{
		ByMethod:        byMethod,
		SuspiciousCount: len(suspects),
	}
	for _, count := range byMethod {
		report.Total += count
	}
	for _, a := range suspects {
		report.Entries = append(report.Entries, DurationReportEntry{
			ArticleID:  a.ID,
			Title:      a.Title,
			Seconds:    a.DurationSeconds,
			Formatted:  duration.FormatClock(a.DurationSeconds),
			Method:     a.DurationMethod,
			Suspicious: true,
		})
	}
	return report, nil
}

// ListCategories returns all browsing categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.categories.List(ctx)
}

// CreateCategory adds a browsing category, deriving the slug from the name.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "category name is required", nil,
			"d3a7c1f9-62e5-4b08-9a4d-0f6b8e2c5a13")
	}
	c := &Category{
		ID:          articleid.New(),
		Name:        name,
		Slug:        slugify(name),
		Description: strings.TrimSpace(description),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes a browsing category. Articles keep their category
// string; it simply stops being offered as a facet.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if !articleid.IsValid(id) {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "invalid category id", nil,
			"e0c2a4f6-8b1d-4357-a9e0-c2a4f6d8b130")
	}
	return s.categories.Delete(ctx, id)
}

func (s *Service) getExisting(ctx context.Context, id string) (*Article, error) {
	if !articleid.IsValid(id) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "invalid article id", nil,
			"6e4b2d80-9f3a-4c71-85d6-b1a9e7f3c025")
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeNotFound, fmt.Sprintf("article %s not found", id), nil,
			"1a8f5c3e-27d0-4b69-9e42-c6d8a0b4f517")
	}
	return a, nil
}

func (s *Service) validateThumbnail(ctx context.Context, f *UploadFile) error {
	if len(f.Data) == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "thumbnail file is empty", nil,
			"4c6e8a20-d1b3-4f75-a9c8-2e5d7f091b64")
	}
	if int64(len(f.Data)) > s.cfg.MaxThumbnailBytes {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("thumbnail exceeds max size of %d bytes", s.cfg.MaxThumbnailBytes), nil,
			"9b1d3f57-8a42-4e06-bc9d-5f7a2c4e6d80")
	}
	mime := mimetype.Detect(f.Data).String()
	if _, ok := allowedImageMIMEs[mime]; !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unsupported thumbnail type %s", mime), nil,
			"73f5a9c1-e680-4d24-8b7f-a0c2d4e6f819")
	}
	return nil
}

// removeAsset deletes a provider asset, logging failures instead of
// propagating them.
func (s *Service) removeAsset(providerID string, kind AssetKind) {
	if providerID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, providerID, kind); err != nil {
		s.log.Error().Err(err).
			Str("provider_id", providerID).
			Str("kind", string(kind)).
			Msg("failed to delete stored asset")
	}
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := false
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
