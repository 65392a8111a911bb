package duration

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/infrastructure/metrics"
	"audio-articles/article-api/internal/media/ffprobe"
)

// Input carries everything known about a freshly uploaded audio buffer.
type Input struct {
	Data        []byte
	MediaType   string // declared MIME type, e.g. audio/mpeg
	Filename    string
	SizeBytes   int64
	HintSeconds int // optional client-supplied duration, final fallback only
}

// Result is the outcome of estimation: a positive whole-second duration and
// the tag of the strategy that produced it.
type Result struct {
	Seconds int
	Method  string
}

// Estimator resolves a best-effort duration for raw audio bytes by running a
// fixed chain of fallible strategies. Estimate never returns an error: any
// internal failure degrades to the next strategy, and total failure degrades
// to the client hint or the fixed default.
type Estimator struct {
	binary       string
	probeTimeout time.Duration
	tempDir      string
	log          zerolog.Logger
}

// NewEstimator builds an estimator that probes with the given ffprobe binary
// and stages temp files under tempDir.
func NewEstimator(binary string, probeTimeout time.Duration, tempDir string, log zerolog.Logger) *Estimator {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if probeTimeout <= 0 {
		probeTimeout = 30 * time.Second
	}
	if strings.TrimSpace(tempDir) == "" {
		tempDir = filepath.Join(os.TempDir(), "article-uploads")
	}
	return &Estimator{
		binary:       binary,
		probeTimeout: probeTimeout,
		tempDir:      tempDir,
		log:          log.With().Str("component", "duration-estimator").Logger(),
	}
}

// TempDir returns the directory where probe temp files are staged.
func (e *Estimator) TempDir() string {
	return e.tempDir
}

// Estimate runs the strategy chain and post-processes the result. The
// returned seconds are always positive and the method tag is never empty.
func (e *Estimator) Estimate(ctx context.Context, in Input) Result {
	seconds, method, err := e.run(ctx, in)
	if err != nil {
		// Outer failure: even the temp file could not be staged. Fall back to
		// the client hint, or the fixed default when no hint was supplied.
		seconds = float64(in.HintSeconds)
		if seconds <= 0 {
			seconds = DefaultSeconds
		}
		method = MethodFallback
		metrics.RecordEstimation(MethodFallback, "used")
		e.log.Warn().Err(err).
			Str("filename", in.Filename).
			Int("seconds", int(seconds)).
			Msg("all duration strategies unavailable, using fallback")
	}

	rounded := int(math.Round(seconds))
	if math.IsNaN(seconds) || rounded <= 0 {
		rounded = DefaultSeconds
		method = MethodDefault
		metrics.RecordEstimation(MethodDefault, "used")
		e.log.Warn().
			Str("filename", in.Filename).
			Msg("estimated duration invalid, using default")
	}

	e.log.Info().
		Str("filename", in.Filename).
		Str("method", method).
		Int("seconds", rounded).
		Str("formatted", FormatClock(rounded)).
		Msg("resolved audio duration")
	return Result{Seconds: rounded, Method: method}
}

type strategy struct {
	name  string
	probe func() (float64, error)
}

// run stages the bytes on disk, walks the fallible strategies in priority
// order and finishes with size estimation, which cannot fail. The temp file
// is removed on every exit path.
func (e *Estimator) run(ctx context.Context, in Input) (float64, string, error) {
	tempPath, cleanup, err := e.stageTempFile(in)
	if err != nil {
		return 0, "", err
	}
	defer cleanup()

	probes := []strategy{
		{MethodFFProbe, func() (float64, error) { return e.probeContainer(ctx, tempPath) }},
		{MethodFrameScan, func() (float64, error) { return scanFrames(tempPath) }},
		{MethodMetadataTag, func() (float64, error) { return readTagLength(in.Data) }},
	}

	for _, s := range probes {
		seconds, err := s.probe()
		if err != nil || math.IsNaN(seconds) || seconds <= 0 {
			metrics.RecordEstimation(s.name, "failure")
			e.log.Debug().Err(err).
				Str("strategy", s.name).
				Str("filename", in.Filename).
				Msg("duration strategy failed, trying next")
			continue
		}
		metrics.RecordEstimation(s.name, "success")
		return seconds, s.name, nil
	}

	// Terminal strategy: a pure function of size and declared type.
	metrics.RecordEstimation(MethodFileSize, "success")
	return EstimateFromSize(in.SizeBytes, in.MediaType), MethodFileSize, nil
}

// stageTempFile writes the upload to a temp file for the path-based
// strategies. The returned cleanup removes it and must run exactly once.
func (e *Estimator) stageTempFile(in Input) (string, func(), error) {
	if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
		return "", nil, err
	}

	ext := filepath.Ext(in.Filename)
	if ext == "" {
		ext = ".mp3"
	}
	file, err := os.CreateTemp(e.tempDir, "audio-*"+ext)
	if err != nil {
		return "", nil, err
	}
	path := file.Name()

	if _, err := file.Write(in.Data); err != nil {
		file.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}

	return path, func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			e.log.Warn().Err(err).Str("path", path).Msg("failed to remove temp audio file")
		}
	}, nil
}

func (e *Estimator) probeContainer(ctx context.Context, path string) (float64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	result, err := ffprobe.Inspect(probeCtx, e.binary, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds(), nil
}

// EstimateFromSize derives a duration from the byte length alone, using an
// approximate MB-per-minute figure for the declared type at a representative
// bitrate. Always returns a non-negative number.
func EstimateFromSize(sizeBytes int64, mediaType string) float64 {
	sizeMB := float64(sizeBytes) / (1024 * 1024)
	return math.Round(sizeMB / mbPerMinute(mediaType) * 60)
}

func mbPerMinute(mediaType string) float64 {
	t := strings.ToLower(mediaType)
	switch {
	case strings.Contains(t, "mp3") || strings.Contains(t, "mpeg"):
		// 128 kbps
		return 0.94
	case strings.Contains(t, "m4a") || strings.Contains(t, "mp4") || strings.Contains(t, "aac"):
		// 64 kbps
		return 0.47
	case strings.Contains(t, "wav"):
		// 1411 kbps PCM
		return 10.6
	default:
		// 96 kbps
		return 0.7
	}
}
