package playback

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/infrastructure/metrics"
	"audio-articles/article-api/internal/media/ffprobe"
)

// Prober measures the real duration of a remote audio asset.
type Prober interface {
	Measure(ctx context.Context, url string) (float64, error)
}

// FFProbeProber measures remote assets by pointing ffprobe at the delivery
// URL directly, so nothing is downloaded to disk.
type FFProbeProber struct {
	binary  string
	timeout time.Duration
	log     zerolog.Logger
}

func NewFFProbeProber(binary string, timeout time.Duration, log zerolog.Logger) *FFProbeProber {
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFProbeProber{
		binary:  binary,
		timeout: timeout,
		log:     log.With().Str("component", "live-prober").Logger(),
	}
}

func (p *FFProbeProber) Measure(ctx context.Context, url string) (float64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	result, err := ffprobe.Inspect(probeCtx, p.binary, url)
	if err != nil {
		metrics.RecordLiveMeasurement("failure")
		return 0, err
	}
	seconds := result.DurationSeconds()
	if math.IsNaN(seconds) || seconds <= 0 {
		metrics.RecordLiveMeasurement("failure")
		return 0, errors.New("stream reports no usable duration")
	}
	metrics.RecordLiveMeasurement("success")
	return seconds, nil
}

// MeasureAsset probes an asset up to attempts times with linear backoff. The
// first attempt uses the URL as given; later attempts fall back to the
// canonical form with transformation segments stripped, since those are the
// usual cause of undecodable streams.
func MeasureAsset(ctx context.Context, prober Prober, rawURL string, attempts int, delay time.Duration) (float64, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		target := rawURL
		if attempt > 1 {
			target = CanonicalAssetURL(rawURL)
		}
		seconds, err := prober.Measure(ctx, target)
		if err == nil {
			return seconds, nil
		}
		lastErr = err

		if attempt < attempts && delay > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay * time.Duration(attempt)):
			}
		}
	}
	return 0, lastErr
}
