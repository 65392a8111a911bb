package playback

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"audio-articles/article-api/internal/domain/duration"
	"audio-articles/article-api/internal/infrastructure/metrics"
)

// DisagreementThresholdSeconds is how far a live measurement may drift from
// the stored duration before the stored value is considered wrong.
const DisagreementThresholdSeconds = 30

// State describes where a playback session landed after reconciliation.
type State string

const (
	StateLoading  State = "loading"
	StateMeasured State = "measured"
	StateFailed   State = "failed"
)

// Backfiller persists a corrected duration for an article. It is invoked
// asynchronously and must tolerate the article having been deleted meanwhile.
type Backfiller func(ctx context.Context, articleID string, seconds int, method string) error

// Outcome is the result of reconciling a stored duration against a live
// measurement at playback time.
type Outcome struct {
	State          State
	DisplaySeconds int
	LiveSeconds    int
	AdoptedLive    bool
	BackfillIssued bool
	Err            error
}

// Reconciler measures the real duration of an article's audio when playback
// starts and decides whether the stored duration can be trusted. Adopting a
// live value also fires a background backfill so the catalog converges
// without blocking the listener.
type Reconciler struct {
	prober     Prober
	backfill   Backfiller
	attempts   int
	retryDelay time.Duration
	log        zerolog.Logger
}

func NewReconciler(prober Prober, backfill Backfiller, retryDelay time.Duration, log zerolog.Logger) *Reconciler {
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &Reconciler{
		prober:     prober,
		backfill:   backfill,
		attempts:   3,
		retryDelay: retryDelay,
		log:        log.With().Str("component", "playback-reconciler").Logger(),
	}
}

// Load reconciles the stored duration with a live measurement. The stored
// value wins unless it is suspicious or disagrees with the measurement by more
// than the threshold; in either case the live value is displayed and a
// background backfill is issued. Measurement failure is not an error for the
// listener: the stored value is displayed as-is.
func (r *Reconciler) Load(ctx context.Context, articleID, audioURL string, storedSeconds int) Outcome {
	live, err := MeasureAsset(ctx, r.prober, audioURL, r.attempts, r.retryDelay)
	if err != nil {
		r.log.Warn().Err(err).
			Str("article_id", articleID).
			Int("stored_seconds", storedSeconds).
			Msg("live duration measurement failed, keeping stored value")
		return Outcome{
			State:          StateFailed,
			DisplaySeconds: storedSeconds,
			Err:            err,
		}
	}

	liveSeconds := int(math.Round(live))
	outcome := Outcome{
		State:          StateMeasured,
		DisplaySeconds: storedSeconds,
		LiveSeconds:    liveSeconds,
	}

	suspicious := duration.IsSuspicious(storedSeconds)
	drift := liveSeconds - storedSeconds
	if drift < 0 {
		drift = -drift
	}
	if !suspicious && drift <= DisagreementThresholdSeconds {
		return outcome
	}

	outcome.DisplaySeconds = liveSeconds
	outcome.AdoptedLive = true
	r.log.Info().
		Str("article_id", articleID).
		Int("stored_seconds", storedSeconds).
		Int("live_seconds", liveSeconds).
		Bool("stored_suspicious", suspicious).
		Msg("adopting live duration over stored value")

	if r.backfill != nil {
		outcome.BackfillIssued = true
		go r.runBackfill(articleID, liveSeconds)
	}
	return outcome
}

// runBackfill persists the corrected duration on a detached context so it
// survives the originating request.
func (r *Reconciler) runBackfill(articleID string, seconds int) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := r.backfill(ctx, articleID, seconds, duration.MethodLive); err != nil {
		metrics.RecordBackfill("failure")
		r.log.Error().Err(err).
			Str("article_id", articleID).
			Int("seconds", seconds).
			Msg("failed to backfill measured duration")
		return
	}
	metrics.RecordBackfill("success")
	r.log.Info().
		Str("article_id", articleID).
		Int("seconds", seconds).
		Msg("backfilled measured duration")
}
