package janitor

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Janitor periodically removes stale audio temp files left behind when a
// probe crashed or the process was killed mid-estimation.
type Janitor struct {
	dir    string
	maxAge time.Duration
	cron   *cron.Cron
	log    zerolog.Logger
}

func New(dir string, maxAge time.Duration, log zerolog.Logger) *Janitor {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Janitor{
		dir:    dir,
		maxAge: maxAge,
		log:    log.With().Str("component", "temp-janitor").Logger(),
	}
}

// Start schedules the sweep. The schedule accepts cron expressions and the
// @every / @hourly descriptors.
func (j *Janitor) Start(schedule string) error {
	if schedule == "" {
		schedule = "@hourly"
	}
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		removed, err := j.SweepOnce()
		if err != nil {
			j.log.Error().Err(err).Msg("temp file sweep failed")
			return
		}
		if removed > 0 {
			j.log.Info().Int("removed", removed).Msg("swept stale temp files")
		}
	}); err != nil {
		return err
	}
	c.Start()
	j.cron = c
	j.log.Info().Str("schedule", schedule).Str("dir", j.dir).Msg("temp file janitor started")
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// SweepOnce removes files older than maxAge and reports how many went away.
// A missing directory is not an error: nothing has been staged yet.
func (j *Janitor) SweepOnce() (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			j.log.Warn().Err(err).Str("path", path).Msg("failed to remove stale temp file")
			continue
		}
		removed++
	}
	return removed, nil
}
