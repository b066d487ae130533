package capture

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Sweeper deletes video files older than a retention window, once an
// hour, grounded on the teacher's scheduler.go StartDailySync
// ticker-with-jitter pattern.
type Sweeper struct {
	fs           afero.Fs
	videosDir    string
	retentionFn  func(ctx context.Context) int // days
	log          zerolog.Logger
	tickInterval time.Duration
}

func NewSweeper(fs afero.Fs, videosDir string, retentionDays func(ctx context.Context) int, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		fs:           fs,
		videosDir:    videosDir,
		retentionFn:  retentionDays,
		log:          log.With().Str("component", "video_sweeper").Logger(),
		tickInterval: time.Hour,
	}
}

// Start runs the sweeper loop until ctx is cancelled. Jitters the first
// run up to 60s to avoid thundering-herd load on process restart.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(rand.Intn(60)) * time.Second):
		}

		s.sweep(ctx)

		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	days := s.retentionFn(ctx)
	cutoff := time.Now().AddDate(0, 0, -days)

	entries, err := afero.ReadDir(s.fs, s.videosDir)
	if err != nil {
		return
	}

	deleted := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if e.ModTime().Before(cutoff) {
			path := s.videosDir + "/" + e.Name()
			if err := s.fs.Remove(path); err != nil {
				s.log.Warn().Err(err).Str("path", path).Msg("failed to remove expired video")
				continue
			}
			deleted++
		}
	}
	if deleted > 0 {
		s.log.Info().Int("deleted", deleted).Int("retention_days", days).Msg("video retention sweep complete")
	}
}
