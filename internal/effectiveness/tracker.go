// Package effectiveness is the Effectiveness Tracker (C6): scores one
// deterrence outcome, then atomically folds it into the SoundStatistics
// and TimeBasedEffectiveness aggregates under a single transaction
// through the persistence façade, using SELECT ... FOR UPDATE row locks
// to satisfy the no-lost-updates concurrency invariant — grounded on the
// teacher's direct database/sql transaction style in internal/data.
package effectiveness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/technosupport/foe-be-gone/internal/store"
)

type sessionRunner interface {
	ScopedSession(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Tracker wires the three repositories to one *store.Store session per
// record_effectiveness call.
type Tracker struct {
	db  sessionRunner
	log zerolog.Logger

	newEffectivenessRepo func(store.DBTX) store.EffectivenessRepo
	newStatsRepo         func(store.DBTX) store.SoundStatsRepo
	newTimeRepo          func(store.DBTX) store.TimeEffectivenessRepo
}

func NewTracker(db *store.Store, log zerolog.Logger) *Tracker {
	return &Tracker{
		db:  db,
		log: log.With().Str("component", "effectiveness").Logger(),
		newEffectivenessRepo: func(tx store.DBTX) store.EffectivenessRepo { return store.EffectivenessRepo{DB: tx} },
		newStatsRepo:         func(tx store.DBTX) store.SoundStatsRepo { return store.SoundStatsRepo{DB: tx} },
		newTimeRepo:          func(tx store.DBTX) store.TimeEffectivenessRepo { return store.TimeEffectivenessRepo{DB: tx} },
	}
}

// Outcome computes Result and Score per spec.md §4.6 from before/after foe
// confidence samples.
func Outcome(confBefore []float64, confAfter []float64) (store.EffectivenessResult, float64) {
	countBefore := len(confBefore)
	countAfter := len(confAfter)

	var result store.EffectivenessResult
	switch {
	case countAfter == 0:
		result = store.ResultSuccess
	case countAfter < countBefore:
		result = store.ResultPartial
	default:
		result = store.ResultFailure
	}

	if countBefore == 0 {
		return result, 0
	}
	if countAfter == 0 {
		return result, 1
	}

	meanBefore := mean(confBefore)
	meanAfter := mean(confAfter)

	r := float64(countBefore-countAfter) / float64(countBefore)
	c := 1.0
	if meanBefore > 0 {
		c = 1 - (meanAfter / meanBefore)
	}
	score := (r + c) / 2
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	if countAfter >= countBefore {
		score = 0
	}
	return result, score
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// RecordEffectiveness implements record_effectiveness: writes the
// SoundEffectiveness row and folds it into both aggregates in one
// transaction.
func (t *Tracker) RecordEffectiveness(ctx context.Context, detectionID uuid.UUID, pest store.FoeKind, sound string, method store.PlaybackMethod, confBefore, confAfter []float64, followUpPath *string, waitSeconds int) error {
	result, score := Outcome(confBefore, confAfter)

	return t.db.ScopedSession(ctx, func(tx *sql.Tx) error {
		eff := store.SoundEffectiveness{
			ID:           uuid.New(),
			DetectionID:  detectionID,
			Pest:         pest,
			Sound:        sound,
			Method:       method,
			CountBefore:  len(confBefore),
			CountAfter:   len(confAfter),
			ConfBefore:   mean(confBefore),
			ConfAfter:    mean(confAfter),
			WaitSeconds:  waitSeconds,
			Result:       result,
			Score:        score,
			FollowUpPath: followUpPath,
			CreatedAt:    time.Now(),
		}
		effRepo := t.newEffectivenessRepo(tx)
		if err := effRepo.Create(ctx, &eff); err != nil {
			return fmt.Errorf("effectiveness: create: %w", err)
		}

		statsRepo := t.newStatsRepo(tx)
		stats, err := statsRepo.LockForUpdate(ctx, pest, sound)
		if err != nil {
			return fmt.Errorf("effectiveness: lock sound_statistics: %w", err)
		}
		scores, err := effRepo.Scores(ctx, pest, sound)
		if err != nil {
			return fmt.Errorf("effectiveness: read score history: %w", err)
		}

		stats.TotalUses++
		switch result {
		case store.ResultSuccess:
			stats.Successful++
		case store.ResultPartial:
			stats.Partial++
		case store.ResultFailure:
			stats.Failed++
		}
		if stats.TotalUses > 0 {
			stats.SuccessRate = float64(stats.Successful) / float64(stats.TotalUses)
		}
		stats.MeanEffectiveness = mean(scores) // recomputed from full history, §4.6
		now := time.Now()
		if stats.FirstUsedAt.IsZero() {
			stats.FirstUsedAt = now
		}
		stats.LastUsedAt = now

		if err := statsRepo.Upsert(ctx, stats); err != nil {
			return fmt.Errorf("effectiveness: upsert sound_statistics: %w", err)
		}

		timeRepo := t.newTimeRepo(tx)
		hour := eff.CreatedAt.Hour()
		timeRow, err := timeRepo.LockForUpdate(ctx, pest, hour)
		if err != nil {
			return fmt.Errorf("effectiveness: lock time_based_effectiveness: %w", err)
		}
		timeRow.TotalUses++
		if result == store.ResultSuccess {
			timeRow.SuccessfulDeterrents++
		}
		if stats.SuccessRate > timeRow.BestSoundSuccessRate {
			timeRow.BestSound = sound
			timeRow.BestSoundSuccessRate = stats.SuccessRate
		}
		if err := timeRepo.Upsert(ctx, timeRow); err != nil {
			return fmt.Errorf("effectiveness: upsert time_based_effectiveness: %w", err)
		}

		if !store.SafeCommit(tx, t.log) {
			return fmt.Errorf("effectiveness: commit failed for pest=%s sound=%s", pest, sound)
		}
		return nil
	})
}
