package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type EffectivenessRepo struct{ DB DBTX }

func (r EffectivenessRepo) Create(ctx context.Context, e *SoundEffectiveness) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sound_effectiveness (
			id, detection_id, pest, sound, method, count_before, count_after,
			conf_before, conf_after, wait_seconds, result, score, follow_up_path, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		e.ID, e.DetectionID, e.Pest, e.Sound, e.Method, e.CountBefore, e.CountAfter,
		e.ConfBefore, e.ConfAfter, e.WaitSeconds, e.Result, e.Score, e.FollowUpPath, e.CreatedAt)
	return err
}

// Scores returns every recorded score for (pest, sound), used to recompute
// mean_effectiveness from history rather than incrementally (§4.6).
func (r EffectivenessRepo) Scores(ctx context.Context, pest FoeKind, sound string) ([]float64, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT score FROM sound_effectiveness WHERE pest = $1 AND sound = $2`, pest, sound)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountByKey returns total/successful/partial/failed for (pest, sound),
// used to cross-check SoundStatistics against raw history (P4).
func (r EffectivenessRepo) CountByKey(ctx context.Context, pest FoeKind, sound string) (total, successful, partial, failed int, err error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE result = 'SUCCESS'),
			count(*) FILTER (WHERE result = 'PARTIAL'),
			count(*) FILTER (WHERE result = 'FAILURE')
		FROM sound_effectiveness WHERE pest = $1 AND sound = $2`, pest, sound)
	err = row.Scan(&total, &successful, &partial, &failed)
	return
}

type SoundStatsRepo struct{ DB DBTX }

// LockForUpdate reads (and locks, under a transaction) the SoundStatistics
// row for (pest, sound), creating a zero-value row if none exists, so the
// caller can read-modify-write it without losing concurrent updates.
func (r SoundStatsRepo) LockForUpdate(ctx context.Context, pest FoeKind, sound string) (*SoundStatistics, error) {
	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO sound_statistics (
			pest, sound, total_uses, successful, partial, failed, success_rate,
			mean_effectiveness, first_used_at, last_used_at
		) VALUES ($1,$2,0,0,0,0,0,0,now(),now())
		ON CONFLICT (pest, sound) DO NOTHING`, pest, sound); err != nil {
		return nil, err
	}
	row := r.DB.QueryRowContext(ctx, `
		SELECT pest, sound, total_uses, successful, partial, failed, success_rate,
			mean_effectiveness, first_used_at, last_used_at
		FROM sound_statistics WHERE pest = $1 AND sound = $2 FOR UPDATE`, pest, sound)

	var s SoundStatistics
	err := row.Scan(&s.Pest, &s.Sound, &s.TotalUses, &s.Successful, &s.Partial, &s.Failed,
		&s.SuccessRate, &s.MeanEffectiveness, &s.FirstUsedAt, &s.LastUsedAt)
	if err == sql.ErrNoRows {
		return &SoundStatistics{Pest: pest, Sound: sound}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r SoundStatsRepo) Upsert(ctx context.Context, s *SoundStatistics) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sound_statistics (
			pest, sound, total_uses, successful, partial, failed, success_rate,
			mean_effectiveness, first_used_at, last_used_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (pest, sound) DO UPDATE SET
			total_uses = EXCLUDED.total_uses, successful = EXCLUDED.successful,
			partial = EXCLUDED.partial, failed = EXCLUDED.failed,
			success_rate = EXCLUDED.success_rate, mean_effectiveness = EXCLUDED.mean_effectiveness,
			last_used_at = EXCLUDED.last_used_at`,
		s.Pest, s.Sound, s.TotalUses, s.Successful, s.Partial, s.Failed,
		s.SuccessRate, s.MeanEffectiveness, s.FirstUsedAt, s.LastUsedAt)
	return err
}

// BestByMeanEffectiveness returns sounds for pest ordered by mean_effectiveness desc.
func (r SoundStatsRepo) BestByMeanEffectiveness(ctx context.Context, pest FoeKind) ([]SoundStatistics, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT pest, sound, total_uses, successful, partial, failed, success_rate,
			mean_effectiveness, first_used_at, last_used_at
		FROM sound_statistics WHERE pest = $1 ORDER BY mean_effectiveness DESC`, pest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SoundStatistics
	for rows.Next() {
		var s SoundStatistics
		if err := rows.Scan(&s.Pest, &s.Sound, &s.TotalUses, &s.Successful, &s.Partial, &s.Failed,
			&s.SuccessRate, &s.MeanEffectiveness, &s.FirstUsedAt, &s.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TotalUses returns the total_uses for (pest, sound), 0 if never tested.
func (r SoundStatsRepo) TotalUses(ctx context.Context, pest FoeKind, sound string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT total_uses FROM sound_statistics WHERE pest = $1 AND sound = $2`, pest, sound).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return n, err
}

type TimeEffectivenessRepo struct{ DB DBTX }

func (r TimeEffectivenessRepo) LockForUpdate(ctx context.Context, pest FoeKind, hour int) (*TimeBasedEffectiveness, error) {
	if _, err := r.DB.ExecContext(ctx, `
		INSERT INTO time_based_effectiveness (pest, hour, total_uses, successful_deterrents, best_sound, best_sound_success_rate)
		VALUES ($1,$2,0,0,'',0)
		ON CONFLICT (pest, hour) DO NOTHING`, pest, hour); err != nil {
		return nil, err
	}
	row := r.DB.QueryRowContext(ctx, `
		SELECT pest, hour, total_uses, successful_deterrents, best_sound, best_sound_success_rate
		FROM time_based_effectiveness WHERE pest = $1 AND hour = $2 FOR UPDATE`, pest, hour)

	var t TimeBasedEffectiveness
	err := row.Scan(&t.Pest, &t.Hour, &t.TotalUses, &t.SuccessfulDeterrents, &t.BestSound, &t.BestSoundSuccessRate)
	if err == sql.ErrNoRows {
		return &TimeBasedEffectiveness{Pest: pest, Hour: hour}, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r TimeEffectivenessRepo) Upsert(ctx context.Context, t *TimeBasedEffectiveness) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO time_based_effectiveness (pest, hour, total_uses, successful_deterrents, best_sound, best_sound_success_rate)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (pest, hour) DO UPDATE SET
			total_uses = EXCLUDED.total_uses, successful_deterrents = EXCLUDED.successful_deterrents,
			best_sound = EXCLUDED.best_sound, best_sound_success_rate = EXCLUDED.best_sound_success_rate`,
		t.Pest, t.Hour, t.TotalUses, t.SuccessfulDeterrents, t.BestSound, t.BestSoundSuccessRate)
	return err
}

func (r TimeEffectivenessRepo) Get(ctx context.Context, pest FoeKind, hour int) (*TimeBasedEffectiveness, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT pest, hour, total_uses, successful_deterrents, best_sound, best_sound_success_rate
		FROM time_based_effectiveness WHERE pest = $1 AND hour = $2`, pest, hour)
	var t TimeBasedEffectiveness
	err := row.Scan(&t.Pest, &t.Hour, &t.TotalUses, &t.SuccessfulDeterrents, &t.BestSound, &t.BestSoundSuccessRate)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return &t, err
}

// List returns the stored hour rows for a pest (at most 24, ordered by
// hour; hours never recorded have no row), for time_patterns() reporting.
func (r TimeEffectivenessRepo) List(ctx context.Context, pest FoeKind) ([]TimeBasedEffectiveness, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT pest, hour, total_uses, successful_deterrents, best_sound, best_sound_success_rate
		FROM time_based_effectiveness WHERE pest = $1 ORDER BY hour ASC`, pest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimeBasedEffectiveness
	for rows.Next() {
		var t TimeBasedEffectiveness
		if err := rows.Scan(&t.Pest, &t.Hour, &t.TotalUses, &t.SuccessfulDeterrents, &t.BestSound, &t.BestSoundSuccessRate); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
