package effectiveness

import (
	"context"

	"github.com/technosupport/foe-be-gone/internal/store"
)

// Reporter exposes the read-side primitives over a plain store.DBTX
// handle (no transaction needed — these are point reads).
type Reporter struct {
	stats store.SoundStatsRepo
	time  store.TimeEffectivenessRepo
}

func NewReporter(db store.DBTX) *Reporter {
	return &Reporter{
		stats: store.SoundStatsRepo{DB: db},
		time:  store.TimeEffectivenessRepo{DB: db},
	}
}

// BestSoundFor consults TimeBasedEffectiveness(pest, hour) first, falling
// back to SoundStatistics ordered by mean_effectiveness desc.
func (r *Reporter) BestSoundFor(ctx context.Context, pest store.FoeKind, hour *int) (string, bool, error) {
	if hour != nil {
		t, err := r.time.Get(ctx, pest, *hour)
		if err == nil && t.BestSound != "" {
			return t.BestSound, true, nil
		}
		if err != nil && err != store.ErrNotFound {
			return "", false, err
		}
	}

	best, err := r.stats.BestByMeanEffectiveness(ctx, pest)
	if err != nil {
		return "", false, err
	}
	if len(best) == 0 {
		return "", false, nil
	}
	return best[0].Sound, true, nil
}

// LeastTestedSound returns the candidate with the lowest total_uses,
// unknown sounds treated as 0.
func (r *Reporter) LeastTestedSound(ctx context.Context, pest store.FoeKind, candidates []string) (string, bool, error) {
	if len(candidates) == 0 {
		return "", false, nil
	}
	best := candidates[0]
	bestUses := -1
	for _, c := range candidates {
		uses, err := r.stats.TotalUses(ctx, pest, c)
		if err != nil {
			return "", false, err
		}
		if bestUses == -1 || uses < bestUses {
			bestUses = uses
			best = c
		}
	}
	return best, true, nil
}

type Summary struct {
	Pest  store.FoeKind
	Stats []store.SoundStatistics
}

func (r *Reporter) Summary(ctx context.Context, pest store.FoeKind) (Summary, error) {
	stats, err := r.stats.BestByMeanEffectiveness(ctx, pest)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Pest: pest, Stats: stats}, nil
}

type TimePattern struct {
	Hour        int
	SuccessRate float64
	BestSound   string
}

func (r *Reporter) TimePatterns(ctx context.Context, pest store.FoeKind) ([]TimePattern, error) {
	rows, err := r.time.List(ctx, pest)
	if err != nil {
		return nil, err
	}
	out := make([]TimePattern, 0, len(rows))
	for _, row := range rows {
		successRate := 0.0
		if row.TotalUses > 0 {
			successRate = float64(row.SuccessfulDeterrents) / float64(row.TotalUses)
		}
		out = append(out, TimePattern{Hour: row.Hour, SuccessRate: successRate, BestSound: row.BestSound})
	}
	return out, nil
}
