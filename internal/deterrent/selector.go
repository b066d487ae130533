// Package deterrent is the Deterrent Selector (C7) and Sound Player (C8).
// Selection policy is grounded on spec.md §4.7's stateless epsilon-greedy
// rule; ε is exposed as the settings.KeyDeterrentEpsilon tunable rather
// than a constant, per the Open Question resolved in SPEC_FULL.md.
package deterrent

import (
	"context"
	"math/rand"

	"github.com/technosupport/foe-be-gone/internal/store"
)

// BestSoundLookup and LeastTestedLookup are the two effectiveness reads
// the selector needs, satisfied by effectiveness.Reporter.
type BestSoundLookup interface {
	BestSoundFor(ctx context.Context, pest store.FoeKind, hour *int) (string, bool, error)
}

type LeastTestedLookup interface {
	LeastTestedSound(ctx context.Context, pest store.FoeKind, candidates []string) (string, bool, error)
}

type Selector struct {
	best        BestSoundLookup
	leastTested LeastTestedLookup
	epsilon     func(ctx context.Context) float64
	now         func() (hour int)
}

func NewSelector(best BestSoundLookup, leastTested LeastTestedLookup, epsilon func(ctx context.Context) float64, nowHour func() int) *Selector {
	return &Selector{best: best, leastTested: leastTested, epsilon: epsilon, now: nowHour}
}

// Select decides which candidate sound file to play for pest, per
// spec.md §4.7: with probability ε exploit (best_sound_for), with
// probability 1-ε explore (least_tested_sound); fall back to uniform
// random over candidates in either branch.
func (s *Selector) Select(ctx context.Context, pest store.FoeKind, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	eps := s.epsilon(ctx)
	exploit := rand.Float64() < eps

	if exploit {
		hour := s.now()
		if best, ok, err := s.best.BestSoundFor(ctx, pest, &hour); err == nil && ok && inCandidates(best, candidates) {
			return best, true
		}
	} else {
		if least, ok, err := s.leastTested.LeastTestedSound(ctx, pest, candidates); err == nil && ok {
			return least, true
		}
	}

	return candidates[rand.Intn(len(candidates))], true
}

func inCandidates(file string, candidates []string) bool {
	for _, c := range candidates {
		if c == file {
			return true
		}
	}
	return false
}
