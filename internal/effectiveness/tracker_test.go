package effectiveness

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/technosupport/foe-be-gone/internal/store"
)

func TestOutcome_ZeroAfterIsSuccessWithFullScore(t *testing.T) {
	result, score := Outcome([]float64{0.9, 0.8}, nil)
	require.Equal(t, store.ResultSuccess, result)
	require.Equal(t, 1.0, score)
}

func TestOutcome_FewerAfterIsPartial(t *testing.T) {
	result, score := Outcome([]float64{0.9, 0.8}, []float64{0.5})
	require.Equal(t, store.ResultPartial, result)
	require.Greater(t, score, 0.0)
}

func TestOutcome_SameOrMoreAfterIsFailureWithZeroScore(t *testing.T) {
	result, score := Outcome([]float64{0.9}, []float64{0.9, 0.9})
	require.Equal(t, store.ResultFailure, result)
	require.Equal(t, 0.0, score)
}

func TestOutcome_EmptyBeforeScoresZero(t *testing.T) {
	_, score := Outcome(nil, nil)
	require.Equal(t, 0.0, score)
}
