// Package metrics exposes the controller's Prometheus gauges and
// counters, grounded on the teacher's internal/metrics (promauto
// registration, label-cardinality discipline) and rewired from AI-overlay
// streaming metrics to the detection/deterrence domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// All metrics are low-cardinality (no camera_id/detection_id labels —
// pest kind and result only).
var (
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foe_detections_total",
			Help: "Total detections processed, by status",
		},
		[]string{"status"},
	)

	FoesIdentifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foe_foes_identified_total",
			Help: "Total foes identified, by kind",
		},
		[]string{"kind"},
	)

	DeterrentActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foe_deterrent_actions_total",
			Help: "Total deterrent actions attempted, by kind and method",
		},
		[]string{"kind", "method", "success"},
	)

	EffectivenessScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foe_effectiveness_score",
			Help:    "Recorded effectiveness score per deterrent attempt",
			Buckets: []float64{0, 0.25, 0.5, 0.75, 1.0},
		},
		[]string{"kind"},
	)

	TickDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foe_tick_duration_seconds",
			Help:    "Wall-clock duration of one worker tick across all cameras",
			Buckets: prometheus.DefBuckets,
		},
	)

	AICostUSDTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foe_ai_cost_usd_total",
			Help: "Cumulative detector API cost in USD",
		},
	)

	WorkerUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foe_worker_up",
			Help: "Detection worker health status (1=running, 0=stopped)",
		},
	)
)

func RecordDetection(status string) {
	DetectionsTotal.WithLabelValues(status).Inc()
}

func RecordFoe(kind string) {
	FoesIdentifiedTotal.WithLabelValues(kind).Inc()
}

func RecordDeterrentAction(kind, method string, success bool) {
	DeterrentActionsTotal.WithLabelValues(kind, method, boolLabel(success)).Inc()
}

func RecordEffectiveness(kind string, score float64) {
	EffectivenessScore.WithLabelValues(kind).Observe(score)
}

func RecordAICost(usd float64) {
	AICostUSDTotal.Add(usd)
}

func SetWorkerUp(up bool) {
	if up {
		WorkerUp.Set(1)
	} else {
		WorkerUp.Set(0)
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
