package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus метрики ядра сканера.
//
// Экспортируются через /metrics, используются для дашбордов и алертов:
// длительность тика, ошибки запросов по биржам, размер вселенной,
// количество найденных возможностей и причины отбраковки.

// ScanTicksTotal - количество завершённых тиков
var ScanTicksTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbscan",
		Subsystem: "scanner",
		Name:      "ticks_total",
		Help:      "Total number of completed scan ticks",
	},
)

// ScanTickDuration - длительность тика в секундах
var ScanTickDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbscan",
		Subsystem: "scanner",
		Name:      "tick_duration_seconds",
		Help:      "Wall-clock duration of a scan tick",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
)

// PairFetchesTotal - запросы снимков пар по биржам и исходу
var PairFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbscan",
		Subsystem: "scanner",
		Name:      "pair_fetches_total",
		Help:      "Pair snapshot fetches by exchange and outcome",
	},
	[]string{"exchange", "outcome"}, // outcome: ok или причина FetchErrorKind
)

// UniverseSize - размер вселенной символов
var UniverseSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbscan",
		Subsystem: "scanner",
		Name:      "universe_size",
		Help:      "Number of symbols in the scan universe",
	},
)

// OpportunitiesFound - возможностей в последнем тике
var OpportunitiesFound = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbscan",
		Subsystem: "scanner",
		Name:      "opportunities_found",
		Help:      "Opportunities produced by the last tick",
	},
)

// EngineRejections - отбраковка связок по причинам
var EngineRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbscan",
		Subsystem: "engine",
		Name:      "pair_rejections_total",
		Help:      "Venue pairings rejected by the opportunity engine",
	},
	[]string{"reason"}, // missing_ob, insufficient_fill, below_spread, below_notional, limits_fail
)

// observeCounters переносит счётчики прогона движка в Prometheus
func observeCounters(c EngineCounters) {
	EngineRejections.WithLabelValues("missing_ob").Add(float64(c.PairsMissingOB))
	EngineRejections.WithLabelValues("insufficient_fill").Add(float64(c.PairsInsufficientFill))
	EngineRejections.WithLabelValues("below_spread").Add(float64(c.PairsBelowSpread))
	EngineRejections.WithLabelValues("below_notional").Add(float64(c.PairsBelowNotional))
	EngineRejections.WithLabelValues("limits_fail").Add(float64(c.PairsLimitsFail))
}
