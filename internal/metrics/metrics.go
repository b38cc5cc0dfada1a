package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	QueueSize    = prometheus.NewGauge(prometheus.GaugeOpts{Name: "mm_queue_size", Help: "candidates currently queued"})
	PoolSize     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "mm_pool_size", Help: "candidate records held, queued or matched"})
	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "mm_matches_total", Help: "total matches formed"})
	Admitted     = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mm_candidates_admitted_total", Help: "candidates admitted"}, []string{"source"})
	Rejected     = prometheus.NewCounter(prometheus.CounterOpts{Name: "mm_candidates_rejected_total", Help: "malformed admissions rejected"})
	Removed      = prometheus.NewCounter(prometheus.CounterOpts{Name: "mm_candidates_removed_total", Help: "candidates removed by administrators"})
	Rotations    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "mm_index_rotations_total", Help: "rating index rotations"}, []string{"direction"})
	BalanceScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mm_match_balance_score",
		Help:    "balance score of formed matches",
		Buckets: []float64{50, 80, 90, 95, 97, 98, 99, 99.5, 100},
	})
	WaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mm_match_wait_seconds",
		Help:    "average participant wait per formed match",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
	CycleSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mm_cycle_duration_seconds",
		Help:    "time spent in one matchmaking cycle",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	})
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(QueueSize, PoolSize, MatchesTotal, Admitted, Rejected, Removed,
			Rotations, BalanceScore, WaitSeconds, CycleSeconds)
	})
}

// ObserveRotations counts rotations by direction.
func ObserveRotations(directions ...string) {
	for _, d := range directions {
		Rotations.WithLabelValues(d).Inc()
	}
}

func ObserveMatch(balance, waitSeconds float64) {
	MatchesTotal.Inc()
	BalanceScore.Observe(balance)
	WaitSeconds.Observe(waitSeconds)
}

func SetSizes(queued, pooled int) {
	QueueSize.Set(float64(queued))
	PoolSize.Set(float64(pooled))
}
