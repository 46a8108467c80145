package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recommendation paths.
const (
	PathRanked   = "ranked"
	PathFallback = "fallback"
	PathEmpty    = "empty"
)

var (
	once sync.Once

	recommendations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assessor_recommendations_total",
		Help: "Recommendations served, by path (ranked/fallback/empty)",
	}, []string{"path"})

	recommendationResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assessor_recommendation_results",
		Help:    "Number of results returned per recommendation",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	topScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assessor_recommendation_top_score",
		Help:    "Similarity score of the first ranked result",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
	})

	trainings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assessor_trainings_total",
		Help: "Index builds, by outcome (ok/error)",
	}, []string{"outcome"})

	trainLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "assessor_train_latency_ms",
		Help:    "Index build latency in milliseconds",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	corpusSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assessor_corpus_assessments",
		Help: "Assessments in the published index",
	})

	featureDimensions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "assessor_feature_dimensions",
		Help: "Vocabulary size of the published index",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveRecommendation records the path taken, the result count and, for ranked results, the top score.
func ObserveRecommendation(path string, results int, top float64) {
	ensureRegistered()
	recommendations.WithLabelValues(path).Inc()
	recommendationResults.Observe(float64(results))
	if path == PathRanked {
		topScore.Observe(top)
	}
}

// ObserveTrain records a finished index build. Size gauges move only on success.
func ObserveTrain(start time.Time, err error, assessments, dimensions int) {
	ensureRegistered()
	trainLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		trainings.WithLabelValues("error").Inc()
		return
	}
	trainings.WithLabelValues("ok").Inc()
	corpusSize.Set(float64(assessments))
	featureDimensions.Set(float64(dimensions))
}

// Handler serves the default registry.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		recommendations, recommendationResults, topScore, trainings, trainLatency, corpusSize, featureDimensions,
	}
}
