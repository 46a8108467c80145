package ranker

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/metrics"
	"github.com/spigell/assessment-recommender/internal/tfidf"
)

const ModelType = "TF-IDF + Cosine Similarity"

// ModelInfo describes the published index.
type ModelInfo struct {
	ModelType         string `json:"model_type"`
	TotalAssessments  int    `json:"total_assessments"`
	FeatureDimensions int    `json:"feature_dimensions"`
	Trained           bool   `json:"trained"`
}

// Engine owns the current index. Recommend may run concurrently with itself and with Train;
// each call ranks against one published snapshot. Train calls are serialized.
type Engine struct {
	logger      *zap.Logger
	maxFeatures int
	fallback    []string

	trainMu sync.Mutex
	current atomic.Pointer[tfidf.Index]
}

type Option func(*Engine)

// WithFallbackNames replaces the built-in fallback allowlist.
// An empty list keeps the default.
func WithFallbackNames(names ...string) Option {
	return func(e *Engine) {
		if len(names) > 0 {
			e.fallback = append([]string(nil), names...)
		}
	}
}

func WithMaxFeatures(n int) Option {
	return func(e *Engine) {
		e.maxFeatures = n
	}
}

func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:      logger,
		maxFeatures: tfidf.DefaultMaxFeatures,
		fallback:    DefaultFallbackNames,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Train builds a new index from docs and publishes it. On error the previous index stays.
func (e *Engine) Train(docs []catalog.Assessment) error {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	start := time.Now()
	ix, err := tfidf.Build(docs, tfidf.WithMaxFeatures(e.maxFeatures))
	if err != nil {
		metrics.ObserveTrain(start, err, 0, 0)
		e.logger.Warn("training rejected", zap.Error(err))
		return err
	}

	e.current.Store(ix)
	metrics.ObserveTrain(start, nil, ix.Len(), ix.Dimension())
	e.logger.Info("model trained",
		zap.Int("assessments", ix.Len()),
		zap.Int("dimensions", ix.Dimension()),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// Recommend ranks the current index against text.
func (e *Engine) Recommend(text string, k int) (*Recommendation, error) {
	rec, err := Rank(e.current.Load(), text, k, e.fallback)
	if err != nil {
		return nil, err
	}

	path, top := metrics.PathRanked, 0.0
	switch {
	case rec.Empty():
		path = metrics.PathEmpty
	case rec.Fallback:
		path = metrics.PathFallback
	default:
		top = rec.Results[0].Score
	}
	metrics.ObserveRecommendation(path, len(rec.Results), top)

	e.logger.Debug("recommendation ready",
		zap.Int("results", len(rec.Results)),
		zap.Bool("fallback", rec.Fallback),
		zap.Float64("top_score", top),
	)
	return rec, nil
}

// Index returns the published index, or nil before the first successful Train.
func (e *Engine) Index() *tfidf.Index {
	return e.current.Load()
}

func (e *Engine) Trained() bool {
	return e.current.Load() != nil
}

func (e *Engine) ModelInfo() ModelInfo {
	info := ModelInfo{ModelType: ModelType}
	if ix := e.current.Load(); ix != nil {
		info.Trained = true
		info.TotalAssessments = ix.Len()
		info.FeatureDimensions = ix.Dimension()
	}
	return info
}

// FallbackNames returns the allowlist in use.
func (e *Engine) FallbackNames() []string {
	return append([]string(nil), e.fallback...)
}
