package ranker

import (
	"errors"
	"math"
	"sort"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/tfidf"
)

const (
	LabelHigh   = "High"
	LabelMedium = "Medium"
	LabelLow    = "Low"

	highThreshold   = 0.5
	mediumThreshold = 0.3

	// FallbackConfidence is stamped on every fallback entry.
	FallbackConfidence = 50.0
)

var ErrNotTrained = errors.New("model is not trained")

// DefaultFallbackNames are broadly applicable assessments offered when nothing in the
// catalog matches the query.
var DefaultFallbackNames = []string{
	"Logical Reasoning Test",
	"Problem Solving Assessment",
	"Verbal Reasoning Test",
	"Numerical Reasoning Assessment",
	"Communication Skills Assessment",
}

// Result is one ranked assessment. Score is the raw cosine similarity, which is 0 for
// fallback entries.
type Result struct {
	Assessment catalog.Assessment `json:"assessment"`
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Label      string             `json:"label"`
	Fallback   bool               `json:"fallback,omitempty"`
}

// Recommendation is the ordered outcome of one query.
type Recommendation struct {
	Results  []Result `json:"results"`
	Fallback bool     `json:"fallback"`
}

// Empty reports whether there is nothing to recommend.
func (r *Recommendation) Empty() bool {
	return r == nil || len(r.Results) == 0
}

// Names returns the assessment names in ranking order.
func (r *Recommendation) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Assessment.Name)
	}
	return out
}

// TopConfidence is the confidence of the first result, or 0 when there is none.
func (r *Recommendation) TopConfidence() float64 {
	if r.Empty() {
		return 0
	}
	return r.Results[0].Confidence
}

// Label buckets a similarity score.
func Label(score float64) string {
	switch {
	case score >= highThreshold:
		return LabelHigh
	case score >= mediumThreshold:
		return LabelMedium
	default:
		return LabelLow
	}
}

// Confidence turns a score into a percentage rounded to two decimals.
func Confidence(score float64) float64 {
	return math.Round(score*10000) / 100
}

// Rank scores every document in ix against text and returns at most k results with
// positive similarity, best first. Equal scores keep corpus order. When nothing scores
// above zero the fallback names present in the corpus are returned instead.
func Rank(ix *tfidf.Index, text string, k int, fallback []string) (*Recommendation, error) {
	if ix == nil {
		return nil, ErrNotTrained
	}
	if k <= 0 {
		return &Recommendation{Results: []Result{}}, nil
	}

	sims := ix.Similarities(ix.Project(text))

	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})
	if len(order) > k {
		order = order[:k]
	}

	results := make([]Result, 0, len(order))
	for _, i := range order {
		score := sims[i]
		if score <= 0 {
			break
		}
		results = append(results, Result{
			Assessment: ix.Document(i),
			Score:      score,
			Confidence: Confidence(score),
			Label:      Label(score),
		})
	}

	if len(results) > 0 {
		return &Recommendation{Results: results}, nil
	}

	return &Recommendation{Results: fallbackResults(ix, k, fallback), Fallback: true}, nil
}

func fallbackResults(ix *tfidf.Index, k int, names []string) []Result {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}

	results := []Result{}
	for i := 0; i < ix.Len() && len(results) < k; i++ {
		doc := ix.Document(i)
		if _, ok := allowed[doc.Name]; !ok {
			continue
		}
		results = append(results, Result{
			Assessment: doc,
			Confidence: FallbackConfidence,
			Label:      LabelMedium,
			Fallback:   true,
		})
	}
	return results
}
