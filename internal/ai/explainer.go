package ai

import (
	"context"

	"github.com/spigell/assessment-recommender/internal/ranker"
)

// Explanation is a natural-language commentary on a finished ranking.
// Notes are keyed by assessment name.
type Explanation struct {
	Summary string            `json:"summary"`
	Notes   map[string]string `json:"notes,omitempty"`
	Raw     string            `json:"-"`
}

// Explainer describes why the recommended assessments suit a job role.
// It never changes the ranking itself.
type Explainer interface {
	Explain(ctx context.Context, jobRole string, rec *ranker.Recommendation) (*Explanation, error)
}
