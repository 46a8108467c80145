package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ranker"
)

// Filter represents a single post-ranking step applied to recommended assessments.
// Filters only drop results; they never reorder them.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, results []ranker.Result) ([]ranker.Result, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	Categories   []string `mapstructure:"categories"`
	Difficulties []string `mapstructure:"difficulties"`
	MaxDuration  int      `mapstructure:"max-duration"`
	Exclude      []string `mapstructure:"exclude"`
	ExcludeFile  string   `mapstructure:"exclude-file"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Default returns every filter in the order they are applied.
func Default() []Filter {
	return []Filter{
		NewCategories(),
		NewDifficulties(),
		NewMaxDuration(),
		NewExcludeNames(),
		NewExcludeFile(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates and then executes the enabled filters sequentially. The input
// recommendation is not modified.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, rec *ranker.Recommendation) (*ranker.Recommendation, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	out := &ranker.Recommendation{Fallback: rec.Fallback}
	results := append([]ranker.Result{}, rec.Results...)

	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, results)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		results = next
	}

	out.Results = results
	return out, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// keep returns the results matching pred, in order, and the names of the dropped ones.
func keep(results []ranker.Result, pred func(ranker.Result) bool) ([]ranker.Result, []string) {
	kept := results[:0:0]
	var dropped []string
	for _, r := range results {
		if pred(r) {
			kept = append(kept, r)
			continue
		}
		dropped = append(dropped, r.Assessment.Name)
	}
	return kept, dropped
}
