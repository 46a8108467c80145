package filtering

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ranker"
)

// toggle carries the enabled state shared by every filter.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

type categoriesFilter struct {
	toggle
	categories []string
}

// NewCategories creates a filter that keeps only assessments from the configured categories.
func NewCategories() Filter {
	return &categoriesFilter{}
}

func (f *categoriesFilter) Name() string { return "categories" }

func (f *categoriesFilter) Validate(cfg *Config) error {
	f.categories = nil
	if cfg != nil {
		f.categories = append(f.categories, cfg.Categories...)
	}
	return nil
}

func (f *categoriesFilter) Apply(_ context.Context, deps Deps, results []ranker.Result) ([]ranker.Result, Step, error) {
	initial := len(results)
	allowed := lowerSet(f.categories)
	if len(allowed) == 0 {
		return results, Step{Initial: initial, Left: initial}, nil
	}

	kept, dropped := keep(results, func(r ranker.Result) bool {
		_, ok := allowed[strings.ToLower(strings.TrimSpace(r.Assessment.Category))]
		return ok
	})
	if len(dropped) > 0 {
		deps.logger().Info("excluding assessments outside categories",
			zap.Strings("categories", f.categories),
			zap.Strings("excluded_assessments", dropped),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *categoriesFilter) Status() Status {
	details := map[string]string{}
	if len(f.categories) > 0 {
		details["categories"] = strings.Join(f.categories, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type difficultiesFilter struct {
	toggle
	difficulties []string
}

// NewDifficulties creates a filter that keeps only assessments of the configured difficulty levels.
func NewDifficulties() Filter {
	return &difficultiesFilter{}
}

func (f *difficultiesFilter) Name() string { return "difficulties" }

func (f *difficultiesFilter) Validate(cfg *Config) error {
	f.difficulties = nil
	if cfg != nil {
		f.difficulties = append(f.difficulties, cfg.Difficulties...)
	}
	return nil
}

func (f *difficultiesFilter) Apply(_ context.Context, deps Deps, results []ranker.Result) ([]ranker.Result, Step, error) {
	initial := len(results)
	allowed := lowerSet(f.difficulties)
	if len(allowed) == 0 {
		return results, Step{Initial: initial, Left: initial}, nil
	}

	kept, dropped := keep(results, func(r ranker.Result) bool {
		_, ok := allowed[strings.ToLower(strings.TrimSpace(r.Assessment.Difficulty))]
		return ok
	})
	if len(dropped) > 0 {
		deps.logger().Info("excluding assessments by difficulty",
			zap.Strings("difficulties", f.difficulties),
			zap.Strings("excluded_assessments", dropped),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *difficultiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.difficulties) > 0 {
		details["difficulties"] = strings.Join(f.difficulties, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type maxDurationFilter struct {
	toggle
	limit int
}

// NewMaxDuration creates a filter that drops assessments longer than the configured minutes.
// Assessments without a known duration are kept.
func NewMaxDuration() Filter {
	return &maxDurationFilter{}
}

func (f *maxDurationFilter) Name() string { return "max_duration" }

func (f *maxDurationFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg != nil {
		f.limit = cfg.MaxDuration
	}
	if f.limit < 0 {
		return fmt.Errorf("max duration must not be negative, got %d", f.limit)
	}
	return nil
}

func (f *maxDurationFilter) Apply(_ context.Context, deps Deps, results []ranker.Result) ([]ranker.Result, Step, error) {
	initial := len(results)
	if f.limit == 0 {
		return results, Step{Initial: initial, Left: initial}, nil
	}

	kept, dropped := keep(results, func(r ranker.Result) bool {
		return r.Assessment.DurationMinutes <= f.limit
	})
	if len(dropped) > 0 {
		deps.logger().Info("excluding assessments longer than limit",
			zap.Int("max_duration", f.limit),
			zap.Strings("excluded_assessments", dropped),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}

func (f *maxDurationFilter) Status() Status {
	details := map[string]string{}
	if f.limit > 0 {
		details["max_duration"] = strconv.Itoa(f.limit)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type excludeNamesFilter struct {
	toggle
	names []string
}

// NewExcludeNames creates a filter that removes assessments listed in the config.
func NewExcludeNames() Filter {
	return &excludeNamesFilter{}
}

func (f *excludeNamesFilter) Name() string { return "exclude" }

func (f *excludeNamesFilter) Validate(cfg *Config) error {
	f.names = nil
	if cfg != nil {
		f.names = append(f.names, cfg.Exclude...)
	}
	return nil
}

func (f *excludeNamesFilter) Apply(_ context.Context, deps Deps, results []ranker.Result) ([]ranker.Result, Step, error) {
	return excludeByName(deps, results, f.names, zap.Strings("exclude", f.names))
}

func (f *excludeNamesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["exclude"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes assessments listed in an exclude file,
// one name per line. Blank lines and lines starting with # are ignored.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, results []ranker.Result) ([]ranker.Result, Step, error) {
	if f.path == "" {
		return results, Step{Initial: len(results), Left: len(results)}, nil
	}

	names, err := ReadExcludeFile(f.path)
	if err != nil {
		return results, Step{}, fmt.Errorf("getting excluded assessments from file: %w", err)
	}

	return excludeByName(deps, results, names, zap.String("path", f.path))
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// ReadExcludeFile returns the assessment names listed in path. A missing file yields no names.
func ReadExcludeFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names, scanner.Err()
}

func excludeByName(deps Deps, results []ranker.Result, names []string, source zap.Field) ([]ranker.Result, Step, error) {
	initial := len(results)
	excluded := lowerSet(names)
	if len(excluded) == 0 {
		return results, Step{Initial: initial, Left: initial}, nil
	}

	kept, dropped := keep(results, func(r ranker.Result) bool {
		_, ok := excluded[strings.ToLower(r.Assessment.Name)]
		return !ok
	})
	if len(dropped) > 0 {
		deps.logger().Info("excluding assessments by name",
			source,
			zap.Strings("excluded_assessments", dropped),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(dropped), Left: len(kept)}, nil
}
