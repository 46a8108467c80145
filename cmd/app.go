package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/ai/gemini"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/filtering"
	"github.com/spigell/assessment-recommender/internal/history"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/ranker"
	"github.com/spigell/assessment-recommender/internal/secrets"
)

const (
	minJobRoleLength = 2
	maxJobRoleLength = 255
)

var (
	errJobRoleLength = fmt.Errorf("job role must be between %d and %d characters", minJobRoleLength, maxJobRoleLength)
	errTopKRange     = errors.New("top-k is out of range")
)

// service wires the catalog, the engine and the consumer-side pieces together.
type service struct {
	config    *Config
	logger    *zap.Logger
	engine    *ranker.Engine
	current   atomic.Pointer[catalog.Catalog]
	filters   []filtering.Filter
	history   *history.Store
	explainer ai.Explainer
	now       func() time.Time
}

// outcome is what one recommendation request produced.
type outcome struct {
	JobRole        string                 `json:"job_role"`
	Recommendation *ranker.Recommendation `json:"recommendation"`
	Explanation    *ai.Explanation        `json:"explanation,omitempty"`
}

// newLogger builds the process logger from the global flags.
func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		panic(fmt.Sprintf("creating a logger: %s", err))
	}
	return l
}

// newService loads the configured catalog and trains the engine on it.
func newService(ctx context.Context, config *Config, log *zap.Logger) (*service, error) {
	engine := ranker.NewEngine(log,
		ranker.WithMaxFeatures(config.Ranking.MaxFeatures),
		ranker.WithFallbackNames(config.Ranking.Fallback...),
	)

	s := &service{
		config:  config,
		logger:  log,
		engine:  engine,
		filters: filtering.Default(),
		now:     time.Now,
	}

	if config.History.Enabled && strings.TrimSpace(config.History.File) != "" {
		s.history = history.NewStore(config.History.File)
	}

	if err := s.reload(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// reload fetches the catalog and retrains. On failure the previous catalog and index stay.
func (s *service) reload(ctx context.Context) error {
	c, err := catalog.Load(ctx, s.config.Catalog.Source, catalog.Options{
		UserAgent:  s.config.Catalog.UserAgent,
		HTTPClient: &http.Client{Timeout: s.config.Catalog.Timeout},
		Logger:     s.logger,
	})
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	if err := s.engine.Train(c.Assessments); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	s.current.Store(c)
	s.logger.Info("catalog loaded", append(logger.CatalogFields(s.config.Catalog.Source),
		zap.Int("assessments", c.Len()),
		zap.Int("job_roles", len(c.JobRoles)),
	)...)
	return nil
}

// enableExplain wires the Gemini explainer.
func (s *service) enableExplain(ctx context.Context) error {
	cfg := s.config.Explain.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   []string{"GEMINI_API_KEY"},
	})
	if err != nil {
		return fmt.Errorf("%w (set explain.gemini.api-key-file, %s_GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err, envPrefix)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.MaxRetries, logger.WithCommonFields(s.logger, "gemini", cfg.Model))
	if err != nil {
		return err
	}

	s.explainer = gemini.NewExplainer(generator, cfg.MaxLogLength, s.logger)
	return nil
}

// resolveJobRole turns a role name from the catalog or free text into query text.
func (s *service) resolveJobRole(role string, words []string) (string, error) {
	if role = strings.TrimSpace(role); role != "" {
		found := s.catalog().FindRole(role)
		if found == nil {
			return "", fmt.Errorf("job role %q is not in the catalog", role)
		}
		return found.QueryText(), nil
	}
	return strings.TrimSpace(strings.Join(words, " ")), nil
}

// catalog returns the catalog the engine was last trained on.
func (s *service) catalog() *catalog.Catalog {
	return s.current.Load()
}

func validateJobRole(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < minJobRoleLength || n > maxJobRoleLength {
		return errJobRoleLength
	}
	return nil
}

func validateTopK(k, max int) error {
	if max <= 0 {
		max = 10
	}
	if k < 1 || k > max {
		return fmt.Errorf("%w: %d, expected 1..%d", errTopKRange, k, max)
	}
	return nil
}

// recommend runs one request end to end: rank, filter, persist and optionally explain.
func (s *service) recommend(ctx context.Context, jobRole string, topK int, keepHistory bool) (*outcome, error) {
	jobRole = strings.TrimSpace(jobRole)
	if err := validateJobRole(jobRole); err != nil {
		return nil, err
	}
	if err := validateTopK(topK, s.config.Ranking.MaxTopK); err != nil {
		return nil, err
	}

	log := logger.WithFields(s.logger, logger.RankingFields(jobRole, topK)...)

	rec, err := s.engine.Recommend(jobRole, topK)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	rec, err = filtering.Run(ctx, s.config.Filters, filtering.Deps{Logger: log}, s.filters, rec)
	if err != nil {
		return nil, fmt.Errorf("filtering: %w", err)
	}

	if rec.Empty() {
		log.Info("no recommendation available", zap.Bool("fallback", rec.Fallback))
	}

	if keepHistory && s.history != nil {
		if err := s.history.Append(ctx, history.NewRecord(jobRole, rec, s.now())); err != nil {
			log.Warn("saving recommendation history", zap.Error(err), zap.String("file", s.history.Path()))
		}
	}

	out := &outcome{JobRole: jobRole, Recommendation: rec}

	if s.explainer != nil {
		explanation, err := s.explainer.Explain(ctx, jobRole, rec)
		if err != nil {
			log.Warn("explaining recommendation", zap.Error(err))
		} else {
			out.Explanation = explanation
		}
	}

	return out, nil
}

func (s *service) modelInfoJSON() ([]byte, error) {
	return json.MarshalIndent(s.engine.ModelInfo(), "", "  ")
}
