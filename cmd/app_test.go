package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/ai"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/filtering"
	"github.com/spigell/assessment-recommender/internal/history"
	"github.com/spigell/assessment-recommender/internal/ranker"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	v := viper.New()
	setDefaults(v)
	v.Set("history.file", filepath.Join(t.TempDir(), "history.jsonl"))

	config, err := decodeConfig(v)
	require.NoError(t, err)
	return config
}

func testService(t *testing.T, config *Config) *service {
	t.Helper()

	svc, err := newService(context.Background(), config, zap.NewNop())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDecodeConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	config, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "", config.Catalog.Source)
	assert.Equal(t, 10*time.Second, config.Catalog.Timeout)
	assert.Equal(t, 5, config.Ranking.TopK)
	assert.Equal(t, 10, config.Ranking.MaxTopK)
	assert.Equal(t, 100, config.Ranking.MaxFeatures)
	assert.Empty(t, config.Ranking.Fallback)
	assert.True(t, config.History.Enabled)
	assert.Equal(t, "assessor-history.jsonl", config.History.File)
	assert.False(t, config.Explain.Enabled)
	assert.Equal(t, 3, config.Explain.Gemini.MaxRetries)
	assert.Equal(t, 200, config.Explain.Gemini.MaxLogLength)
	assert.Equal(t, 0, config.Filters.MaxDuration)
	assert.Equal(t, "", config.Metrics.Listen)
}

func TestDecodeConfigOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("ranking.top-k", 3)
	v.Set("ranking.fallback", []string{"SQL"})
	v.Set("filters.max-duration", 45)
	v.Set("filters.categories", []string{"Technical"})
	v.Set("explain.gemini.model", "gemini-2.5-pro")

	config, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, 3, config.Ranking.TopK)
	assert.Equal(t, []string{"SQL"}, config.Ranking.Fallback)
	assert.Equal(t, 45, config.Filters.MaxDuration)
	assert.Equal(t, []string{"Technical"}, config.Filters.Categories)
	assert.Equal(t, "gemini-2.5-pro", config.Explain.Gemini.Model)
}

func TestValidateJobRole(t *testing.T) {
	assert.NoError(t, validateJobRole("QA"))
	assert.NoError(t, validateJobRole(strings.Repeat("я", maxJobRoleLength)))
	assert.ErrorIs(t, validateJobRole(" x "), errJobRoleLength)
	assert.ErrorIs(t, validateJobRole(""), errJobRoleLength)
	assert.ErrorIs(t, validateJobRole(strings.Repeat("a", maxJobRoleLength+1)), errJobRoleLength)
}

func TestValidateTopK(t *testing.T) {
	assert.NoError(t, validateTopK(1, 10))
	assert.NoError(t, validateTopK(10, 10))
	assert.NoError(t, validateTopK(10, 0))
	assert.ErrorIs(t, validateTopK(0, 10), errTopKRange)
	assert.ErrorIs(t, validateTopK(11, 10), errTopKRange)
	assert.ErrorIs(t, validateTopK(4, 3), errTopKRange)
}

func TestServiceRecommend(t *testing.T) {
	config := testConfig(t)
	svc := testService(t, config)

	require.NotNil(t, svc.catalog())
	assert.Equal(t, 15, svc.catalog().Len())

	out, err := svc.recommend(context.Background(), "  Python developer with strong programming skills ", 3, true)
	require.NoError(t, err)

	assert.Equal(t, "Python developer with strong programming skills", out.JobRole)
	require.False(t, out.Recommendation.Empty())
	assert.False(t, out.Recommendation.Fallback)
	assert.Equal(t, "Python Coding Assessment", out.Recommendation.Results[0].Assessment.Name)
	assert.LessOrEqual(t, len(out.Recommendation.Results), 3)
	assert.Nil(t, out.Explanation)

	records, err := svc.history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, out.JobRole, records[0].JobRole)
	assert.Equal(t, out.Recommendation.Names(), records[0].Recommended)
	assert.Equal(t, svc.now(), records[0].Timestamp)
}

func TestServiceRecommendFallbackWithoutHistory(t *testing.T) {
	config := testConfig(t)
	svc := testService(t, config)

	out, err := svc.recommend(context.Background(), "zzqx wvut", 2, false)
	require.NoError(t, err)

	assert.True(t, out.Recommendation.Fallback)
	assert.Equal(t, []string{"Logical Reasoning Test", "Numerical Reasoning Assessment"}, out.Recommendation.Names())

	stats, err := svc.history.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, history.Stats{}, stats)
}

func TestServiceRecommendAppliesFilters(t *testing.T) {
	config := testConfig(t)
	config.Filters.Exclude = []string{"Python Coding Assessment"}
	svc := testService(t, config)

	out, err := svc.recommend(context.Background(), "Python developer with strong programming skills", 5, false)
	require.NoError(t, err)
	assert.NotContains(t, out.Recommendation.Names(), "Python Coding Assessment")
}

func TestServiceRecommendRejectsInput(t *testing.T) {
	config := testConfig(t)
	svc := testService(t, config)

	_, err := svc.recommend(context.Background(), "x", 3, false)
	assert.ErrorIs(t, err, errJobRoleLength)

	_, err = svc.recommend(context.Background(), "data analyst", 11, false)
	assert.ErrorIs(t, err, errTopKRange)
}

func TestServiceResolveJobRole(t *testing.T) {
	svc := testService(t, testConfig(t))

	text, err := svc.resolveJobRole("", []string{"backend", "engineer"})
	require.NoError(t, err)
	assert.Equal(t, "backend engineer", text)

	_, err = svc.resolveJobRole("Astronaut", nil)
	assert.Error(t, err)

	role := svc.catalog().JobRoles[0]
	text, err = svc.resolveJobRole(role.Name, []string{"ignored"})
	require.NoError(t, err)
	assert.Equal(t, role.QueryText(), text)
}

func TestServiceReloadKeepsModelOnFailure(t *testing.T) {
	config := testConfig(t)
	svc := testService(t, config)
	before := svc.catalog()

	svc.config.Catalog.Source = filepath.Join(t.TempDir(), "missing.yaml")
	require.Error(t, svc.reload(context.Background()))

	assert.Same(t, before, svc.catalog())
	assert.True(t, svc.engine.Trained())
}

func TestServiceVocabulary(t *testing.T) {
	svc := testService(t, testConfig(t))

	vocab := svc.vocabulary()
	require.Len(t, vocab, svc.engine.ModelInfo().FeatureDimensions)
	for _, term := range vocab {
		assert.GreaterOrEqual(t, term.IDF, 1.0, term.Term)
	}
}

func TestRenderOutcome(t *testing.T) {
	out := &outcome{
		JobRole: "data analyst",
		Recommendation: &ranker.Recommendation{Results: []ranker.Result{
			{Assessment: assessmentNamed("SQL"), Score: 0.6, Confidence: 60, Label: ranker.LabelHigh},
		}},
		Explanation: &ai.Explanation{Summary: "Start with SQL.", Notes: map[string]string{"SQL": "queries"}},
	}

	var buf bytes.Buffer
	renderOutcome(&buf, out)

	text := buf.String()
	assert.Contains(t, text, "data analyst")
	assert.Contains(t, text, "SQL")
	assert.Contains(t, text, "60.00%")
	assert.Contains(t, text, "queries")
	assert.Contains(t, text, "Start with SQL.")
}

func TestRenderOutcomeEmptyAndFallback(t *testing.T) {
	var buf bytes.Buffer
	renderOutcome(&buf, &outcome{JobRole: "x", Recommendation: &ranker.Recommendation{Fallback: true}})
	assert.Contains(t, buf.String(), "No recommendation available.")

	buf.Reset()
	renderOutcome(&buf, &outcome{JobRole: "x", Recommendation: &ranker.Recommendation{
		Fallback: true,
		Results: []ranker.Result{{Assessment: assessmentNamed("SQL"), Confidence: ranker.FallbackConfidence, Label: ranker.LabelMedium, Fallback: true}},
	}})
	assert.Contains(t, buf.String(), "general-purpose")
}

func TestLastRecords(t *testing.T) {
	records := []history.Record{{JobRole: "a"}, {JobRole: "b"}, {JobRole: "c"}}

	assert.Len(t, lastRecords(records, 0), 3)
	assert.Len(t, lastRecords(records, 5), 3)
	assert.Equal(t, []history.Record{{JobRole: "c"}}, lastRecords(records, 1))
}

func TestDescribeFilters(t *testing.T) {
	statuses := filtering.Describe(filtering.Default())
	assert.Len(t, statuses, 5)
}

func assessmentNamed(name string) catalog.Assessment {
	return catalog.Assessment{Name: name, Category: "Technical", DurationMinutes: 30}
}
