package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/tfidf"
)

func pythonAndLeadership() []catalog.Assessment {
	return []catalog.Assessment{
		{Name: "Python Coding Assessment", Description: "Evaluates Python programming skills"},
		{Name: "Leadership & Management Test", Description: "Assesses leadership qualities"},
	}
}

func sampleIndex(t *testing.T, opts ...tfidf.Option) *tfidf.Index {
	t.Helper()
	c, err := catalog.Sample()
	require.NoError(t, err)
	ix, err := tfidf.Build(c.Assessments, opts...)
	require.NoError(t, err)
	return ix
}

func TestLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  string
	}{
		{1, LabelHigh},
		{0.5, LabelHigh},
		{0.4999, LabelMedium},
		{0.3, LabelMedium},
		{0.2999, LabelLow},
		{0.01, LabelLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.score), "score %v", tt.score)
	}
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 64.55, Confidence(0.645497))
	assert.Equal(t, 100.0, Confidence(1))
	assert.Equal(t, 0.0, Confidence(0))
}

func TestRankNotTrained(t *testing.T) {
	_, err := Rank(nil, "anything", 3, DefaultFallbackNames)
	require.ErrorIs(t, err, ErrNotTrained)
}

func TestRankPythonScenario(t *testing.T) {
	ix, err := tfidf.Build(pythonAndLeadership())
	require.NoError(t, err)

	rec, err := Rank(ix, "Python developer with strong programming skills", 1, DefaultFallbackNames)
	require.NoError(t, err)

	require.Len(t, rec.Results, 1)
	assert.False(t, rec.Fallback)
	assert.Equal(t, "Python Coding Assessment", rec.Results[0].Assessment.Name)
	assert.Greater(t, rec.Results[0].Score, 0.3)
	assert.Equal(t, LabelHigh, rec.Results[0].Label)
	assert.Equal(t, Confidence(rec.Results[0].Score), rec.Results[0].Confidence)
}

func TestRankNonsenseTriggersFallback(t *testing.T) {
	ix, err := tfidf.Build(pythonAndLeadership())
	require.NoError(t, err)

	rec, err := Rank(ix, "zzqqxx nonsense", 2, DefaultFallbackNames)
	require.NoError(t, err)

	assert.True(t, rec.Fallback)
	// none of the allowlisted names are in this corpus
	assert.NotNil(t, rec.Results)
	assert.Empty(t, rec.Results)
	assert.True(t, rec.Empty())
}

func TestRankFallbackFromCatalog(t *testing.T) {
	ix := sampleIndex(t)

	rec, err := Rank(ix, "zzqqxx nonsense", 3, DefaultFallbackNames)
	require.NoError(t, err)

	require.True(t, rec.Fallback)
	assert.Equal(t, []string{
		"Logical Reasoning Test",
		"Numerical Reasoning Assessment",
		"Verbal Reasoning Test",
	}, rec.Names(), "fallback keeps corpus order")
	for _, r := range rec.Results {
		assert.Equal(t, LabelMedium, r.Label)
		assert.Equal(t, FallbackConfidence, r.Confidence)
		assert.True(t, r.Fallback)
	}

	again, err := Rank(ix, "zzqqxx nonsense", 3, DefaultFallbackNames)
	require.NoError(t, err)
	assert.Equal(t, rec, again)

	all, err := Rank(ix, "", 10, DefaultFallbackNames)
	require.NoError(t, err)
	assert.Len(t, all.Results, 5, "empty query text falls back, truncated to available names")

	custom, err := Rank(ix, "???", 10, []string{"Cybersecurity Test", "Unknown"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Cybersecurity Test"}, custom.Names())
}

func TestRankNonPositiveK(t *testing.T) {
	ix := sampleIndex(t)

	for _, k := range []int{0, -3} {
		rec, err := Rank(ix, "Python developer", k, DefaultFallbackNames)
		require.NoError(t, err)
		assert.Empty(t, rec.Results)
		assert.False(t, rec.Fallback)
	}
}

func TestRankInvariants(t *testing.T) {
	ix := sampleIndex(t)

	queries := []string{
		"Senior software engineer building Python services and SQL databases",
		"Team lead with strong communication and leadership skills",
		"Data scientist: statistics, machine learning, pandas",
		"cloud",
		"zzqqxx",
		"",
	}

	for _, q := range queries {
		for _, k := range []int{1, 3, 5, 10, 20} {
			rec, err := Rank(ix, q, k, DefaultFallbackNames)
			require.NoError(t, err)

			assert.LessOrEqual(t, len(rec.Results), k)
			for i, r := range rec.Results {
				if i > 0 {
					assert.GreaterOrEqual(t, rec.Results[i-1].Score, r.Score, "query %q", q)
				}
				if r.Fallback {
					assert.Equal(t, LabelMedium, r.Label)
					assert.Equal(t, FallbackConfidence, r.Confidence)
					continue
				}
				assert.Greater(t, r.Score, 0.0)
				assert.LessOrEqual(t, r.Score, 1.0+1e-9)
				assert.Equal(t, Label(r.Score), r.Label)
			}

			again, err := Rank(ix, q, k, DefaultFallbackNames)
			require.NoError(t, err)
			assert.Equal(t, rec, again, "ranking must be deterministic")
		}
	}
}

func TestRankSelfSimilarity(t *testing.T) {
	ix := sampleIndex(t, tfidf.WithMaxFeatures(0))

	for i := 0; i < ix.Len(); i++ {
		doc := ix.Document(i)
		rec, err := Rank(ix, doc.Text(), 3, DefaultFallbackNames)
		require.NoError(t, err)
		require.NotEmpty(t, rec.Results)
		assert.Equal(t, doc.Name, rec.Results[0].Assessment.Name)
		assert.InDelta(t, 1.0, rec.Results[0].Score, 1e-9)
	}
}

func TestRankTieBreakKeepsCorpusOrder(t *testing.T) {
	alpha := catalog.Assessment{Name: "Alpha Quiz", Description: "golang"}
	beta := catalog.Assessment{Name: "Beta Quiz", Description: "golang"}

	for _, docs := range [][]catalog.Assessment{{alpha, beta}, {beta, alpha}} {
		ix, err := tfidf.Build(docs)
		require.NoError(t, err)

		rec, err := Rank(ix, "golang", 2, nil)
		require.NoError(t, err)
		require.Len(t, rec.Results, 2)
		assert.Equal(t, rec.Results[0].Score, rec.Results[1].Score)
		assert.Equal(t, []string{docs[0].Name, docs[1].Name}, rec.Names())

		one, err := Rank(ix, "golang", 1, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{docs[0].Name}, one.Names())
	}
}

func TestRankDropsZeroScores(t *testing.T) {
	ix, err := tfidf.Build(pythonAndLeadership())
	require.NoError(t, err)

	rec, err := Rank(ix, "python", 2, DefaultFallbackNames)
	require.NoError(t, err)
	assert.Equal(t, []string{"Python Coding Assessment"}, rec.Names())
	assert.False(t, rec.Fallback)
}
