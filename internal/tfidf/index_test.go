package tfidf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

func twoDocs() []catalog.Assessment {
	return []catalog.Assessment{
		{Name: "Python Coding Assessment", Description: "Evaluates Python programming skills"},
		{Name: "Leadership & Management Test", Description: "Assesses leadership qualities"},
	}
}

func TestTerms(t *testing.T) {
	got := Terms("The Python developer, with SQL & a ＡＰＩ!")
	assert.Equal(t, []string{"python", "developer", "sql", "api", "python developer", "developer sql", "sql api"}, got)

	assert.Nil(t, Terms("a I the"))
	assert.Equal(t, []string{"rust"}, Terms("x Rust"), "single letter words are dropped")
	assert.True(t, IsStopword("The"))
	assert.False(t, IsStopword("python"))
}

func TestBuildEmptyCorpus(t *testing.T) {
	ix, err := Build(nil)
	require.ErrorIs(t, err, ErrEmptyCorpus)
	assert.Nil(t, ix)
}

func TestBuildVocabularyAndIDF(t *testing.T) {
	ix, err := Build(twoDocs())
	require.NoError(t, err)

	assert.Equal(t, 2, ix.Len())
	// 6 unigrams + 6 bigrams, 5 unigrams + 5 bigrams
	assert.Equal(t, 22, ix.Dimension())

	vocab := ix.Vocabulary()
	assert.IsNonDecreasing(t, vocab)
	assert.Contains(t, vocab, "python programming")
	assert.NotContains(t, vocab, "&")

	idf, ok := ix.IDF("python")
	require.True(t, ok)
	assert.InDelta(t, math.Log(3.0/2.0)+1, idf, 1e-12)

	_, ok = ix.IDF("zzqqxx")
	assert.False(t, ok)

	for i := 0; i < ix.Len(); i++ {
		assert.InDelta(t, 1.0, ix.Row(i).Norm(), 1e-12)
	}
}

func TestBuildMaxFeatures(t *testing.T) {
	docs := []catalog.Assessment{
		{Name: "alpha alpha alpha beta"},
		{Name: "alpha gamma delta"},
	}

	ix, err := Build(docs, WithMaxFeatures(2))
	require.NoError(t, err)
	// alpha occurs 4 times and "alpha alpha" twice, every other term once.
	assert.Equal(t, []string{"alpha", "alpha alpha"}, ix.Vocabulary())

	unlimited, err := Build(docs, WithMaxFeatures(0))
	require.NoError(t, err)
	assert.Greater(t, unlimited.Dimension(), 2)
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	docs := twoDocs()
	ix, err := Build(docs)
	require.NoError(t, err)

	docs[0].Name = "changed"
	assert.Equal(t, "Python Coding Assessment", ix.Document(0).Name)

	out := ix.Documents()
	out[1].Name = "changed"
	assert.Equal(t, "Leadership & Management Test", ix.Document(1).Name)
}

func TestProjectAndSimilarities(t *testing.T) {
	ix, err := Build(twoDocs())
	require.NoError(t, err)

	q := ix.Project("Python developer with strong programming skills")
	require.NotEmpty(t, q)
	assert.InDelta(t, 1.0, q.Norm(), 1e-12)

	sims := ix.Similarities(q)
	require.Len(t, sims, 2)
	// python(x2), programming, skills and "programming skills" are shared
	assert.InDelta(t, 5/(2*math.Sqrt(15)), sims[0], 1e-9)
	assert.Zero(t, sims[1])

	empty := ix.Project("zzqqxx nonsense")
	assert.True(t, empty.IsZero())
	assert.Equal(t, []float64{0, 0}, ix.Similarities(empty))
}

func TestProjectDocumentTextIsItsRow(t *testing.T) {
	ix, err := Build(twoDocs())
	require.NoError(t, err)

	for i := 0; i < ix.Len(); i++ {
		q := ix.Project(ix.Document(i).Text())
		assert.InDelta(t, 1.0, ix.Row(i).Dot(q), 1e-12)
	}
}

func TestRebuildIsBehaviorallyIdentical(t *testing.T) {
	c, err := catalog.Sample()
	require.NoError(t, err)

	a, err := Build(c.Assessments)
	require.NoError(t, err)
	b, err := Build(c.Assessments)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxFeatures, a.Dimension())
	assert.Equal(t, a.Vocabulary(), b.Vocabulary())

	query := "Software engineer who writes Python and SQL"
	assert.Equal(t, a.Similarities(a.Project(query)), b.Similarities(b.Project(query)))
}

func TestVectorDot(t *testing.T) {
	v := Vector{{Dim: 0, Weight: 1}, {Dim: 3, Weight: 2}, {Dim: 5, Weight: 1}}
	o := Vector{{Dim: 1, Weight: 4}, {Dim: 3, Weight: 3}, {Dim: 5, Weight: 2}}
	assert.Equal(t, 8.0, v.Dot(o))
	assert.Zero(t, v.Dot(nil))
}
