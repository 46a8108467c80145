package tfidf

import (
	"errors"
	"math"
	"sort"

	"github.com/spigell/assessment-recommender/internal/catalog"
)

// DefaultMaxFeatures caps the vocabulary size unless overridden.
const DefaultMaxFeatures = 100

// ErrEmptyCorpus is returned by Build when there are no documents to index.
var ErrEmptyCorpus = errors.New("empty corpus: no assessments to train on")

type config struct {
	maxFeatures int
}

type Option func(*config)

// WithMaxFeatures caps the vocabulary to the n most frequent terms. n <= 0 disables the cap.
func WithMaxFeatures(n int) Option {
	return func(c *config) {
		c.maxFeatures = n
	}
}

// Index is an immutable TF-IDF representation of a catalog.
// It is safe for concurrent use once Build returns.
type Index struct {
	docs  []catalog.Assessment
	terms []string
	vocab map[string]int
	idf   []float64
	rows  []Vector
}

// Build indexes docs in the given order. Row i of the matrix belongs to docs[i].
func Build(docs []catalog.Assessment, opts ...Option) (*Index, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	cfg := config{maxFeatures: DefaultMaxFeatures}
	for _, opt := range opts {
		opt(&cfg)
	}

	perDoc := make([]map[string]int, len(docs))
	total := make(map[string]int)
	df := make(map[string]int)
	for i, d := range docs {
		counts := make(map[string]int)
		for _, t := range Terms(d.Text()) {
			counts[t]++
		}
		for t, n := range counts {
			total[t] += n
			df[t]++
		}
		perDoc[i] = counts
	}

	terms := selectTerms(total, cfg.maxFeatures)

	ix := &Index{
		docs:  append([]catalog.Assessment(nil), docs...),
		terms: terms,
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
		rows:  make([]Vector, len(docs)),
	}

	n := float64(len(docs))
	for dim, t := range terms {
		ix.vocab[t] = dim
		ix.idf[dim] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	for i, counts := range perDoc {
		ix.rows[i] = ix.weigh(counts)
	}

	return ix, nil
}

// selectTerms keeps the limit most frequent terms, ties broken alphabetically,
// and returns them in alphabetical order.
func selectTerms(total map[string]int, limit int) []string {
	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}

	if limit > 0 && len(terms) > limit {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:limit]
	}

	sort.Strings(terms)
	return terms
}

func (ix *Index) weigh(counts map[string]int) Vector {
	vec := make(Vector, 0, len(counts))
	for t, c := range counts {
		dim, ok := ix.vocab[t]
		if !ok {
			continue
		}
		vec = append(vec, Entry{Dim: dim, Weight: float64(c) * ix.idf[dim]})
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Dim < vec[j].Dim })
	return vec.normalize()
}

// Project maps text into the index space using the frozen vocabulary and IDF weights.
// Unknown terms are ignored; the result is unit length or empty.
func (ix *Index) Project(text string) Vector {
	counts := make(map[string]int)
	for _, t := range Terms(text) {
		if _, ok := ix.vocab[t]; ok {
			counts[t]++
		}
	}
	return ix.weigh(counts)
}

// Similarities returns the cosine similarity of q against every document, in corpus order.
func (ix *Index) Similarities(q Vector) []float64 {
	out := make([]float64, len(ix.rows))
	if len(q) == 0 {
		return out
	}
	for i, row := range ix.rows {
		out[i] = row.Dot(q)
	}
	return out
}

func (ix *Index) Len() int { return len(ix.docs) }

// Dimension is the vocabulary size.
func (ix *Index) Dimension() int { return len(ix.terms) }

func (ix *Index) Document(i int) catalog.Assessment { return ix.docs[i] }

// Documents returns a copy of the indexed documents in corpus order.
func (ix *Index) Documents() []catalog.Assessment {
	return append([]catalog.Assessment(nil), ix.docs...)
}

// Vocabulary returns the terms ordered by dimension.
func (ix *Index) Vocabulary() []string {
	return append([]string(nil), ix.terms...)
}

// IDF returns the inverse document frequency of term, if it is in the vocabulary.
func (ix *Index) IDF(term string) (float64, bool) {
	dim, ok := ix.vocab[term]
	if !ok {
		return 0, false
	}
	return ix.idf[dim], true
}

// Row returns a copy of the weight vector of document i.
func (ix *Index) Row(i int) Vector {
	return append(Vector(nil), ix.rows[i]...)
}
