package tfidf

import "math"

// Entry is one non-zero cell of a sparse vector.
type Entry struct {
	Dim    int
	Weight float64
}

// Vector is a sparse vector with entries sorted by dimension.
type Vector []Entry

// Dot returns the dot product of two sorted sparse vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v) && j < len(o) {
		switch {
		case v[i].Dim == o[j].Dim:
			sum += v[i].Weight * o[j].Weight
			i++
			j++
		case v[i].Dim < o[j].Dim:
			i++
		default:
			j++
		}
	}
	return sum
}

func (v Vector) Norm() float64 {
	var sum float64
	for _, e := range v {
		sum += e.Weight * e.Weight
	}
	return math.Sqrt(sum)
}

// IsZero reports whether the vector has no weight at all.
func (v Vector) IsZero() bool {
	return v.Norm() == 0
}

// normalize scales v to unit length in place. A zero vector is left unchanged.
func (v Vector) normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	for i := range v {
		v[i].Weight /= n
	}
	return v
}
