package grouping

import (
	"math"
)

// Group is one semantic cluster of phases. Centroid is always unit length.
type Group struct {
	ID       int       `json:"group_id"`
	Centroid []float64 `json:"centroid"`
	Size     int       `json:"size"`
}

// Engine assigns vectors to groups by cosine similarity.
type Engine struct {
	threshold float64
	groups    []Group
}

// NewEngine builds an engine over existing groups. A non-positive threshold
// falls back to 0.82.
func NewEngine(threshold float64, groups []Group) *Engine {
	if threshold <= 0 {
		threshold = 0.82
	}
	return &Engine{threshold: threshold, groups: groups}
}

// Groups returns the current group set, including any created by Assign.
func (e *Engine) Groups() []Group {
	return e.groups
}

// Assign places a vector into the most similar group when its cosine
// similarity reaches the threshold, updating that group's running-mean
// centroid, and otherwise founds a new group. It returns the group ID.
func (e *Engine) Assign(vec []float64) int {
	v := Normalize(vec)

	best := -1
	bestScore := -1.0
	for i := range e.groups {
		score := Cosine(v, e.groups[i].Centroid)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best >= 0 && bestScore >= e.threshold {
		g := &e.groups[best]
		n := float64(g.Size)
		merged := make([]float64, len(g.Centroid))
		for i := range merged {
			var vi float64
			if i < len(v) {
				vi = v[i]
			}
			merged[i] = (g.Centroid[i]*n + vi) / (n + 1)
		}
		g.Centroid = Normalize(merged)
		g.Size++
		return g.ID
	}

	id := len(e.groups) + 1
	e.groups = append(e.groups, Group{ID: id, Centroid: v, Size: 1})
	return id
}

// Normalize returns the unit-length copy of v. The zero vector is returned
// unchanged.
func Normalize(v []float64) []float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// Cosine returns the dot product of two vectors, which equals cosine
// similarity for unit vectors. Mismatched lengths compare over the shorter
// prefix.
func Cosine(a, b []float64) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
