package ranking

import (
	"math"
	"slices"

	"github.com/utkarshchauhan26/CivicConnect/core"
)

// VectorSource yields scheme vectors in a fixed order.
type VectorSource interface {
	Names() []string
	Vector(name string) ([]float32, bool)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length, empty vectors and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every scheme in source against user and returns the top k
// candidates by descending similarity. When k <= 0 or k exceeds the number
// of schemes every scheme is returned.
func Rank(user []float32, source VectorSource, k int) []core.Candidate {
	names := source.Names()
	candidates := make([]core.Candidate, 0, len(names))
	for _, name := range names {
		vector, ok := source.Vector(name)
		if !ok {
			continue
		}
		candidates = append(candidates, core.Candidate{
			Name:  name,
			Score: CosineSimilarity(user, vector),
		})
	}

	SortByScore(candidates)

	if k > 0 && k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}

// SortByScore orders candidates by descending score, keeping the existing
// order of equal scores.
func SortByScore(candidates []core.Candidate) {
	slices.SortStableFunc(candidates, func(a, b core.Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
}
