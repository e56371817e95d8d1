package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarshchauhan26/CivicConnect/core"
)

type mapSource struct {
	names   []string
	vectors map[string][]float32
}

func (m *mapSource) Names() []string { return m.names }

func (m *mapSource) Vector(name string) ([]float32, bool) {
	v, ok := m.vectors[name]
	return v, ok
}

func newSource(pairs ...any) *mapSource {
	s := &mapSource{vectors: make(map[string][]float32)}
	for i := 0; i < len(pairs); i += 2 {
		name := pairs[i].(string)
		s.names = append(s.names, name)
		s.vectors[name] = pairs[i+1].([]float32)
	}
	return s
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"diagonal", []float32{1, 0}, []float32{1, 1}, 1 / math.Sqrt2},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRank_OrdersByDescendingSimilarity(t *testing.T) {
	source := newSource(
		"Ayushman Bharat", []float32{0, 1},
		"Old Age Pension", []float32{1, 1},
		"PM Kisan", []float32{1, 0},
	)

	got := Rank([]float32{1, 0}, source, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "PM Kisan", got[0].Name)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, "Old Age Pension", got[1].Name)
	assert.Equal(t, "Ayushman Bharat", got[2].Name)
	assert.InDelta(t, 0.0, got[2].Score, 1e-9)
}

func TestRank_TiesKeepSourceOrder(t *testing.T) {
	source := newSource(
		"A", []float32{1, 0},
		"B", []float32{2, 0},
		"C", []float32{0, 1},
		"D", []float32{3, 0},
	)

	got := Rank([]float32{1, 0}, source, 0)
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"A", "B", "D", "C"}, names)
}

func TestRank_TruncatesToK(t *testing.T) {
	source := newSource(
		"A", []float32{1, 0},
		"B", []float32{0.9, 0.1},
		"C", []float32{0, 1},
	)

	got := Rank([]float32{1, 0}, source, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B", got[1].Name)

	assert.Len(t, Rank([]float32{1, 0}, source, 10), 3, "k larger than catalog returns everything")
	assert.Len(t, Rank([]float32{1, 0}, source, -1), 3, "non-positive k returns everything")
}

func TestRank_SkipsNamesWithoutVectors(t *testing.T) {
	source := newSource("A", []float32{1, 0})
	source.names = append(source.names, "ghost")

	got := Rank([]float32{1, 0}, source, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Name)
}

func TestRank_EmptySource(t *testing.T) {
	got := Rank([]float32{1, 0}, newSource(), 5)
	assert.Empty(t, got)
}

func TestSortByScore_Stable(t *testing.T) {
	candidates := []core.Candidate{
		{Name: "x", Score: 0.5},
		{Name: "y", Score: 0.9},
		{Name: "z", Score: 0.5},
		{Name: "w", Score: 0.9},
	}
	SortByScore(candidates)
	assert.Equal(t, []core.Candidate{
		{Name: "y", Score: 0.9},
		{Name: "w", Score: 0.9},
		{Name: "x", Score: 0.5},
		{Name: "z", Score: 0.5},
	}, candidates)
}
