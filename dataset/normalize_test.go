package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  PM Kisan  ", "PM Kisan"},
		{"collapses inner whitespace", "PM   Awas\tYojana", "PM Awas Yojana"},
		{"full width characters", "ＰＭ Kisan", "PM Kisan"},
		{"strips control characters", "Ayushman\u0007 Bharat", "Ayushman Bharat"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestSplitSchemes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "PM Kisan", []string{"PM Kisan"}},
		{"multiple", "A;B;C", []string{"A", "B", "C"}},
		{"drops empty parts", "A;; ;B;", []string{"A", "B"}},
		{"none literal", "None", nil},
		{"none with spaces", "  NONE ", nil},
		{"nan literal", "nan", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSchemes(tt.input)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
