package metadata

import (
	"strings"

	"github.com/utkarshchauhan26/CivicConnect/core"
)

// Keyword sets matched case-insensitively as substrings of a scheme name.
var (
	LowIncomeKeywords      = []string{"ayushman", "bpl", "ration", "housing", "pmay"}
	SeniorKeywords         = []string{"old age", "senior", "senior citizen", "bus pass"}
	ScholarshipKeywords    = []string{"scholarship"}
	SouthIndiaKeywords     = []string{"south india"}
	BiharJharkhandKeywords = []string{"bihar", "jharkhand"}
)

// FlagsFor computes the keyword flags of a scheme name. The result depends
// on the name only.
func FlagsFor(name string) core.SchemeFlags {
	lower := strings.ToLower(name)
	return core.SchemeFlags{
		LowIncome:      containsAny(lower, LowIncomeKeywords),
		Senior:         containsAny(lower, SeniorKeywords),
		Scholarship:    containsAny(lower, ScholarshipKeywords),
		SouthIndia:     containsAny(lower, SouthIndiaKeywords),
		BiharJharkhand: containsAny(lower, BiharJharkhandKeywords),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
