package metadata

import (
	"slices"
)

// Percentile returns the p-th percentile of values using linear
// interpolation between closest ranks, truncated toward zero. The
// interpolation is done in integer arithmetic so results do not depend on
// floating point rounding. values is not modified.
func Percentile(values []int64, p int) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := int64(p) * int64(len(sorted)-1)
	lo := rank / 100
	rem := rank % 100
	if rem == 0 {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*rem/100
}
