package swath

import "math"

// Decimate selects evenly spaced sample indices from count aligned
// samples, bounding the output to maxPoints and honoring an additional
// user-requested factor. Every selected index is a real input position
// (nearest neighbor, never interpolated); the result is strictly
// increasing, unique and within [0, count).
//
// The effective factor is max(count/maxPoints, userFactor). maxPoints of 0
// selects nothing; a series already within bounds with userFactor <= 1 is
// returned whole.
func Decimate(count, maxPoints int, userFactor float64) []int {
	if count <= 0 || maxPoints == 0 {
		return []int{}
	}

	factor := float64(count) / float64(maxPoints)
	if userFactor > factor {
		factor = userFactor
	}
	if factor <= 1 {
		indices := make([]int, count)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	m := int(float64(count) / factor)
	if m < 1 {
		m = 1
	}
	indices := make([]int, 0, m)
	prev := -1
	for i := 0; i < m; i++ {
		idx := int(math.Round(float64(i) * factor))
		if idx > count-1 {
			idx = count - 1
		}
		if idx > prev {
			indices = append(indices, idx)
			prev = idx
		}
	}
	return indices
}
