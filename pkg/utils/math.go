package utils

import (
	"math"
	"sort"
)

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range x {
		x[i] = float32(float64(x[i]) * norm)
	}
}

// MeanVector returns the unweighted element-wise mean of vectors. All vectors must
// share the length of the first one; ok is false when vectors is empty or lengths differ.
func MeanVector(vectors [][]float32) (mean []float32, ok bool) {
	if len(vectors) == 0 {
		return nil, false
	}
	dim := len(vectors[0])
	acc := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, false
		}
		for i, x := range v {
			acc[i] += float64(x)
		}
	}
	mean = make([]float32, dim)
	n := float64(len(vectors))
	for i := range acc {
		mean[i] = float32(acc[i] / n)
	}
	return mean, true
}

// Median returns the median of values, or 0 for an empty slice. values is not modified.
func Median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}
