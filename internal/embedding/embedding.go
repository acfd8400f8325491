// Package embedding provides vector embedding generation for text.
package embedding

import "math"

// MaxBatchSize bounds how many texts are sent to the embedding backend
// in one request, to respect its memory limits. Batches are independent:
// splitting differently must not change per-item output.
const MaxBatchSize = 256

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
	return v
}
